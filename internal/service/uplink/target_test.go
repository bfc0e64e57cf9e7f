package uplink

import (
	"errors"
	"testing"
)

func TestResolveTarget(t *testing.T) {
	cases := []struct {
		name     string
		override string
		origin   string
		want     string
	}{
		{"override wins", "wss://feed.example.com/stream", "http://desk.local", "wss://feed.example.com/stream"},
		{"secure page", "", "https://desk.example.com", "wss://desk.example.com/ws"},
		{"plain page with port", "", "http://localhost:8000", "ws://localhost:8000/ws"},
		{"origin path ignored", "", "https://desk.example.com/app/index.html", "wss://desk.example.com/ws"},
	}
	for _, tc := range cases {
		got, err := ResolveTarget(tc.override, tc.origin, "/ws")
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestResolveTargetErrors(t *testing.T) {
	if _, err := ResolveTarget("", "", "/ws"); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("expected ErrNoTarget, got %v", err)
	}
	if _, err := ResolveTarget("http://not-a-socket", "", "/ws"); err == nil {
		t.Fatalf("expected scheme error for http override")
	}
	if _, err := ResolveTarget("", "ftp://desk", "/ws"); err == nil {
		t.Fatalf("expected scheme error for ftp origin")
	}
}

func TestHTTPOrigin(t *testing.T) {
	got, err := HTTPOrigin("wss://desk.example.com/ws")
	if err != nil || got != "https://desk.example.com" {
		t.Fatalf("unexpected origin %q %v", got, err)
	}
	got, err = HTTPOrigin("ws://localhost:8000/ws")
	if err != nil || got != "http://localhost:8000" {
		t.Fatalf("unexpected origin %q %v", got, err)
	}
}
