package ratelimit

import (
	"testing"
	"time"

	"TitaniumDesk/pkg/clock"
)

func TestAllowRefills(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	l := New(clk)

	if !l.Allow("force:BUY", 2, 1) || !l.Allow("force:BUY", 2, 1) {
		t.Fatalf("bucket should start full")
	}
	if l.Allow("force:BUY", 2, 1) {
		t.Fatalf("third call should be throttled")
	}
	if !l.Allow("force:SELL", 2, 1) {
		t.Fatalf("keys must be independent")
	}

	clk.Advance(time.Second)
	if !l.Allow("force:BUY", 2, 1) {
		t.Fatalf("expected one token after 1s")
	}
	if l.Allow("force:BUY", 2, 1) {
		t.Fatalf("only one token should have refilled")
	}
}

func TestReset(t *testing.T) {
	l := New(clock.NewFake(time.Unix(0, 0)))
	l.Allow("k", 1, 0)
	if l.Allow("k", 1, 0) {
		t.Fatalf("expected throttled")
	}
	l.Reset("k")
	if !l.Allow("k", 1, 0) {
		t.Fatalf("reset bucket should start full")
	}
}
