package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TitaniumDesk/internal/domain/models"
	pkghttp "TitaniumDesk/pkg/http"
)

func TestForcePostsToSidePath(t *testing.T) {
	var gotMethod, gotPath string
	var gotLen int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotLen = r.Method, r.URL.Path, r.ContentLength
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	g, err := NewGateway(srv.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	if err := g.Force(context.Background(), models.OrderBuy); err != nil {
		t.Fatalf("force: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/force/BUY" || gotLen != 0 {
		t.Fatalf("unexpected request %s %s (%d bytes)", gotMethod, gotPath, gotLen)
	}
}

func TestForceNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "engine halted", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g, _ := NewGateway(srv.URL, time.Second)
	err := g.Force(context.Background(), models.OrderSell)
	if !errors.Is(err, pkghttp.ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
	var se *pkghttp.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable || se.Body != "engine halted" {
		t.Fatalf("unexpected status error %+v", se)
	}
}

func TestForceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g, _ := NewGateway(url, 200*time.Millisecond)
	if err := g.Force(context.Background(), models.OrderBuy); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestNewGatewayRejectsSocketURL(t *testing.T) {
	if _, err := NewGateway("ws://localhost:8000", time.Second); err == nil {
		t.Fatalf("expected scheme error")
	}
}
