package server

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"TitaniumDesk/internal/domain/models"
	"TitaniumDesk/internal/service/cache"
	"TitaniumDesk/internal/service/simulator"
	"TitaniumDesk/internal/usecase"
	"TitaniumDesk/pkg/clock"
	"TitaniumDesk/pkg/eventbus"
	xhttp "TitaniumDesk/pkg/http"
	"TitaniumDesk/pkg/logger"
)

type stubUplink struct {
	bus      *eventbus.Bus[models.Event]
	mu       sync.Mutex
	connects int
	closed   bool
}

func (u *stubUplink) Connect() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.connects++
}

func (u *stubUplink) Subscribe(h func(models.Event)) func() { return u.bus.Subscribe(h) }
func (u *stubUplink) Send(string, map[string]any)           {}
func (u *stubUplink) Stats() models.UplinkStats             { return models.UplinkStats{} }

func (u *stubUplink) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closed = true
	return nil
}

type nopGateway struct{}

func (nopGateway) Force(context.Context, models.OrderSide) error { return nil }

func TestAppLifecycle(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	up := &stubUplink{bus: eventbus.New[models.Event]()}
	store := usecase.NewStore(clk)
	desk := usecase.NewDesk(usecase.DeskConfig{}, store, up,
		simulator.New(simulator.DefaultConfig(), rand.New(rand.NewSource(1))), nopGateway{},
		usecase.WithDeskClock(clk))
	sink := cache.NewTTLCache(clk)
	mirror := usecase.NewSnapshotMirror(usecase.MirrorConfig{}, store, sink, usecase.WithMirrorClock(clk))
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))

	app := New(logger.Nop(), desk, up, nil, mirror, srv, time.Second)
	var order []string
	app.OnShutdown(func() error { order = append(order, "first"); return nil })
	app.OnShutdown(func() error { order = append(order, "second"); return errors.New("boom") })

	if err := app.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if up.connects != 1 {
		t.Fatalf("desk should connect the uplink on start")
	}
	clk.Advance(2 * time.Second)

	err := app.Shutdown(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected closer error to be joined, got %v", err)
	}
	if !up.closed {
		t.Fatalf("uplink should be closed")
	}
	if strings.Join(order, ",") != "second,first" {
		t.Fatalf("closers should run in reverse order, got %v", order)
	}
	if _, ok, _ := sink.GetBytes(usecase.DefaultSnapshotKey); !ok {
		t.Fatalf("mirror should write a final snapshot on shutdown")
	}
}
