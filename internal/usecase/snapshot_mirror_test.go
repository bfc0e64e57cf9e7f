package usecase

import (
	"testing"
	"time"

	"TitaniumDesk/internal/domain/models"
	"TitaniumDesk/internal/service/cache"
	"TitaniumDesk/pkg/clock"

	"github.com/alicebob/miniredis/v2"
)

func TestSnapshotMirrorWritesOnChange(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCache(cache.RedisConfig{Addr: mr.Addr()})
	defer rc.Close()

	clk := clock.NewFake(time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC))
	store := NewStore(clk)
	m := NewSnapshotMirror(MirrorConfig{TTL: 30 * time.Second, Interval: time.Second}, store, rc, WithMirrorClock(clk))

	store.Apply(models.TickerEvent(models.Ticker{Symbol: "XAU/USD", Price: 2040.5}))
	m.Start()
	clk.Advance(time.Second)

	if !mr.Exists(DefaultSnapshotKey) {
		t.Fatalf("snapshot not written")
	}
	if ttl := mr.TTL(DefaultSnapshotKey); ttl != 30*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	snap, ok, err := m.Last()
	if err != nil || !ok || snap.Ticker == nil || snap.Ticker.Price != 2040.5 {
		t.Fatalf("unexpected mirrored snapshot %+v %v %v", snap, ok, err)
	}

	if wrote, err := m.Sync(); err != nil || wrote {
		t.Fatalf("unchanged store should not be rewritten: %v %v", wrote, err)
	}
	store.Apply(models.AccountEvent(models.Account{Equity: 1}))
	if wrote, err := m.Sync(); err != nil || !wrote {
		t.Fatalf("changed store should be written: %v %v", wrote, err)
	}
}

func TestSnapshotMirrorStopWritesFinalState(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	store := NewStore(clk)
	sink := cache.NewTTLCache(clk)
	m := NewSnapshotMirror(MirrorConfig{}, store, sink, WithMirrorClock(clk))
	m.Start()

	store.SetSimulated(true)
	if err := m.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if clk.Pending() != 0 {
		t.Fatalf("stop must cancel the schedule")
	}
	snap, ok, err := m.Last()
	if err != nil || !ok || !snap.Simulated {
		t.Fatalf("expected final simulated snapshot, got %+v %v %v", snap, ok, err)
	}
}
