package metrics

import (
	"testing"
	"time"

	"TitaniumDesk/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderUplinkStateIsOneHot(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.RecordUplinkState(models.LinkConnecting)
	r.RecordUplinkState(models.LinkOpen)

	if v := testutil.ToFloat64(r.uplinkState.WithLabelValues(string(models.LinkOpen))); v != 1 {
		t.Fatalf("expected OPEN=1, got %v", v)
	}
	if v := testutil.ToFloat64(r.uplinkState.WithLabelValues(string(models.LinkConnecting))); v != 0 {
		t.Fatalf("expected CONNECTING=0, got %v", v)
	}
}

func TestRecorderCounters(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.RecordEvent("TICKER", "uplink")
	r.RecordEvent("TICKER", "uplink")
	r.RecordReconnect(3 * time.Second)
	r.RecordSimulation(true)

	if v := testutil.ToFloat64(r.eventsTotal.WithLabelValues("TICKER", "uplink")); v != 2 {
		t.Fatalf("expected 2 events, got %v", v)
	}
	if v := testutil.ToFloat64(r.reconnects); v != 1 {
		t.Fatalf("expected 1 reconnect, got %v", v)
	}
	if v := testutil.ToFloat64(r.simulation); v != 1 {
		t.Fatalf("expected simulation gauge 1, got %v", v)
	}
}

func TestRecorderExportsEveryEventTypeAtZero(t *testing.T) {
	r := New(prometheus.NewRegistry())
	want := len(models.EventTypes) * len(eventSources)
	if n := testutil.CollectAndCount(r.eventsTotal); n != want {
		t.Fatalf("expected %d series, got %d", want, n)
	}
	if v := testutil.ToFloat64(r.eventsTotal.WithLabelValues(string(models.EventTradeHistory), "tap")); v != 0 {
		t.Fatalf("expected zero, got %v", v)
	}
}
