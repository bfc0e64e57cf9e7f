package metrics

import (
	"time"

	"TitaniumDesk/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var linkStates = []models.LinkState{
	models.LinkDisconnected,
	models.LinkConnecting,
	models.LinkOpen,
	models.LinkExhausted,
	models.LinkClosed,
}

var eventSources = []string{"uplink", "simulator", "tap"}

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsTotal    *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	uplinkState    *prometheus.GaugeVec
	reconnects     prometheus.Counter
	reconnectDelay prometheus.Histogram
	simulation     prometheus.Gauge
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	r := &Recorder{
		eventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "titanium_events_total",
				Help: "Events folded into the desk, by type and source",
			},
			[]string{"type", "source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "titanium_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		uplinkState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "titanium_uplink_state",
				Help: "1 for the current uplink state, 0 otherwise",
			},
			[]string{"state"},
		),
		reconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "titanium_uplink_reconnects_total",
			Help: "Reconnect attempts scheduled",
		}),
		reconnectDelay: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "titanium_uplink_reconnect_delay_seconds",
			Help:    "Scheduled reconnect delay",
			Buckets: []float64{1, 3, 6, 9, 15, 30},
		}),
		simulation: f.NewGauge(prometheus.GaugeOpts{
			Name: "titanium_simulation_active",
			Help: "1 while the offline simulator feeds the desk",
		}),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "titanium_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "titanium_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	// every type/source pair is exported from the start, at zero
	for _, t := range models.EventTypes {
		for _, src := range eventSources {
			r.eventsTotal.WithLabelValues(string(t), src)
		}
	}
	return r
}

// RecordEvent counts one folded event.
func (r *Recorder) RecordEvent(eventType, source string) {
	r.eventsTotal.WithLabelValues(eventType, source).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordUplinkState flips the state gauge to s.
func (r *Recorder) RecordUplinkState(s models.LinkState) {
	for _, st := range linkStates {
		v := 0.0
		if st == s {
			v = 1
		}
		r.uplinkState.WithLabelValues(string(st)).Set(v)
	}
}

func (r *Recorder) RecordReconnect(delay time.Duration) {
	r.reconnects.Inc()
	r.reconnectDelay.Observe(delay.Seconds())
}

func (r *Recorder) RecordSimulation(active bool) {
	if active {
		r.simulation.Set(1)
		return
	}
	r.simulation.Set(0)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordEvent(string, string)         {}
func (Nop) RecordError(string)                 {}
func (Nop) RecordUplinkState(models.LinkState) {}
func (Nop) RecordReconnect(time.Duration)      {}
func (Nop) RecordSimulation(bool)              {}
func (Nop) RecordLastPrice(string, float64)    {}
func (Nop) RecordLatency(string, float64)      {}
