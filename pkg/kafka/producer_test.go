package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(WithRegisterer(prometheus.NewRegistry())); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("expected ErrNoBrokers, got %v", err)
	}
}

func TestPublishEncodesAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := &memWriter{}
	p, err := NewProducer(WithWriter(w), WithRegisterer(reg))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := p.Publish(context.Background(), "events", []byte("TICKER"), map[string]any{"price": 1.5}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.PublishMessage(context.Background(), "digest", []byte("raw")); err != nil {
		t.Fatalf("publish message: %v", err)
	}

	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Value) != `{"price":1.5}` || string(w.msgs[0].Key) != "TICKER" || w.msgs[0].Topic != "events" {
		t.Fatalf("unexpected message %+v", w.msgs[0])
	}
	if got := testutil.ToFloat64(p.metrics.msgs.WithLabelValues("events", "snappy", "ok")); got != 1 {
		t.Fatalf("expected one ok publish, got %v", got)
	}

	w.err = errors.New("broker down")
	if err := p.PublishMessage(context.Background(), "digest", []byte("x")); err == nil {
		t.Fatalf("expected error")
	}
	if got := testutil.ToFloat64(p.metrics.msgs.WithLabelValues("digest", "snappy", "error")); got != 1 {
		t.Fatalf("expected one failed publish, got %v", got)
	}
}
