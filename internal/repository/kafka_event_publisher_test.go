package repository

import (
	"context"
	"encoding/json"
	"testing"

	"TitaniumDesk/internal/domain/models"
	pkgkafka "TitaniumDesk/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

type memWriter struct{ msgs []kafka.Message }

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestPublishKeysByEventType(t *testing.T) {
	w := &memWriter{}
	producer, err := pkgkafka.NewProducer(pkgkafka.WithWriter(w), pkgkafka.WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("producer: %v", err)
	}
	pub := NewKafkaEventPublisher(producer, "desk.uplink.events")

	ev := models.TickerEvent(models.Ticker{Symbol: "XAU/USD", Price: 2040.5})
	if err := pub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != "desk.uplink.events" || string(msg.Key) != "TICKER" {
		t.Fatalf("unexpected routing %s/%s", msg.Topic, msg.Key)
	}

	decoded, err := models.DecodeEvent(msg.Value)
	if err != nil {
		t.Fatalf("published value must be a valid frame: %v", err)
	}
	if decoded.Ticker == nil || decoded.Ticker.Price != 2040.5 {
		t.Fatalf("unexpected payload %+v", decoded)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(msg.Value, &raw); err != nil || raw["type"] == nil || raw["data"] == nil {
		t.Fatalf("expected {type,data} envelope, got %s", msg.Value)
	}
}
