package repository

import (
	"context"
	"time"

	"TitaniumDesk/internal/domain/models"
)

// Uplink is the single connection to the trading backend's event stream.
type Uplink interface {
	Connect()
	Subscribe(handler func(models.Event)) (unsubscribe func())
	Send(msgType string, payload map[string]any)
	Stats() models.UplinkStats
	Close() error
}

// OrderGateway forwards manual overrides to the backend REST surface.
type OrderGateway interface {
	Force(ctx context.Context, side models.OrderSide) error
}

// EventPublisher republishes inbound events to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.Event) error
	Close() error
}

// SnapshotStore keeps the latest serialized desk snapshot.
type SnapshotStore interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

type Metrics interface {
	RecordEvent(eventType string, source string)
	RecordError(kind string)
	RecordUplinkState(state models.LinkState)
	RecordReconnect(delay time.Duration)
	RecordSimulation(active bool)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
