package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"TitaniumDesk/internal/domain/models"
	drepo "TitaniumDesk/internal/domain/repository"
	pkgkafka "TitaniumDesk/pkg/kafka"
)

// KafkaEventPublisher republishes uplink events to one topic, keyed by event type.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) drepo.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev models.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	return p.producer.Publish(ctx, p.topic, []byte(ev.Type), b)
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
