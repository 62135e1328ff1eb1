// Package messaging publishes domain events.
package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/loan-approval/internal/domain/port"
	"github.com/bibbank/loan-approval/pkg/events"
	pkgkafka "github.com/bibbank/loan-approval/pkg/kafka"
)

// DefaultTopic receives every lending event unless configured otherwise.
const DefaultTopic = "lending-events"

// MessageWriter is the part of pkg/kafka.Producer the publisher needs.
type MessageWriter interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// KafkaEventPublisher implements port.EventPublisher by writing enveloped events to Kafka.
type KafkaEventPublisher struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

var _ port.EventPublisher = (*KafkaEventPublisher)(nil)

// NewKafkaEventPublisher creates a publisher targeting the given producer and topic.
func NewKafkaEventPublisher(writer MessageWriter, topic string, logger *slog.Logger) *KafkaEventPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaEventPublisher{writer: writer, topic: topic, logger: logger}
}

// Publish serialises and sends domain events in one batch, keyed by aggregate.
func (p *KafkaEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	messages := make([]pkgkafka.Message, 0, len(evts))
	for _, evt := range evts {
		payload, err := events.Marshal(evt)
		if err != nil {
			return err
		}

		p.logger.DebugContext(ctx, "publishing domain event",
			"event_type", evt.EventType(),
			"aggregate_id", evt.AggregateID(),
			"topic", p.topic,
			"payload_size", len(payload),
		)

		messages = append(messages, pkgkafka.Message{
			Key:   []byte(evt.AggregateID().String()),
			Value: payload,
			Headers: map[string]string{
				"event_type":   evt.EventType(),
				"event_id":     evt.EventID().String(),
				"content-type": "application/json",
			},
		})
	}

	if len(messages) == 0 {
		return nil
	}

	if err := p.writer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events to topic %s: %w", p.topic, err)
	}
	return nil
}
