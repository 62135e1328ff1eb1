package events

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEntry is a domain event staged in the outbox table, written in the
// same transaction as the aggregate that raised it.
type OutboxEntry struct {
	ID            uuid.UUID
	AggregateID   uuid.UUID
	AggregateType string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewOutboxEntry stages event. The payload is the same envelope the broker
// publisher sends.
func NewOutboxEntry(event DomainEvent) (OutboxEntry, error) {
	payload, err := Marshal(event)
	if err != nil {
		return OutboxEntry{}, err
	}
	return OutboxEntry{
		ID:            event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		EventType:     event.EventType(),
		Payload:       payload,
		CreatedAt:     event.OccurredAt(),
	}, nil
}
