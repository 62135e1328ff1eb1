package messaging

import (
	"context"
	"log/slog"

	"github.com/bibbank/loan-approval/internal/domain/port"
	"github.com/bibbank/loan-approval/pkg/events"
)

// LogEventPublisher writes events to the log. It is used when no brokers are configured.
type LogEventPublisher struct {
	logger *slog.Logger
}

var _ port.EventPublisher = (*LogEventPublisher)(nil)

// NewLogEventPublisher creates a LogEventPublisher.
func NewLogEventPublisher(logger *slog.Logger) *LogEventPublisher {
	return &LogEventPublisher{logger: logger}
}

// Publish logs each event at info level.
func (p *LogEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	for _, evt := range evts {
		p.logger.InfoContext(ctx, "domain event",
			"event_type", evt.EventType(),
			"event_id", evt.EventID(),
			"aggregate_id", evt.AggregateID(),
			"occurred_at", evt.OccurredAt(),
		)
	}
	return nil
}
