package messaging

import (
	"log/slog"

	"github.com/bibbank/loan-approval/internal/domain/port"
	pkgkafka "github.com/bibbank/loan-approval/pkg/kafka"
)

// NewEventPublisher returns a Kafka publisher when brokers are configured and
// a LogEventPublisher otherwise. The returned close function releases the producer.
func NewEventPublisher(cfg pkgkafka.Config, topic string, logger *slog.Logger) (port.EventPublisher, func() error, error) {
	if len(cfg.Brokers) == 0 {
		logger.Info("no Kafka brokers configured, domain events are logged only")
		return NewLogEventPublisher(logger), func() error { return nil }, nil
	}

	producer, err := pkgkafka.NewProducer(cfg)
	if err != nil {
		return nil, nil, err
	}
	pub := NewKafkaEventPublisher(producer, topic, logger)
	logger.Info("publishing domain events to Kafka", "brokers", cfg.Brokers, "topic", pub.topic)
	return pub, producer.Close, nil
}
