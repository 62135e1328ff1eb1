package messaging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-approval/internal/domain/event"
	"github.com/bibbank/loan-approval/internal/infrastructure/messaging"
	"github.com/bibbank/loan-approval/pkg/events"
	pkgkafka "github.com/bibbank/loan-approval/pkg/kafka"
)

type mockWriter struct {
	topic    string
	messages []pkgkafka.Message
	err      error
}

func (m *mockWriter) Publish(_ context.Context, topic string, messages ...pkgkafka.Message) error {
	m.topic = topic
	m.messages = append(m.messages, messages...)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaEventPublisher_Publish(t *testing.T) {
	writer := &mockWriter{}
	pub := messaging.NewKafkaEventPublisher(writer, "", discardLogger())

	predictionID := uuid.New()
	evt := event.NewLoanDecisionMade(predictionID, "v1", "Approved", 0.12, 0.35)
	require.NoError(t, pub.Publish(context.Background(), evt))

	assert.Equal(t, messaging.DefaultTopic, writer.topic)
	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, predictionID.String(), string(msg.Key))
	assert.Equal(t, event.EventTypeLoanDecisionMade, msg.Headers["event_type"])
	assert.Equal(t, evt.EventID().String(), msg.Headers["event_id"])

	var env events.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, event.EventTypeLoanDecisionMade, env.Type)
	assert.Equal(t, predictionID, env.AggregateID)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Approved", data["decision"])
	assert.Equal(t, 0.12, data["probability_bad"])
}

func TestKafkaEventPublisher_NoEvents(t *testing.T) {
	writer := &mockWriter{}
	require.NoError(t, messaging.NewKafkaEventPublisher(writer, "lending", discardLogger()).Publish(context.Background()))
	assert.Empty(t, writer.topic, "nothing is written for an empty batch")
}

func TestKafkaEventPublisher_WriterError(t *testing.T) {
	writer := &mockWriter{err: errors.New("broker down")}
	pub := messaging.NewKafkaEventPublisher(writer, "lending", discardLogger())

	err := pub.Publish(context.Background(), event.NewModelTrained(uuid.New(), "v1", "/m.json", 0.8, 0.7, 80, 20))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lending")
}

func TestLogEventPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := messaging.NewLogEventPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, pub.Publish(context.Background(), event.NewModelTrained(uuid.New(), "v1", "/m.json", 0.8, 0.7, 80, 20)))
	assert.Contains(t, buf.String(), event.EventTypeModelTrained)
}

func TestNewEventPublisher(t *testing.T) {
	t.Run("no brokers", func(t *testing.T) {
		pub, closeFn, err := messaging.NewEventPublisher(pkgkafka.Config{}, "", discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &messaging.LogEventPublisher{}, pub)
		assert.NoError(t, closeFn())
	})

	t.Run("brokers", func(t *testing.T) {
		pub, closeFn, err := messaging.NewEventPublisher(pkgkafka.Config{Brokers: []string{"localhost:9092"}}, "loan-events", discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &messaging.KafkaEventPublisher{}, pub)
		assert.NoError(t, closeFn())
	})

	t.Run("bad sasl mechanism", func(t *testing.T) {
		_, _, err := messaging.NewEventPublisher(pkgkafka.Config{
			Brokers:       []string{"localhost:9092"},
			SASLMechanism: "GSSAPI",
		}, "", discardLogger())
		assert.Error(t, err)
	})
}
