package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

type sampleEvent struct {
	BaseEvent
	Amount int `json:"amount"`
}

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()

	before := time.Now().UTC()
	event := NewBaseEvent("lending.model.trained", aggregateID, "TrainingRun")
	after := time.Now().UTC()

	if event.EventID() == uuid.Nil {
		t.Error("expected non-nil event ID")
	}
	if event.EventType() != "lending.model.trained" {
		t.Errorf("expected event type %q, got %q", "lending.model.trained", event.EventType())
	}
	if event.AggregateID() != aggregateID {
		t.Errorf("expected aggregate ID %v, got %v", aggregateID, event.AggregateID())
	}
	if event.AggregateType() != "TrainingRun" {
		t.Errorf("expected aggregate type %q, got %q", "TrainingRun", event.AggregateType())
	}
	if event.OccurredAt().Before(before) || event.OccurredAt().After(after) {
		t.Errorf("expected occurredAt between %v and %v, got %v", before, after, event.OccurredAt())
	}
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
	var _ DomainEvent = sampleEvent{}
}

func TestMarshal(t *testing.T) {
	evt := sampleEvent{
		BaseEvent: NewBaseEvent("sample.created", uuid.New(), "Sample"),
		Amount:    42,
	}

	payload, err := Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("expected valid JSON envelope, got error: %v", err)
	}
	if env.ID != evt.EventID() {
		t.Errorf("expected event ID %v, got %v", evt.EventID(), env.ID)
	}
	if env.Type != "sample.created" {
		t.Errorf("expected event type %q, got %q", "sample.created", env.Type)
	}

	var data map[string]any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("expected valid JSON data, got error: %v", err)
	}
	if data["amount"] != float64(42) {
		t.Errorf("expected amount 42 in data, got %v", data["amount"])
	}
}

func TestEventCollectorRecord(t *testing.T) {
	collector := &EventCollector{}
	aggregateID := uuid.New()

	collector.Record(NewBaseEvent("Event1", aggregateID, "Aggregate"))
	collector.Record(NewBaseEvent("Event2", aggregateID, "Aggregate"))

	events := collector.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType() != "Event1" {
		t.Errorf("expected first event type %q, got %q", "Event1", events[0].EventType())
	}
	if events[1].EventType() != "Event2" {
		t.Errorf("expected second event type %q, got %q", "Event2", events[1].EventType())
	}
}

func TestEventCollectorClearEvents(t *testing.T) {
	collector := &EventCollector{}
	collector.Record(NewBaseEvent("Event1", uuid.New(), "Aggregate"))
	collector.Record(NewBaseEvent("Event2", uuid.New(), "Aggregate"))

	cleared := collector.ClearEvents()
	if len(cleared) != 2 {
		t.Fatalf("expected ClearEvents to return 2 events, got %d", len(cleared))
	}
	if len(collector.Events()) != 0 {
		t.Errorf("expected internal slice to be empty after ClearEvents, got %d events", len(collector.Events()))
	}
	if again := collector.ClearEvents(); again != nil {
		t.Errorf("expected nil from ClearEvents on empty collector, got %v", again)
	}
}

func TestNewOutboxEntry(t *testing.T) {
	event := sampleEvent{
		BaseEvent: NewBaseEvent("lending.model.trained", uuid.New(), "TrainingRun"),
		Amount:    7,
	}

	entry, err := NewOutboxEntry(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID != event.EventID() || entry.AggregateID != event.AggregateID() {
		t.Errorf("entry ids %v/%v do not match the event", entry.ID, entry.AggregateID)
	}
	if entry.EventType != "lending.model.trained" || entry.AggregateType != "TrainingRun" {
		t.Errorf("unexpected entry types %q/%q", entry.EventType, entry.AggregateType)
	}
	if !entry.CreatedAt.Equal(event.OccurredAt()) {
		t.Errorf("expected created at %v, got %v", event.OccurredAt(), entry.CreatedAt)
	}
	if entry.PublishedAt != nil {
		t.Error("a new entry is unpublished")
	}

	var env Envelope
	if err := json.Unmarshal(entry.Payload, &env); err != nil {
		t.Fatalf("payload is not an envelope: %v", err)
	}
	if env.ID != event.EventID() {
		t.Errorf("expected envelope id %v, got %v", event.EventID(), env.ID)
	}
	if string(env.Data) != `{"amount":7}` {
		t.Errorf("unexpected envelope data %s", env.Data)
	}
}
