package events

// EventCollector buffers the events an aggregate raises until the use case
// that changed it hands them to a publisher.
type EventCollector struct {
	pending []DomainEvent
}

// Record buffers evts in the order they were raised.
func (c *EventCollector) Record(evts ...DomainEvent) {
	c.pending = append(c.pending, evts...)
}

// Events returns the buffered events. The buffer is left untouched.
func (c *EventCollector) Events() []DomainEvent {
	return c.pending
}

// ClearEvents drains the buffer.
func (c *EventCollector) ClearEvents() []DomainEvent {
	drained := c.pending
	c.pending = nil
	return drained
}
