package events

import "time"

// Event is a domain fact recorded by an aggregate and published after commit.
type Event interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects pending events; aggregates embed it.
type EventRecorder struct {
	pending []Event
}

// Record appends an event to the pending list.
func (r *EventRecorder) Record(ev Event) {
	r.pending = append(r.pending, ev)
}

// PendingEvents returns events recorded since the last clear.
func (r *EventRecorder) PendingEvents() []Event {
	return r.pending
}

// ClearEvents drops the pending list, typically after handing events to the outbox.
func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
