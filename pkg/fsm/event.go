package fsm

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Priority represents event priority (0-100, higher is served first).
// Using int8 provides sufficient range while keeping memory footprint minimal.
type Priority int8

const (
	PriorityMin     Priority = 0
	PriorityLow     Priority = 25
	PriorityNormal  Priority = 50
	PriorityHigh    Priority = 75
	PriorityMax     Priority = 100
	PriorityDefault Priority = PriorityNormal
)

// Valid checks if the priority is within valid range.
func (p Priority) Valid() bool {
	return p >= PriorityMin && p <= PriorityMax
}

// sequence numbers events at creation so equal-priority events keep
// submission order through a priority queue.
var sequence atomic.Uint64

// Event is a named trigger with optional payload and priority. Events are
// value types; once created they are never mutated.
type Event struct {
	ID        uuid.UUID
	Name      string
	Payload   any
	Priority  Priority
	Seq       uint64
	CreatedAt time.Time

	// Epoch tags synthetic events (state entry timeouts) with the state
	// generation they were armed for. Zero means not epoch-scoped. A
	// dispatcher drops epoch-scoped events whose epoch no longer matches
	// the machine's current one.
	Epoch uint64
}

// EventOption configures an event during creation.
type EventOption func(*Event)

// WithPayload attaches an opaque payload to the event.
func WithPayload(payload any) EventOption {
	return func(e *Event) { e.Payload = payload }
}

// WithPriority sets the event priority. Out-of-range values are clamped.
func WithPriority(p Priority) EventOption {
	return func(e *Event) {
		e.Priority = min(max(p, PriorityMin), PriorityMax)
	}
}

// WithEpoch scopes the event to a state generation.
func WithEpoch(epoch uint64) EventOption {
	return func(e *Event) { e.Epoch = epoch }
}

// NewEvent creates an event with a fresh sequence number. The sequence is
// process-global and strictly increasing, which makes dequeue order
// deterministic for equal priorities.
func NewEvent(name string, opts ...EventOption) Event {
	e := Event{
		ID:        uuid.New(),
		Name:      name,
		Priority:  PriorityDefault,
		Seq:       sequence.Add(1),
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Before reports whether e should be dequeued before other: higher priority
// first, submission order breaking ties.
func (e Event) Before(other Event) bool {
	if e.Priority != other.Priority {
		return e.Priority > other.Priority
	}
	return e.Seq < other.Seq
}
