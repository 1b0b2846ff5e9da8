package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/robocell/fsm/pkg/fsm"
)

// ErrorRecord is one captured failure: what failed, where the machine was,
// and a copy of the context at capture time.
type ErrorRecord struct {
	ID        uuid.UUID
	Code      Code
	State     string
	Event     string
	Time      time.Time
	Snapshot  map[string]any
	Message   string
	Recovered bool

	// Validation carries the aggregated result for PRECONDITION_FAILED and
	// POSTCONDITION_FAILED records, nil otherwise.
	Validation *fsm.ValidationResult
}

// TransitionRecord is one committed transition.
type TransitionRecord struct {
	From     string
	To       string
	Event    string
	Time     time.Time
	Duration time.Duration
}

// ErrorStats summarizes the retained error history.
type ErrorStats struct {
	Total        uint64
	Recovered    uint64
	Fatal        uint64
	RecoveryRate float64
	PerCode      map[Code]uint64
}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	Status          string
	CurrentState    string
	Fault           bool
	Paused          bool
	EventsProcessed uint64
	Committed       uint64
	NoOps           uint64
	GuardRejected   uint64
	StaleDropped    uint64
	DrainDiscarded  uint64
	QueueDepth      int
	QueueDropped    uint64
	Uptime          time.Duration
}
