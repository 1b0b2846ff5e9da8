package fsm

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStateName is returned when a state is declared without a name.
	ErrEmptyStateName = errors.New("fsm: state name cannot be empty")

	// ErrEmptyEventName is returned when an event is created without a name.
	ErrEmptyEventName = errors.New("fsm: event name cannot be empty")

	// ErrDuplicateState is returned when the same state name is declared twice.
	ErrDuplicateState = errors.New("fsm: duplicate state declaration")

	// ErrInitialStateUndefined is returned when the initial state is not declared.
	ErrInitialStateUndefined = errors.New("fsm: initial state is not defined")

	// ErrUnknownPredicate is returned by the loader when a YAML definition
	// references a predicate name that is not registered.
	ErrUnknownPredicate = errors.New("fsm: predicate is not registered")

	// ErrUnknownCondition is returned by the loader when a YAML definition
	// references a condition code that is not registered.
	ErrUnknownCondition = errors.New("fsm: condition is not registered")

	// ErrNilPredicate is returned when a nil predicate is registered or attached.
	ErrNilPredicate = errors.New("fsm: predicate cannot be nil")
)

// ErrUndefinedTarget indicates a transition points at a state that is not
// declared in the table. Raised at build time so a table can never route to
// a nonexistent state at runtime.
type ErrUndefinedTarget struct {
	State  string
	Event  string
	Target string
}

func (e *ErrUndefinedTarget) Error() string {
	return fmt.Sprintf("fsm: state %q transitions to undefined state %q on event %q", e.State, e.Target, e.Event)
}

// EvaluationError captures a panicking predicate during transition
// resolution or guard evaluation. It is reported to the caller instead of
// propagating the panic.
type EvaluationError struct {
	State       string
	Event       string
	Description string
	Value       any // recovered panic value
}

func (e *EvaluationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("fsm: predicate %q panicked in state %q on event %q: %v", e.Description, e.State, e.Event, e.Value)
	}
	return fmt.Sprintf("fsm: predicate panicked in state %q on event %q: %v", e.State, e.Event, e.Value)
}

// IsEvaluationError reports whether err is an EvaluationError.
func IsEvaluationError(err error) bool {
	var e *EvaluationError
	return errors.As(err, &e)
}
