package engine

import "errors"

var (
	// ErrEngineStopped is returned by Send once stop has been requested.
	// Already-queued events are still drained per the shutdown grace.
	ErrEngineStopped = errors.New("engine: engine is stopped")

	// ErrAlreadyStarted is returned by Start on a running engine.
	ErrAlreadyStarted = errors.New("engine: engine already started")

	// ErrNotStarted is returned by Stop on an engine that never started.
	ErrNotStarted = errors.New("engine: engine not started")

	// ErrNilTable is returned when an engine is built without a table.
	ErrNilTable = errors.New("engine: state table cannot be nil")

	// ErrInitialValidation is returned by Start when the initial state's
	// entry validation fails.
	ErrInitialValidation = errors.New("engine: initial state entry validation failed")
)
