package engine

// Code identifies a failure class in the fixed error taxonomy. Every error
// captured at the controller boundary carries exactly one code.
type Code string

const (
	// CodeGuardRejected marks an event suppressed by a false guard. It is
	// informational: a guard rejection is a silent no-op, never an error
	// record.
	CodeGuardRejected Code = "GUARD_REJECTED"
	// CodePreconditionFailed marks a blocked entry validation; the machine
	// stays in its prior state.
	CodePreconditionFailed Code = "PRECONDITION_FAILED"
	// CodePostconditionFailed marks a blocked exit validation.
	CodePostconditionFailed Code = "POSTCONDITION_FAILED"
	// CodeTransitionEvaluationError marks a panicking transition or guard
	// predicate.
	CodeTransitionEvaluationError Code = "TRANSITION_EVALUATION_ERROR"
	// CodeUnknownEvent marks an event with no mapping at all in the
	// current state. Recording is configurable.
	CodeUnknownEvent Code = "UNKNOWN_EVENT"
	// CodeQueueFull marks an event dropped on submission backpressure.
	CodeQueueFull Code = "QUEUE_FULL"
	// CodeCircuitOpen marks an operation fast-failed by an open breaker
	// without re-execution.
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
	// CodeEngineStopped marks an event submitted after stop.
	CodeEngineStopped Code = "ENGINE_STOPPED"
	// CodeFatalInternal marks an unrecoverable engine failure. It forces
	// the FAULT sub-state; only an explicit reset leaves it.
	CodeFatalInternal Code = "FATAL_INTERNAL"
)

// Fatal reports whether the code forces the FAULT sub-state. All other
// codes are recoverable: the machine stays in its last good state and keeps
// accepting events.
func (c Code) Fatal() bool {
	return c == CodeFatalInternal
}

// breakerCodes are the failure classes gated by per-code circuit breakers.
// Submission-side codes (QUEUE_FULL, ENGINE_STOPPED) and informational ones
// are not breaker-managed.
var breakerCodes = []Code{
	CodePreconditionFailed,
	CodePostconditionFailed,
	CodeTransitionEvaluationError,
}
