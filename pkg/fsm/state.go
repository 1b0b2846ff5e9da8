package fsm

import (
	"fmt"
	"sort"
	"time"
)

// DefaultTimeoutEvent is the synthetic event injected when a state's entry
// timeout expires, unless the state overrides it.
const DefaultTimeoutEvent = "TIMEOUT"

// ConditionalTransition is a prioritized, predicate-guarded alternative to a
// static transition target. For one (state, event) pair conditional
// transitions are evaluated strictly by descending priority, declaration
// order breaking ties; the first true predicate wins.
type ConditionalTransition struct {
	Target      string
	Priority    int
	Description string
	Predicate   Predicate
}

// State is a named process condition with entry/exit validations, outgoing
// transitions and event-scoped guards. Immutable once the owning Table is
// built.
type State struct {
	name           string
	timeout        time.Duration
	timeoutEvent   string
	preconditions  []Condition
	postconditions []Condition
	transitions    map[string]string
	conditional    map[string][]ConditionalTransition
	guards         map[string]Predicate
}

// StateOption configures a state declaration.
type StateOption func(*State) error

// Name returns the state name.
func (s *State) Name() string { return s.name }

// Timeout returns the entry timeout, zero when none is configured.
func (s *State) Timeout() time.Duration { return s.timeout }

// TimeoutEvent returns the event name injected when the entry timeout expires.
func (s *State) TimeoutEvent() string { return s.timeoutEvent }

// HasMapping reports whether any transition, static or conditional, exists
// for the event. Guard checks apply only when this returns true.
func (s *State) HasMapping(event string) bool {
	if _, ok := s.transitions[event]; ok {
		return true
	}
	return len(s.conditional[event]) > 0
}

// Events returns the event names the state reacts to, sorted.
func (s *State) Events() []string {
	seen := make(map[string]struct{}, len(s.transitions)+len(s.conditional))
	for evt := range s.transitions {
		seen[evt] = struct{}{}
	}
	for evt := range s.conditional {
		seen[evt] = struct{}{}
	}
	events := make([]string, 0, len(seen))
	for evt := range seen {
		events = append(events, evt)
	}
	sort.Strings(events)
	return events
}

// GuardAllows evaluates the event-scoped guard, if any. A missing guard
// allows. A panicking guard is reported as an EvaluationError and treated
// as a rejection by callers.
func (s *State) GuardAllows(event string, ctx *Context) (allowed bool, err error) {
	guard, ok := s.guards[event]
	if !ok || guard == nil {
		return true, nil
	}

	defer func() {
		if v := recover(); v != nil {
			allowed = false
			err = &EvaluationError{State: s.name, Event: event, Description: "guard", Value: v}
		}
	}()

	return guard(ctx), nil
}

// Resolve returns the target state for the event: the static mapping wins
// if present, otherwise the first conditional transition whose predicate
// holds, in descending priority order. ok is false when the event resolves
// to a no-op. A panicking predicate aborts resolution with an
// EvaluationError.
func (s *State) Resolve(event string, ctx *Context) (target string, ok bool, err error) {
	if target, ok := s.transitions[event]; ok {
		return target, true, nil
	}

	for _, ct := range s.conditional[event] {
		holds, err := evalPredicate(s.name, event, ct, ctx)
		if err != nil {
			return "", false, err
		}
		if holds {
			return ct.Target, true, nil
		}
	}

	return "", false, nil
}

func evalPredicate(state, event string, ct ConditionalTransition, ctx *Context) (holds bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			holds = false
			err = &EvaluationError{State: state, Event: event, Description: ct.Description, Value: v}
		}
	}()

	if ct.Predicate == nil {
		return false, nil
	}
	return ct.Predicate(ctx), nil
}

// ValidateEntry runs the ordered precondition list. With failFast set the
// first failure ends the run; otherwise failures are aggregated in order.
func (s *State) ValidateEntry(ctx *Context, failFast bool) ValidationResult {
	return runConditions(s.preconditions, ctx, failFast)
}

// ValidateExit runs the ordered postcondition list symmetrically.
func (s *State) ValidateExit(ctx *Context, failFast bool) ValidationResult {
	return runConditions(s.postconditions, ctx, failFast)
}

// WithTransition declares a static event-to-target transition.
func WithTransition(event, target string) StateOption {
	return func(s *State) error {
		if event == "" || target == "" {
			return fmt.Errorf("fsm: state %q: transition event and target cannot be empty", s.name)
		}
		if existing, ok := s.transitions[event]; ok {
			return fmt.Errorf("fsm: state %q: event %q already mapped to %q", s.name, event, existing)
		}
		s.transitions[event] = target
		return nil
	}
}

// WithConditional declares a conditional transition for the event.
// Declaration order is preserved among equal priorities.
func WithConditional(event string, ct ConditionalTransition) StateOption {
	return func(s *State) error {
		if event == "" || ct.Target == "" {
			return fmt.Errorf("fsm: state %q: conditional event and target cannot be empty", s.name)
		}
		if ct.Predicate == nil {
			return fmt.Errorf("%w: state %q event %q", ErrNilPredicate, s.name, event)
		}
		s.conditional[event] = append(s.conditional[event], ct)
		return nil
	}
}

// WithGuard attaches an event-scoped guard predicate. A false guard makes
// the event a silent no-op.
func WithGuard(event string, guard Predicate) StateOption {
	return func(s *State) error {
		if event == "" {
			return fmt.Errorf("fsm: state %q: guard event cannot be empty", s.name)
		}
		if guard == nil {
			return fmt.Errorf("%w: state %q guard for event %q", ErrNilPredicate, s.name, event)
		}
		s.guards[event] = guard
		return nil
	}
}

// WithPrecondition appends an entry condition, preserving order.
func WithPrecondition(cond Condition) StateOption {
	return func(s *State) error {
		if cond.Check == nil {
			return fmt.Errorf("%w: state %q precondition %q", ErrNilPredicate, s.name, cond.Code)
		}
		s.preconditions = append(s.preconditions, cond)
		return nil
	}
}

// WithPostcondition appends an exit condition, preserving order.
func WithPostcondition(cond Condition) StateOption {
	return func(s *State) error {
		if cond.Check == nil {
			return fmt.Errorf("%w: state %q postcondition %q", ErrNilPredicate, s.name, cond.Code)
		}
		s.postconditions = append(s.postconditions, cond)
		return nil
	}
}

// WithTimeout sets the entry timeout. On expiry the engine injects the
// state's timeout event at maximum priority.
func WithTimeout(d time.Duration) StateOption {
	return func(s *State) error {
		if d < 0 {
			return fmt.Errorf("fsm: state %q: timeout cannot be negative", s.name)
		}
		s.timeout = d
		return nil
	}
}

// WithTimeoutEvent overrides the synthetic event name injected on timeout.
func WithTimeoutEvent(event string) StateOption {
	return func(s *State) error {
		if event == "" {
			return fmt.Errorf("fsm: state %q: timeout event cannot be empty", s.name)
		}
		s.timeoutEvent = event
		return nil
	}
}

func newState(name string, opts ...StateOption) (*State, error) {
	if name == "" {
		return nil, ErrEmptyStateName
	}

	s := &State{
		name:         name,
		timeoutEvent: DefaultTimeoutEvent,
		transitions:  make(map[string]string),
		conditional:  make(map[string][]ConditionalTransition),
		guards:       make(map[string]Predicate),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	// Stable sort keeps declaration order among equal priorities.
	for _, list := range s.conditional {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority > list[j].Priority
		})
	}

	return s, nil
}
