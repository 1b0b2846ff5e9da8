package fsm

import (
	"fmt"
	"sort"
)

// Table is the immutable build-time input of an execution engine: the full
// set of states, their transitions and validations, plus the initial state
// name. A Table validates its own referential integrity at construction so
// it can never route to an undefined state at runtime.
type Table struct {
	initial string
	states  map[string]*State
	globals map[string]string
}

// TableOption configures a table during construction.
type TableOption func(*Table) error

// WithState declares a state and its configuration.
func WithState(name string, opts ...StateOption) TableOption {
	return func(t *Table) error {
		if _, ok := t.states[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateState, name)
		}
		state, err := newState(name, opts...)
		if err != nil {
			return err
		}
		t.states[name] = state
		return nil
	}
}

// WithGlobalTransition declares a static transition that applies from any
// state whose own mapping does not cover the event, for events like an
// emergency stop that must work everywhere. Per-state mappings win.
func WithGlobalTransition(event, target string) TableOption {
	return func(t *Table) error {
		if event == "" || target == "" {
			return fmt.Errorf("fsm: global transition event and target cannot be empty")
		}
		if existing, ok := t.globals[event]; ok {
			return fmt.Errorf("fsm: global event %q already mapped to %q", event, existing)
		}
		t.globals[event] = target
		return nil
	}
}

// New builds an immutable table with the given initial state. It fails when
// the initial state is undeclared or any transition targets an undeclared
// state.
func New(initial string, opts ...TableOption) (*Table, error) {
	if initial == "" {
		return nil, ErrInitialStateUndefined
	}

	t := &Table{
		initial: initial,
		states:  make(map[string]*State),
		globals: make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew builds a table and panics on configuration errors, for tables
// declared at startup where misconfiguration should prevent boot.
func MustNew(initial string, opts ...TableOption) *Table {
	t, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("fsm: failed to build table: %v", err))
	}
	return t
}

// Initial returns the initial state name.
func (t *Table) Initial() string { return t.initial }

// GlobalTarget returns the table-wide target for the event, if one is
// declared.
func (t *Table) GlobalTarget(event string) (string, bool) {
	target, ok := t.globals[event]
	return target, ok
}

// State returns the named state.
func (t *Table) State(name string) (*State, bool) {
	s, ok := t.states[name]
	return s, ok
}

// StateNames returns all declared state names, sorted.
func (t *Table) StateNames() []string {
	names := make([]string, 0, len(t.states))
	for name := range t.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declared states.
func (t *Table) Len() int { return len(t.states) }

func (t *Table) validate() error {
	if _, ok := t.states[t.initial]; !ok {
		return fmt.Errorf("%w: %q", ErrInitialStateUndefined, t.initial)
	}

	for event, target := range t.globals {
		if _, ok := t.states[target]; !ok {
			return &ErrUndefinedTarget{State: "*", Event: event, Target: target}
		}
	}

	for name, state := range t.states {
		for event, target := range state.transitions {
			if _, ok := t.states[target]; !ok {
				return &ErrUndefinedTarget{State: name, Event: event, Target: target}
			}
		}
		for event, list := range state.conditional {
			for _, ct := range list {
				if _, ok := t.states[ct.Target]; !ok {
					return &ErrUndefinedTarget{State: name, Event: event, Target: ct.Target}
				}
			}
		}
	}
	return nil
}
