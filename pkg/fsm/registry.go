package fsm

import (
	"fmt"
	"sync"
)

// Registry maps names to predicates and conditions so tables defined in
// YAML documents can reference behavior declared in code. Safe for
// concurrent use, though registration normally happens once at startup.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
	conditions map[string]Condition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		predicates: make(map[string]Predicate),
		conditions: make(map[string]Condition),
	}
}

// RegisterPredicate registers a named predicate for use as a guard or
// conditional transition predicate.
func (r *Registry) RegisterPredicate(name string, p Predicate) error {
	if name == "" {
		return fmt.Errorf("fsm: predicate name cannot be empty")
	}
	if p == nil {
		return fmt.Errorf("%w: %q", ErrNilPredicate, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.predicates[name] = p
	return nil
}

// RegisterCondition registers a condition keyed by its code for use as a
// precondition or postcondition.
func (r *Registry) RegisterCondition(cond Condition) error {
	if cond.Code == "" {
		return fmt.Errorf("fsm: condition code cannot be empty")
	}
	if cond.Check == nil {
		return fmt.Errorf("%w: condition %q", ErrNilPredicate, cond.Code)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions[cond.Code] = cond
	return nil
}

// Predicate returns the named predicate.
func (r *Registry) Predicate(name string) (Predicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.predicates[name]
	return p, ok
}

// Condition returns the condition registered under code.
func (r *Registry) Condition(code string) (Condition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conditions[code]
	return c, ok
}
