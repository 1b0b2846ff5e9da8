package fsm

import (
	"fmt"
	"strings"
)

// Predicate evaluates a condition against the machine context. Predicates
// must be read-only with respect to the context.
type Predicate func(*Context) bool

// Condition is a named, coded predicate used as a state precondition or
// postcondition. Code and Field flow into the ValidationError produced when
// the check fails, so operators can trace a rejection back to the input
// that caused it.
type Condition struct {
	Code    string
	Field   string
	Message string
	Check   Predicate
}

// ValidationError is a single validation failure.
type ValidationError struct {
	Code    string
	Message string
	Field   string
}

func (e ValidationError) String() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Field, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (code: %s)", e.Message, e.Code)
}

// ValidationResult aggregates ordered errors and warnings from a validation
// run. The zero value is a passing result.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether validation passed.
func (r *ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// AddError appends a validation error, preserving order.
func (r *ValidationResult) AddError(code, message, field string) *ValidationResult {
	r.Errors = append(r.Errors, ValidationError{Code: code, Message: message, Field: field})
	return r
}

// AddWarning appends a validation warning, preserving order.
func (r *ValidationResult) AddWarning(code, message, field string) *ValidationResult {
	r.Warnings = append(r.Warnings, ValidationError{Code: code, Message: message, Field: field})
	return r
}

// Merge appends the errors and warnings of other, preserving the order of
// both results.
func (r *ValidationResult) Merge(other ValidationResult) *ValidationResult {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	return r
}

// Fields returns the distinct fields referenced by errors, in first-seen order.
func (r *ValidationResult) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, e := range r.Errors {
		if e.Field != "" && !seen[e.Field] {
			fields = append(fields, e.Field)
			seen[e.Field] = true
		}
	}
	return fields
}

func (r *ValidationResult) String() string {
	if r.OK() {
		return "validation passed"
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// runConditions evaluates an ordered condition list. With failFast set the
// first failure ends the run; otherwise all conditions are evaluated and
// failures aggregated in order. A panicking check counts as a failure and
// never escapes.
func runConditions(conditions []Condition, ctx *Context, failFast bool) ValidationResult {
	var result ValidationResult
	for _, cond := range conditions {
		if evalCondition(cond, ctx, &result); !result.OK() && failFast {
			break
		}
	}
	return result
}

func evalCondition(cond Condition, ctx *Context, result *ValidationResult) {
	defer func() {
		if v := recover(); v != nil {
			result.AddError(cond.Code, fmt.Sprintf("condition panicked: %v", v), cond.Field)
		}
	}()

	if cond.Check != nil && !cond.Check(ctx) {
		msg := cond.Message
		if msg == "" {
			msg = "condition failed"
		}
		result.AddError(cond.Code, msg, cond.Field)
	}
}
