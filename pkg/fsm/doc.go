// Package fsm provides the data model for a finite-state-machine execution
// engine driving long-running process control: immutable state tables,
// prioritized events, a concurrent-safe context, ordered validation and
// transition resolution.
//
// The package revolves around an immutable Table of States built once at
// startup. Each State carries a static event-to-target mapping, optional
// priority-ranked conditional transitions, event-scoped guard conditions and
// ordered entry/exit validation lists. The Table is the build-time input of
// an execution engine; this package never mutates state at runtime.
//
// # Building a table
//
//	table := fsm.MustNew("IDLE",
//	    fsm.WithState("IDLE",
//	        fsm.WithTransition("START", "RUNNING"),
//	    ),
//	    fsm.WithState("RUNNING",
//	        fsm.WithTransition("STOP", "IDLE"),
//	        fsm.WithPrecondition(fsm.Condition{
//	            Code:  "TEMP_LIMIT",
//	            Field: "temperature",
//	            Check: func(ctx *fsm.Context) bool {
//	                v, _ := ctx.Get("temperature")
//	                t, ok := v.(float64)
//	                return ok && t < 100
//	            },
//	        }),
//	    ),
//	)
//
// Tables can also be loaded from YAML documents via LoadTable, with
// predicates and conditions supplied by name through a Registry.
//
// # Resolution order
//
// For a given (state, event) pair the static mapping wins if present.
// Otherwise conditional transitions are evaluated in descending priority
// order, declaration order breaking ties, and the first true predicate wins.
// If neither yields a target the event resolves to a no-op.
//
// A table may additionally declare global transitions (WithGlobalTransition)
// for events like an emergency stop that must work from every state. A
// global transition applies only where the state's own mapping does not
// cover the event.
//
// # Concurrency
//
// Context is safe for concurrent use from any number of goroutines. States
// and Tables are immutable after construction and therefore safe to share.
// Predicates must treat the Context as read-only.
package fsm
