// Package engine executes finite-state machines for long-running process
// control. It turns discrete events into validated state transitions and
// isolates failures so a single bad predicate or subscriber never halts the
// controlled process.
//
// An Engine owns one machine instance: its current state, context, bounded
// priority event queue and error controller. Any number of producers submit
// events concurrently via Send; a single dispatch goroutine consumes them
// in (priority desc, submission order asc) order, so no instance ever
// processes two events at once. Pause suspends dispatch while submissions
// keep queueing; Resume continues it.
//
//	table := fsm.MustNew("IDLE",
//	    fsm.WithState("IDLE", fsm.WithTransition("START", "RUNNING")),
//	    fsm.WithState("RUNNING", fsm.WithTransition("STOP", "IDLE")),
//	)
//
//	eng := engine.MustNew(table,
//	    engine.WithContext(fsm.NewContext(fsm.WithService("robot", robot))),
//	)
//	if err := eng.Start(ctx); err != nil { ... }
//	defer eng.Stop()
//
//	_ = eng.SendEvent("START")
//
// # Transition unit
//
// Every event is processed as one non-interleavable unit: guard check, exit
// validation of the current state, transition resolution, entry validation
// of the target, commit. A failing step produces exactly one ErrorRecord
// from the fixed code taxonomy and leaves the machine in its prior state;
// the externally visible state has always passed both validations.
//
// # Error handling
//
// Recoverable errors keep the machine running in degraded mode. A fatal
// error moves it into the FAULT sub-state, where only the explicit reset
// event (Reset) is accepted. Per-error-code circuit breakers fast-fail
// repeatedly failing operations without re-executing them; error callbacks
// run synchronously with panic isolation. Producers never receive
// transition errors synchronously - Send only reports backpressure and
// shutdown - and observe everything else through callbacks, ErrorStats and
// ActiveErrors.
//
// # Timers
//
// A state's entry timeout injects a synthetic high-priority event on
// expiry. Timeout events are tagged with the state generation they were
// armed for; a timer firing after the state was already left is dropped.
//
// # Collaborators
//
// Metrics and notification collaborators are narrow fire-and-forget
// interfaces. The engine swallows their panics and never blocks dispatch on
// them; see pkg/notify for a non-blocking bus implementation.
package engine
