// Package breaker implements a per-error-code circuit breaker with
// sliding-window failure counting.
//
// A Breaker moves CLOSED -> OPEN after a configured number of failures
// within a sliding time window, OPEN -> HALF_OPEN once a cooldown elapses,
// and HALF_OPEN -> CLOSED on a successful trial or back to OPEN on a failed
// one. While OPEN, Allow fast-fails so the protected operation is not
// re-executed.
//
// A Registry lazily creates one Breaker per error code with shared
// configuration, which is how an error controller keeps independent
// policies per failure class:
//
//	reg := breaker.NewRegistry(breaker.Config{
//	    FailureThreshold: 3,
//	    Window:           time.Minute,
//	    Cooldown:         30 * time.Second,
//	})
//
//	b := reg.Get("PRECONDITION_FAILED")
//	if !b.Allow() {
//	    // fast-fail without re-executing
//	}
//
// All types are safe for concurrent use. Time is read through an injectable
// clock so tests can drive window and cooldown expiry deterministically.
package breaker
