package engine

import (
	"time"

	"github.com/robocell/fsm/pkg/breaker"
)

// Config holds engine tuning. Loadable from the environment via pkg/config.
type Config struct {
	// MaxQueueDepth bounds the event queue; submissions beyond it fail
	// with explicit backpressure.
	MaxQueueDepth int `env:"FSM_MAX_QUEUE_DEPTH" envDefault:"1024"`

	// WorkerPoolSize bounds concurrent dispatch across engine instances
	// sharing a Pool. A single instance always processes serially.
	WorkerPoolSize int `env:"FSM_WORKER_POOL_SIZE" envDefault:"4"`

	// ShutdownGrace is how long Stop keeps draining queued events before
	// discarding the remainder.
	ShutdownGrace time.Duration `env:"FSM_SHUTDOWN_GRACE" envDefault:"5s"`

	// FailFastValidation stops a validation run at the first failure
	// instead of aggregating all failures.
	FailFastValidation bool `env:"FSM_FAIL_FAST_VALIDATION" envDefault:"false"`

	// RecordUnknownEvents records UNKNOWN_EVENT errors instead of silently
	// ignoring events with no mapping.
	RecordUnknownEvents bool `env:"FSM_RECORD_UNKNOWN_EVENTS" envDefault:"false"`

	// ErrorHistorySize bounds the retained error history; oldest records
	// are evicted first.
	ErrorHistorySize int `env:"FSM_ERROR_HISTORY_SIZE" envDefault:"256"`

	// HistorySize bounds the retained transition history.
	HistorySize int `env:"FSM_HISTORY_SIZE" envDefault:"512"`

	// Breaker configures the per-error-code circuit breakers.
	Breaker breaker.Config `envPrefix:"FSM_BREAKER_"`
}

// DefaultConfig returns the defaults used when no configuration is supplied.
func DefaultConfig() Config {
	return Config{
		MaxQueueDepth:    1024,
		WorkerPoolSize:   4,
		ShutdownGrace:    5 * time.Second,
		ErrorHistorySize: 256,
		HistorySize:      512,
		Breaker: breaker.Config{
			FailureThreshold: 5,
			Window:           60 * time.Second,
			Cooldown:         30 * time.Second,
		},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = d.MaxQueueDepth
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = d.WorkerPoolSize
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = d.ShutdownGrace
	}
	if c.ErrorHistorySize <= 0 {
		c.ErrorHistorySize = d.ErrorHistorySize
	}
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	return c
}
