package engine

import (
	"log/slog"

	"github.com/robocell/fsm/pkg/fsm"
)

// Option configures an engine during construction.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg.withDefaults() }
}

// WithContext supplies the machine context. Use this to inject services and
// seed data; the engine creates an empty context otherwise.
func WithContext(ctx *fsm.Context) Option {
	return func(e *Engine) {
		if ctx != nil {
			e.fctx = ctx
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics collaborator.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithNotifier sets the notification collaborator.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithPool attaches a shared dispatch pool bounding concurrency across
// engine instances.
func WithPool(p *Pool) Option {
	return func(e *Engine) { e.pool = p }
}
