package engine

import (
	"log/slog"
	"time"
)

// MetricsRecorder is the narrow interface to an external metrics
// collaborator. Calls are fire-and-forget: the engine swallows panics and
// implementations must never block.
type MetricsRecorder interface {
	RecordTransition(from, to string, duration time.Duration)
	RecordError(code, state string)
}

// Transition is the payload published to the notification collaborator on
// every commit.
type Transition struct {
	From  string
	To    string
	Event string
	Time  time.Time
}

// ErrorNotice is the payload published on every captured error record.
type ErrorNotice struct {
	Code     string
	State    string
	Snapshot map[string]any
	Time     time.Time
}

// Notifier is the narrow interface to an external notification bus.
// Publishes are non-blocking best-effort; a slow or failing subscriber must
// never stall dispatch.
type Notifier interface {
	PublishTransition(t Transition)
	PublishError(n ErrorNotice)
}

type noopMetrics struct{}

func (noopMetrics) RecordTransition(string, string, time.Duration) {}
func (noopMetrics) RecordError(string, string)                     {}

type noopNotifier struct{}

func (noopNotifier) PublishTransition(Transition) {}
func (noopNotifier) PublishError(ErrorNotice)     {}

// SlogMetrics records transitions and errors as structured log lines, for
// deployments without a metrics backend.
type SlogMetrics struct {
	Logger *slog.Logger
}

func (m SlogMetrics) RecordTransition(from, to string, duration time.Duration) {
	m.Logger.Debug("transition recorded",
		slog.String("from", from),
		slog.String("to", to),
		slog.Duration("duration", duration))
}

func (m SlogMetrics) RecordError(code, state string) {
	m.Logger.Debug("error recorded",
		slog.String("code", code),
		slog.String("state", state))
}

// safeRecordTransition shields dispatch from a misbehaving collaborator.
func safeRecordTransition(m MetricsRecorder, from, to string, d time.Duration) {
	defer func() { _ = recover() }()
	m.RecordTransition(from, to, d)
}

func safeRecordError(m MetricsRecorder, code, state string) {
	defer func() { _ = recover() }()
	m.RecordError(code, state)
}

func safePublishTransition(n Notifier, t Transition) {
	defer func() { _ = recover() }()
	n.PublishTransition(t)
}

func safePublishError(n Notifier, notice ErrorNotice) {
	defer func() { _ = recover() }()
	n.PublishError(notice)
}
