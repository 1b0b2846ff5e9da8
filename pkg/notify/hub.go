package notify

import (
	"github.com/robocell/fsm/pkg/engine"
)

// Hub bundles a transition bus and an error bus behind the engine's
// Notifier interface.
type Hub struct {
	transitions *Bus[engine.Transition]
	errors      *Bus[engine.ErrorNotice]
}

// NewHub creates a hub whose subscribers each buffer up to bufferSize
// messages.
func NewHub(bufferSize int) *Hub {
	return &Hub{
		transitions: NewBus[engine.Transition](bufferSize),
		errors:      NewBus[engine.ErrorNotice](bufferSize),
	}
}

// Transitions returns the bus carrying committed transitions.
func (h *Hub) Transitions() *Bus[engine.Transition] { return h.transitions }

// Errors returns the bus carrying captured error records.
func (h *Hub) Errors() *Bus[engine.ErrorNotice] { return h.errors }

// PublishTransition implements engine.Notifier.
func (h *Hub) PublishTransition(t engine.Transition) {
	h.transitions.Publish(t)
}

// PublishError implements engine.Notifier.
func (h *Hub) PublishError(n engine.ErrorNotice) {
	h.errors.Publish(n)
}

// Close shuts down both buses and all their subscribers.
func (h *Hub) Close() {
	h.transitions.Close()
	h.errors.Close()
}
