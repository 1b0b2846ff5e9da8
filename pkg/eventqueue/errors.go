package eventqueue

import "errors"

var (
	// ErrQueueFull is returned by Push when the configured depth is
	// exceeded. The event is dropped and counted.
	ErrQueueFull = errors.New("eventqueue: queue is full")

	// ErrQueueClosed is returned by Push and Wait after Close.
	ErrQueueClosed = errors.New("eventqueue: queue is closed")
)
