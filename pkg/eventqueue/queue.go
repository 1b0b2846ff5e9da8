package eventqueue

import (
	"container/heap"
	"context"
	"sync"

	"github.com/robocell/fsm/pkg/fsm"
)

// DefaultMaxDepth bounds the queue when no depth is configured.
const DefaultMaxDepth = 1024

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Depth   int
	Pushed  uint64
	Popped  uint64
	Dropped uint64
}

// Queue is a bounded, thread-safe priority queue of events. Dequeue order
// is (priority desc, sequence asc).
type Queue struct {
	mu       sync.Mutex
	events   eventHeap
	maxDepth int
	closed   bool

	pushed  uint64
	popped  uint64
	dropped uint64

	// wake signals a blocked Wait that an event arrived or the queue
	// closed. Capacity 1: a single pending signal is enough for the one
	// logical consumer.
	wake chan struct{}
}

// New creates a queue bounded to maxDepth events. Non-positive depths fall
// back to DefaultMaxDepth.
func New(maxDepth int) *Queue {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Queue{
		events:   make(eventHeap, 0, min(maxDepth, 64)),
		maxDepth: maxDepth,
		wake:     make(chan struct{}, 1),
	}
}

// Push enqueues an event. It fails with ErrQueueFull when the queue is at
// depth, counting the drop, and with ErrQueueClosed after Close.
func (q *Queue) Push(evt fsm.Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if len(q.events) >= q.maxDepth {
		q.dropped++
		q.mu.Unlock()
		return ErrQueueFull
	}
	heap.Push(&q.events, evt)
	q.pushed++
	q.mu.Unlock()

	q.signal()
	return nil
}

// Pop removes and returns the next event without blocking.
func (q *Queue) Pop() (fsm.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return fsm.Event{}, false
	}
	evt := heap.Pop(&q.events).(fsm.Event)
	q.popped++
	return evt, true
}

// Wait blocks until an event is available, the context is done, or the
// queue is closed. Intended for a single logical consumer.
func (q *Queue) Wait(ctx context.Context) (fsm.Event, error) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			evt := heap.Pop(&q.events).(fsm.Event)
			q.popped++
			q.mu.Unlock()
			return evt, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return fsm.Event{}, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return fsm.Event{}, ctx.Err()
		case <-q.wake:
		}
	}
}

// Len returns the current depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drain removes all queued events, counting them as dropped, and returns
// how many were discarded.
func (q *Queue) Drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.events)
	q.events = q.events[:0]
	q.dropped += uint64(n)
	return n
}

// Close marks the queue closed. Pending events remain poppable; Push and
// Wait fail with ErrQueueClosed. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.signal()
}

// Stats returns a snapshot of queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Depth:   len(q.events),
		Pushed:  q.pushed,
		Popped:  q.popped,
		Dropped: q.dropped,
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// eventHeap orders events by (priority desc, sequence asc).
type eventHeap []fsm.Event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].Before(h[j]) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(fsm.Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	*h = old[:n-1]
	return evt
}
