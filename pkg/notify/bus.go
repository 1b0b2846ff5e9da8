package notify

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscriber receives messages from a Bus. Close releases the subscription;
// after Close the channel is closed and no more messages arrive. Close is
// idempotent.
type Subscriber[T any] struct {
	id     uuid.UUID
	ch     chan T
	bus    *Bus[T]
	closed bool
	mu     sync.Mutex
}

// ID returns the subscription token.
func (s *Subscriber[T]) ID() uuid.UUID { return s.id }

// C returns the receive channel.
func (s *Subscriber[T]) C() <-chan T { return s.ch }

// Close releases the subscription and closes the receive channel.
func (s *Subscriber[T]) Close() {
	if s.bus != nil {
		s.bus.unsubscribe(s.id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

// send delivers non-blocking; a full buffer drops the message and counts it.
func (s *Subscriber[T]) send(msg T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// Bus fans messages out to subscribers without ever blocking the
// publisher. All methods are safe for concurrent use.
type Bus[T any] struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*Subscriber[T]
	bufferSize  int
	dropped     atomic.Uint64
	closed      bool
}

// NewBus creates a bus. Each subscriber gets a buffered channel of
// bufferSize; a minimum of 1 is enforced so sends stay non-blocking.
func NewBus[T any](bufferSize int) *Bus[T] {
	return &Bus[T]{
		subscribers: make(map[uuid.UUID]*Subscriber[T]),
		bufferSize:  max(bufferSize, 1),
	}
}

// Subscribe registers a new subscriber. On a closed bus the returned
// subscriber is already closed.
func (b *Bus[T]) Subscribe() *Subscriber[T] {
	sub := &Subscriber[T]{
		id: uuid.New(),
		ch: make(chan T, b.bufferSize),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		sub.closed = true
		return sub
	}
	sub.bus = b
	b.subscribers[sub.id] = sub
	return sub
}

// Publish delivers msg to every subscriber, dropping it for any whose
// buffer is full. Never blocks.
func (b *Bus[T]) Publish(msg T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, sub := range b.subscribers {
		if !sub.send(msg) {
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of messages dropped for slow subscribers.
func (b *Bus[T]) Dropped() uint64 {
	return b.dropped.Load()
}

// Len returns the number of active subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts the bus down and closes all subscribers. Idempotent.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscriber[T], 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		sub.bus = nil // avoid re-entrant unsubscribe
		subs = append(subs, sub)
	}
	clear(b.subscribers)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (b *Bus[T]) unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}
