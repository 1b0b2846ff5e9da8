// Package eventqueue provides the bounded, thread-safe priority queue
// feeding a state machine's dispatch loop.
//
// Ordering is deterministic: higher priority first, submission order
// breaking ties among equal priorities. Push is callable concurrently from
// any number of producers and never blocks beyond a brief internal lock;
// when the configured depth is exceeded it fails with ErrQueueFull and the
// drop is counted, giving producers explicit backpressure. Wait blocks a
// single consumer until an event arrives or the context is done.
//
//	q := eventqueue.New(1024)
//	if err := q.Push(fsm.NewEvent("START")); err != nil { ... }
//
//	evt, err := q.Wait(ctx)
package eventqueue
