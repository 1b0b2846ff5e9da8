package engine

// Pool bounds concurrent event dispatch across independent engine
// instances sharing it. Each instance still processes its own events
// serially; the pool only limits how many instances dispatch at once, so a
// fleet of machines can be throttled to a fixed number of workers.
type Pool struct {
	sem chan struct{}
}

// NewPool creates a pool admitting size concurrent dispatches. Non-positive
// sizes fall back to 1.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Size returns the pool capacity.
func (p *Pool) Size() int { return cap(p.sem) }

func (p *Pool) acquire() { p.sem <- struct{}{} }
func (p *Pool) release() { <-p.sem }
