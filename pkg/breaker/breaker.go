package breaker

import (
	"sync"
	"time"
)

// State represents the current state of a circuit breaker.
type State int

const (
	// StateClosed allows operations to pass through.
	StateClosed State = iota
	// StateOpen fast-fails all operations.
	StateOpen
	// StateHalfOpen allows a single trial to test recovery.
	StateHalfOpen
)

// String returns the string representation of the breaker state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker tuning. Zero or negative values fall back to
// conservative defaults.
type Config struct {
	// FailureThreshold opens the circuit after this many failures inside
	// the sliding window.
	FailureThreshold int `env:"FAILURE_THRESHOLD" envDefault:"5"`
	// Window is the sliding window failures are counted over.
	Window time.Duration `env:"WINDOW" envDefault:"60s"`
	// Cooldown is how long the circuit stays open before a half-open trial.
	Cooldown time.Duration `env:"COOLDOWN" envDefault:"30s"`
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.Window <= 0 {
		c.Window = 60 * time.Second
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	return c
}

// Breaker is a sliding-window circuit breaker. Safe for concurrent use.
type Breaker struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	state        State
	failures     []time.Time // failure timestamps inside the window
	openedAt     time.Time
	trialPending bool
}

// New creates a breaker with the given configuration.
func New(cfg Config) *Breaker {
	return newBreaker(cfg, time.Now)
}

func newBreaker(cfg Config, now func() time.Time) *Breaker {
	return &Breaker{
		cfg:   cfg.withDefaults(),
		now:   now,
		state: StateClosed,
	}
}

// Allow reports whether the operation may execute. An open circuit
// transitions to half-open once the cooldown elapses and then admits
// exactly one trial until its outcome is recorded or the trial is
// released.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true

	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
			b.state = StateHalfOpen
			b.trialPending = true
			return true
		}
		return false

	case StateHalfOpen:
		// One trial at a time; further calls wait for its outcome.
		if b.trialPending {
			return false
		}
		b.trialPending = true
		return true

	default:
		return false
	}
}

// RecordSuccess records a successful operation. It settles a half-open
// trial by closing the circuit. Successes while closed leave the failure
// window untouched; entries age out only by sliding past the window.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.failures = b.failures[:0]
		b.trialPending = false
	}
}

// ReleaseTrial abandons a half-open trial whose outcome never arrived, so
// the next caller is admitted as a fresh trial instead of being blocked
// behind the stale one. No-op in any other state.
func (b *Breaker) ReleaseTrial() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.trialPending = false
	}
}

// RecordFailure records a failed operation. A closed circuit opens once the
// windowed failure count reaches the threshold; a half-open circuit reopens
// immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	switch b.state {
	case StateClosed:
		b.failures = append(b.failures, now)
		b.prune(now)
		if len(b.failures) >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.openedAt = now
		}

	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = now
		b.trialPending = false

	case StateOpen:
		// Failures while open keep the cooldown anchored at first opening.
	}
}

// State returns the current state, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Reset returns the breaker to closed with an empty window.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = b.failures[:0]
	b.trialPending = false
	b.openedAt = time.Time{}
}

// Stats provides visibility into breaker state for monitoring.
type Stats struct {
	State            string
	WindowedFailures int
	OpenedAt         time.Time
}

// Stats returns a snapshot of the breaker.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.prune(b.now())
	return Stats{
		State:            b.state.String(),
		WindowedFailures: len(b.failures),
		OpenedAt:         b.openedAt,
	}
}

// prune drops failure timestamps that slid out of the window.
func (b *Breaker) prune(now time.Time) {
	cutoff := now.Add(-b.cfg.Window)
	i := 0
	for i < len(b.failures) && !b.failures[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.failures = append(b.failures[:0], b.failures[i:]...)
	}
}
