package breaker

import (
	"sync"
	"time"
)

// Registry manages one breaker per error code with shared configuration.
// Breakers are created lazily on first use.
type Registry struct {
	mu       sync.RWMutex
	cfg      Config
	now      func() time.Time
	breakers map[string]*Breaker
}

// NewRegistry creates a registry applying cfg to every breaker it creates.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for code, creating it if needed.
func (r *Registry) Get(code string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[code]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[code]; ok {
		return b
	}
	b = newBreaker(r.cfg, r.now)
	r.breakers[code] = b
	return b
}

// Lookup returns the breaker for code without creating one.
func (r *Registry) Lookup(code string) (*Breaker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.breakers[code]
	return b, ok
}

// Codes returns the codes with an existing breaker.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.breakers))
	for code := range r.breakers {
		codes = append(codes, code)
	}
	return codes
}

// Snapshot returns per-code breaker stats.
func (r *Registry) Snapshot() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Stats, len(r.breakers))
	for code, b := range r.breakers {
		out[code] = b.Stats()
	}
	return out
}

// Reset resets the breaker for code, if one exists.
func (r *Registry) Reset(code string) {
	if b, ok := r.Lookup(code); ok {
		b.Reset()
	}
}

// ResetAll resets every breaker.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.breakers {
		b.Reset()
	}
}
