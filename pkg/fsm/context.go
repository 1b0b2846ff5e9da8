package fsm

import (
	"maps"
	"sync"
)

// Context is the shared data bag of a machine instance: a concurrent-safe
// string-keyed value map plus lookup of externally supplied services. The
// engine never constructs services; they are injected at build time.
//
// All methods hold the internal lock only for the duration of the map
// operation. Snapshot returns a copy so callers can read consistent data
// without holding any lock.
type Context struct {
	mu       sync.RWMutex
	data     map[string]any
	services map[string]any
}

// ContextOption configures a context during creation.
type ContextOption func(*Context)

// WithService registers a named service instance for lookup.
func WithService(name string, svc any) ContextOption {
	return func(c *Context) {
		if name != "" && svc != nil {
			c.services[name] = svc
		}
	}
}

// WithValue seeds the data bag with an initial key/value pair.
func WithValue(key string, value any) ContextOption {
	return func(c *Context) {
		if key != "" {
			c.data[key] = value
		}
	}
}

// NewContext creates an empty context.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		data:     make(map[string]any),
		services: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// GetString returns the value under key if it is a string.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetFloat returns the value under key if it is a float64.
func (c *Context) GetFloat(key string) (float64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Set stores value under key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Delete removes key from the data bag.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of stored keys.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Keys returns the stored keys in no particular order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a shallow copy of the data bag.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.data)
}

// Clear removes all data. Services are not affected; they live for the
// instance lifetime.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
}

// Service returns the service registered under name.
func (c *Context) Service(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	svc, ok := c.services[name]
	return svc, ok
}

// HasService reports whether a service is registered under name.
func (c *Context) HasService(name string) bool {
	_, ok := c.Service(name)
	return ok
}
