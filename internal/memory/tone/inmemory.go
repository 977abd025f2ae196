package tone

import (
	"context"
	"sync"
	"time"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/types"
)

type entry struct {
	directive directive.Directive
	expiresAt time.Time
}

// InMemoryCache is a process-local tone cache for tests and the embedded
// deployment mode. Expired entries are dropped lazily on read.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[types.ID]entry

	// now is swappable so tests can control expiry without sleeping.
	now func() time.Time
}

// NewInMemoryCache creates an empty in-memory tone cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[types.ID]entry),
		now:     time.Now,
	}
}

// Get returns the cached directive, or ok=false once it has expired.
func (c *InMemoryCache) Get(ctx context.Context, sessionID types.ID) (directive.Directive, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[sessionID]
	c.mu.RUnlock()

	if !ok {
		return directive.None(), false, nil
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// A Set may have replaced the entry between the two locks; only
		// drop it if it is still the expired one.
		if current, ok := c.entries[sessionID]; ok && current.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, sessionID)
		}
		c.mu.Unlock()
		return directive.None(), false, nil
	}

	return e.directive, true, nil
}

// Set caches a directive for the session with the given TTL.
func (c *InMemoryCache) Set(ctx context.Context, sessionID types.ID, d directive.Directive, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[sessionID] = entry{
		directive: d,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Close is a no-op for the in-memory cache.
func (c *InMemoryCache) Close() error {
	return nil
}

// SetClock overrides the cache's clock. Test helper.
func (c *InMemoryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
