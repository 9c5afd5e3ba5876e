package labelstore

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a looked-up entry, or its absence, is reused.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	entry     *Entry // nil records a missing label
	expiresAt time.Time
}

// Cache is a thread-safe TTL cache of lookups. Entries are lazily expired
// on access.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached lookup for label and whether it was present and fresh.
func (c *Cache) Get(label string) (*Entry, bool) {
	c.mu.RLock()
	ce, ok := c.entries[label]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().After(ce.expiresAt) {
		c.mu.Lock()
		// Another goroutine may have refreshed it meanwhile.
		if current, still := c.entries[label]; still && c.now().After(current.expiresAt) {
			delete(c.entries, label)
		}
		c.mu.Unlock()
		return nil, false
	}
	return ce.entry, true
}

// Set records the lookup result for label.
func (c *Cache) Set(label string, e *Entry) {
	c.mu.Lock()
	c.entries[label] = cacheEntry{entry: e, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops label from the cache.
func (c *Cache) Invalidate(label string) {
	c.mu.Lock()
	delete(c.entries, label)
	c.mu.Unlock()
}

// Len returns the number of cached labels, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
