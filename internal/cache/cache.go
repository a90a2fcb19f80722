// Package cache provides a TTL-bounded memoization cache used to avoid
// re-hydrating an asset (entity + edges + vulnerabilities) from the store
// more than once within the TTL window. Expired entries are treated as
// absent and evicted lazily on the next read; there is no background sweep.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long a hydrated entry is served before the next
// read goes back to the store.
const DefaultTTL = 5 * time.Minute

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a mutex-guarded TTL map. Reads and writes are individually
// atomic, but two concurrent hydrations of the same key may both miss and
// both do the work; the results are idempotent, so that is a performance
// concern, not a correctness one.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[K]entry[V]

	// now is swappable for tests.
	now func() time.Time
}

// New returns a cache with the given TTL. ttl <= 0 falls back to DefaultTTL.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key. An entry older than the TTL is
// evicted and reported as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, restarting its TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// Delete removes a single key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry. Bulk mutations (delete, import) call this rather
// than invalidating selectively: under-invalidation is a correctness bug,
// over-invalidation only costs a re-hydration.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]entry[V])
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SetClock overrides the time source. Test hook.
func (c *Cache[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
