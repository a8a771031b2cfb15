// Package ttlcache implements a small time-bounded map used by the transcript
// bridge to memoize expensive lookups.
//
// Entries are valid for reads only while now - insertion <= TTL. Eviction is
// purely lazy: an expired entry is purged by the lookup that observes it, and
// an entry that is never looked up again stays resident until the cache is
// dropped. That is acceptable for short TTLs and moderate key churn; callers
// that expect pathological churn can bound residency with WithMaxEntries.
package ttlcache

import (
	"sync"
	"time"
)

// entry is a cached value with its insertion timestamp.
type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Cache is a TTL-bounded map safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]entry[V]
	ttl        time.Duration
	maxEntries int              // 0 means unbounded
	now        func() time.Time // injectable for tests
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithClock replaces the time source. For tests.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.now = now
	}
}

// WithMaxEntries caps the number of resident entries. When a Set would exceed
// the cap, expired entries are purged first; if the cache is still full, the
// oldest entry is dropped. External behavior (Get/Set semantics) is unchanged.
func WithMaxEntries[K comparable, V any](n int) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.maxEntries = n
	}
}

// New creates a cache whose entries expire ttl after insertion.
func New[K comparable, V any](ttl time.Duration, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key if present and not expired.
// An expired entry is purged by this lookup and reported as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e, c.now()) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set inserts or overwrites the value for key with a fresh timestamp.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.makeRoom()
		}
	}
	c.entries[key] = entry[V]{value: value, insertedAt: c.now()}
}

// Len returns the number of resident entries, including entries that have
// expired but not yet been purged by a lookup.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// expired reports whether e is past its TTL at time now.
func (c *Cache[K, V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.insertedAt) > c.ttl
}

// makeRoom frees at least one slot. Expired entries go first; if none are
// expired, the oldest entry is dropped.
func (c *Cache[K, V]) makeRoom() {
	now := c.now()
	removed := false
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			removed = true
		}
	}
	if removed {
		return
	}

	var oldestKey K
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.insertedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.insertedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
