// Package cache provides a thread-safe in-memory cache with TTL support.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

// entry represents a cached value with expiration time.
type entry[V any] struct {
	value      V
	expiration time.Time
}

func (e *entry[V]) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// Cache is an in-memory TTL cache. The zero value is not usable; construct
// with New.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a cache with a background janitor removing expired entries
// every cleanupInterval. A non-positive interval disables the janitor;
// expired entries are then only dropped lazily on Get.
func New[V any](cleanupInterval time.Duration) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]*entry[V]),
		stop:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}

	return c
}

// Get retrieves a value. The second return is false when the key is absent
// or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !found || e.isExpired(time.Now()) {
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Set stores a value with the given TTL.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = &entry[V]{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
	c.mu.Unlock()
	c.sets.Add(1)
}

// Delete removes a single key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

// Stop terminates the janitor goroutine. Safe to call multiple times.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Cache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

// deleteExpired removes all expired entries. Returns the number removed.
func (c *Cache[V]) deleteExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if e.isExpired(now) {
			delete(c.entries, key)
			count++
		}
	}

	c.evictions.Add(int64(count))
	return count
}
