package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sync"
	"time"
)

// entry holds a cached award listing with its creation timestamp.
type entry struct {
	awards    []string
	createdAt time.Time
}

// Cache keeps award listings in memory so the API does not drive the
// browser through the first screens on every request.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates a Cache holding at most maxEntries listings. A background
// goroutine evicts listings older than ttl every ttl/12 (at least once a
// minute); Close stops it.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		done:       make(chan struct{}),
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the calculator start URL.
func Key(startURL string) string {
	h := sha256.Sum256([]byte(startURL))
	return hex.EncodeToString(h[:])
}

// Get returns a cached listing younger than maxAge. If maxAge <= 0 the
// cache's TTL applies. The returned slice is a copy.
func (c *Cache) Get(key string, maxAge time.Duration) ([]string, bool) {
	if maxAge <= 0 {
		maxAge = c.ttl
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > maxAge {
		return nil, false
	}
	return slices.Clone(e.awards), true
}

// Set stores a listing. If the cache is at capacity, a random entry is
// evicted to make room.
func (c *Cache) Set(key string, awards []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		// Map iteration order is random.
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		awards:    slices.Clone(awards),
		createdAt: time.Now(),
	}
}

// Len returns the number of stored listings, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl / 12
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired(time.Now().Add(-c.ttl))
		}
	}
}

func (c *Cache) evictExpired(cutoff time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
