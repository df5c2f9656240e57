package cache

import (
	"sync"
	"time"
)

// CacheEntry represents a cached item with expiration
type CacheEntry struct {
	Value      interface{}
	Expiration time.Time
}

// IsExpired checks if the cache entry has expired at now
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return now.After(e.Expiration)
}

// MemoryCache implements a simple in-memory cache
type MemoryCache struct {
	items map[string]*CacheEntry
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a new memory cache. Expired entries are swept every
// cleanup interval until Close.
func NewMemoryCache(ttl, cleanup time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	if cleanup > 0 {
		go cache.cleanupExpired(cleanup)
	}

	return cache
}

// Set stores a value in the cache
func (c *MemoryCache) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheEntry{
		Value:      value,
		Expiration: c.now().Add(c.ttl),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.items[key]
	if !exists || entry.IsExpired(c.now()) {
		return nil, false
	}

	return entry.Value, true
}

// SetIfAbsent stores value unless a live entry exists. It reports whether
// the value was stored.
func (c *MemoryCache) SetIfAbsent(key string, value interface{}) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	if entry, exists := c.items[key]; exists && !entry.IsExpired(now) {
		return false
	}
	c.items[key] = &CacheEntry{
		Value:      value,
		Expiration: now.Add(c.ttl),
	}
	return true
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Size returns the number of items in the cache, expired ones included
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// purge drops expired entries
func (c *MemoryCache) purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, entry := range c.items {
		if entry.IsExpired(now) {
			delete(c.items, key)
		}
	}
}

// cleanupExpired removes expired entries periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purge()
		case <-c.stop:
			return
		}
	}
}

// PathSet remembers recently seen file paths
type PathSet struct {
	*MemoryCache
}

// NewPathSet creates a path set whose entries live for ttl
func NewPathSet(ttl time.Duration) *PathSet {
	return &PathSet{
		MemoryCache: NewMemoryCache(ttl, time.Minute),
	}
}

// MarkSeen records path and reports whether it was new
func (ps *PathSet) MarkSeen(path string) bool {
	return ps.SetIfAbsent(path, struct{}{})
}
