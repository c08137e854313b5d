package core

import (
	"sync"
	"time"
)

// TableCache is the in-memory store of parsed tables keyed by exact locator
// string. It is owned by a Service instance, never a package global, so
// tests construct isolated caches.
//
// Writes are last-write-wins with no eviction. Concurrent fetches for the
// same locator may both complete and both store their result; that is
// duplicate work, not a correctness problem, because parsing is
// deterministic for identical input.
type TableCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	table     *ParsedTable
	sum       uint64
	fetchedAt time.Time
}

// NewTableCache creates an empty cache.
func NewTableCache() *TableCache {
	return &TableCache{entries: make(map[string]cacheEntry)}
}

func (c *TableCache) get(locator string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[locator]
	return e, ok
}

func (c *TableCache) put(locator string, e cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[locator] = e
}

func (c *TableCache) delete(locator string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[locator]
	delete(c.entries, locator)
	return ok
}

// Len returns the number of cached tables.
func (c *TableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
