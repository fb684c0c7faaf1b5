package lookup

import "sync"

// Cache maps exact colors to resolved names. Entries are never replaced or
// evicted; the cache lives as long as the process.
type Cache struct {
	mu      sync.RWMutex
	entries map[RGB]string
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[RGB]string)}
}

// Get returns the cached name for key
func (c *Cache) Get(key RGB) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.entries[key]
	return name, ok
}

// Put stores name for key unless key already has an entry. It returns the
// value that ends up cached.
func (c *Cache) Put(key RGB, name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = name
	return name
}

// Len returns the number of cached colors
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
