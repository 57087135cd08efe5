package preview

import (
	"strings"
	"sync"
)

// Cache is a keyed store for rendered previews. Thumbnail entries are keyed
// by file path alone; waveform entries add mode, palette, size, and accent
// so different renderings of one file coexist.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// Key builds a composite cache key from a file path and qualifiers.
func Key(filePath string, qualifiers ...string) string {
	if len(qualifiers) == 0 {
		return filePath
	}
	return filePath + "|" + strings.Join(qualifiers, "|")
}

// Get returns the cached payload for key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	payload, ok := c.entries[key]
	return payload, ok
}

// Put stores a payload under key.
func (c *Cache) Put(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
}

// Invalidate drops every entry for filePath, including qualified variants.
func (c *Cache) Invalidate(filePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, filePath)
	prefix := filePath + "|"
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
