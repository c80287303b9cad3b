package llm

import (
	"sync"
	"time"
)

// responseCache remembers recent classifier answers keyed by description.
// Re-running an import within the TTL then costs no extra round-trips and
// keeps results identical. Expired entries are pruned opportunistically on
// write.
type responseCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

type cacheEntry struct {
	expiry   time.Time
	category string
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *responseCache) get(description string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[description]
	if !ok || time.Now().After(entry.expiry) {
		return "", false
	}
	return entry.category, true
}

func (c *responseCache) set(description, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if len(c.entries) > 0 && len(c.entries)%512 == 0 {
		for key, entry := range c.entries {
			if now.After(entry.expiry) {
				delete(c.entries, key)
			}
		}
	}

	c.entries[description] = cacheEntry{
		category: category,
		expiry:   now.Add(c.ttl),
	}
}
