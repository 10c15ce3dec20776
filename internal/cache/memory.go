package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is the in-process fallback: a map of JSON payloads with
// per-key expiry, evicted lazily on read. There is no size bound beyond TTL
// churn (see DESIGN.md).
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory constructs an empty in-process cache.
func NewMemory() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns a live entry, discarding it if expired.
func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	return json.Unmarshal(e.data, dest) == nil
}

// Set stores a value with expiry now+ttl.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{data: payload, expires: c.now().Add(ttl)}
	c.mu.Unlock()
}
