package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryCache is a process-local Cache. Values are copied on the way in and
// out. Expired entries are dropped lazily by the Get that finds them.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value   []byte
	expires time.Time
}

func (e entry) live(now time.Time) bool { return now.Before(e.expires) }

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]entry{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.live(c.now()) {
		return bytes.Clone(e.value), true
	}

	c.mu.Lock()
	// A concurrent Set may have replaced the entry since the read above.
	if cur, ok := c.entries[key]; ok && !cur.live(c.now()) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return nil, false
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	e := entry{value: bytes.Clone(value), expires: c.now().Add(ttl)}
	if e.value == nil {
		e.value = []byte{}
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len counts stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ Cache = (*MemoryCache)(nil)
