package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

type entry struct {
	val string
	exp time.Time
}

// MemoryCache is an in-process TTL cache used when Redis is not configured
type MemoryCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]entry), now: time.Now}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.exp) {
		return "", false, nil
	}
	return e.val, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.m[key] = entry{val: value, exp: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) ClearPattern(ctx context.Context, pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.m {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return removed, err
		}
		if matched {
			delete(c.m, key)
			removed++
		}
	}
	return removed, nil
}

// Purge drops expired entries
func (c *MemoryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, key)
			removed++
		}
	}
	return removed
}

func (c *MemoryCache) Ping(ctx context.Context) error { return nil }

func (c *MemoryCache) Close() error { return nil }
