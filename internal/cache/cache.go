// Package cache provides a small TTL cache with an explicit lifecycle:
// constructed once at process start, refreshed through the loader, and
// cleared on demand. It replaces module-level mutable state.
package cache

import (
	"context"
	"sync"
	"time"
)

// Loader fetches the fresh value set when the cache expires.
type Loader func(ctx context.Context) ([]string, error)

// StringSet caches a set of strings (e.g. published blog slugs) for a fixed
// TTL, reloading lazily on the first lookup after expiry.
type StringSet struct {
	mu       sync.RWMutex
	values   map[string]bool
	loadedAt time.Time
	ttl      time.Duration
	loader   Loader
}

// NewStringSet builds an empty cache; the first Contains call loads it.
func NewStringSet(ttl time.Duration, loader Loader) *StringSet {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StringSet{ttl: ttl, loader: loader}
}

// Contains reports membership, refreshing from the loader when the entry set
// has expired. A failing loader keeps serving the previous values; an empty
// cache with a failing loader reports false for everything.
func (c *StringSet) Contains(ctx context.Context, key string) bool {
	c.mu.RLock()
	fresh := c.values != nil && time.Since(c.loadedAt) < c.ttl
	hit := c.values[key]
	c.mu.RUnlock()
	if fresh {
		return hit
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil || time.Since(c.loadedAt) >= c.ttl {
		values, err := c.loader(ctx)
		if err == nil {
			set := make(map[string]bool, len(values))
			for _, v := range values {
				set[v] = true
			}
			c.values = set
			c.loadedAt = time.Now()
		} else if c.values == nil {
			return false
		}
	}
	return c.values[key]
}

// Clear drops the cached values; the next lookup reloads.
func (c *StringSet) Clear() {
	c.mu.Lock()
	c.values = nil
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}
