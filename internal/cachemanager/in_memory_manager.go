package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/buddy/internal/log"
)

const (
	DefaultExpiration      = 24 * time.Hour
	DefaultCleanupInterval = 30 * time.Minute
)

// InMemoryCacheManager keeps entries in process memory. useCase labels the
// cache in log lines.
type InMemoryCacheManager[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache
}

var _ CacheManager[Key, int] = (*InMemoryCacheManager[Key, int])(nil)

// NewInMemoryCacheManager creates an empty cache.
func NewInMemoryCacheManager[K ~string, V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *InMemoryCacheManager[K, V]) lookup(key K) (V, bool) {
	var zero V
	value, found := c.cache.Get(string(key))
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "cache", c.useCase, "key", key)
		return zero, false
	}
	return v, true
}

// Get returns the entry stored under key.
func (c *InMemoryCacheManager[K, V]) Get(_ context.Context, key K) (V, bool) {
	v, ok := c.lookup(key)
	if ok {
		log.Debug(log.CatCache, "cache hit", "cache", c.useCase, "key", key)
	}
	return v, ok
}

// GetMany splits keys into hits and misses, keeping the order of misses.
func (c *InMemoryCacheManager[K, V]) GetMany(_ context.Context, keys []K) (map[K]V, []K) {
	hits := make(map[K]V, len(keys))
	var missing []K
	for _, key := range keys {
		if v, ok := c.lookup(key); ok {
			hits[key] = v
			continue
		}
		missing = append(missing, key)
	}
	if len(keys) > 0 {
		log.Debug(log.CatCache, "cache lookup", "cache", c.useCase, "hits", len(hits), "misses", len(missing))
	}
	return hits, missing
}

// GetWithRefresh returns the entry and restarts its expiry.
func (c *InMemoryCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	v, ok := c.Get(ctx, key)
	if ok {
		c.Set(ctx, key, v, ttl)
	}
	return v, ok
}

// Set stores value for ttl. gocache.DefaultExpiration uses the cache default.
func (c *InMemoryCacheManager[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Delete removes the given keys.
func (c *InMemoryCacheManager[K, V]) Delete(_ context.Context, keys ...K) error {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}
	return nil
}

// Flush removes every entry.
func (c *InMemoryCacheManager[K, V]) Flush(context.Context) error {
	c.cache.Flush()
	log.Debug(log.CatCache, "cache flushed", "cache", c.useCase)
	return nil
}

// ItemCount returns the number of entries, expired ones included until the
// next cleanup.
func (c *InMemoryCacheManager[K, V]) ItemCount() int {
	return c.cache.ItemCount()
}
