package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache fills a CacheManager from a loader on miss. With bypass
// set every call goes to the loader and nothing is stored.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache  CacheManager[K, V]
	load   func(ctx context.Context, input I) (V, error)
	bypass bool
}

// NewReadThroughCache wraps cache with the single-key loader load.
func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	load func(ctx context.Context, input I) (V, error),
	bypass bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{cache: cache, load: load, bypass: bypass}
}

// Get returns the cached value for key or loads it from input.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.through(ctx, key, input, ttl, func() (V, bool) { return r.cache.Get(ctx, key) })
}

// GetWithRefresh is Get that also restarts the expiry of a hit.
func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.through(ctx, key, input, ttl, func() (V, bool) { return r.cache.GetWithRefresh(ctx, key, ttl) })
}

func (r *ReadThroughCache[K, V, I]) through(ctx context.Context, key K, input I, ttl time.Duration, lookup func() (V, bool)) (V, error) {
	if r.bypass {
		return r.load(ctx, input)
	}
	if v, ok := lookup(); ok {
		return v, nil
	}
	v, err := r.load(ctx, input)
	if err == nil {
		r.cache.Set(ctx, key, v, ttl)
	}
	return v, err
}

// GetMany returns values for keys, loading only the misses in one call to
// load. Values load returns are stored; keys it leaves out stay missing.
func GetMany[K ~string, V any](
	ctx context.Context,
	cache CacheManager[K, V],
	keys []K,
	ttl time.Duration,
	load func(ctx context.Context, missing []K) (map[K]V, error),
) (map[K]V, error) {
	hits, missing := cache.GetMany(ctx, keys)
	if len(missing) == 0 {
		return hits, nil
	}
	loaded, err := load(ctx, missing)
	for k, v := range loaded {
		cache.Set(ctx, k, v, ttl)
		hits[k] = v
	}
	return hits, err
}
