// Package cachemanager holds short-lived results that are expensive to
// rebuild: record summaries fetched from remote databases and alignments
// produced by external tools.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed key/value cache with per-entry expiry.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	// GetMany returns the entries found and the keys that were not.
	GetMany(ctx context.Context, keys []K) (map[K]V, []K)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
	ItemCount() int
}
