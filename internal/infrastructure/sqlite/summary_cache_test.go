package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/buddy/internal/cachemanager"
	"github.com/zjrosen/buddy/internal/record"
)

func TestSummaryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	cache := setupTestDB(t).SummaryCache()
	key := cachemanager.SummaryKey("ncbi", "XM_001.1")

	_, ok := cache.Get(ctx, key)
	require.False(t, ok)

	cache.Set(ctx, key, record.NewSummary("organism", "Homo sapiens", "length", "402"), time.Hour)
	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, []string{"organism", "length"}, got.Keys())
	v, _ := got.Get("length")
	require.Equal(t, "402", v)
	require.Equal(t, 1, cache.ItemCount())

	cache.Set(ctx, key, record.NewSummary("organism", "Mus musculus"), time.Hour)
	got, _ = cache.Get(ctx, key)
	require.Equal(t, []string{"organism"}, got.Keys())
	require.Equal(t, 1, cache.ItemCount())
}

func TestSummaryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := setupTestDB(t).SummaryCache()
	clock := time.Unix(10_000, 0)
	cache.now = func() time.Time { return clock }

	cache.Set(ctx, "a", record.NewSummary("k", "v"), time.Minute)
	cache.Set(ctx, "forever", record.NewSummary("k", "v"), 0)

	clock = clock.Add(30 * time.Second)
	_, ok := cache.GetWithRefresh(ctx, "a", time.Minute)
	require.True(t, ok)

	clock = clock.Add(45 * time.Second)
	_, ok = cache.Get(ctx, "a")
	require.True(t, ok, "refresh should have extended the entry")

	clock = clock.Add(time.Hour)
	_, ok = cache.Get(ctx, "a")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "forever")
	require.True(t, ok)
	require.Equal(t, 1, cache.ItemCount())
}

func TestSummaryCache_GetManyDeleteFlush(t *testing.T) {
	ctx := context.Background()
	cache := setupTestDB(t).SummaryCache()
	cache.Set(ctx, "a", record.NewSummary("k", "1"), time.Hour)
	cache.Set(ctx, "b", record.NewSummary("k", "2"), time.Hour)

	hits, missing := cache.GetMany(ctx, []cachemanager.Key{"a", "c", "b"})
	require.Len(t, hits, 2)
	require.Equal(t, []cachemanager.Key{"c"}, missing)

	require.NoError(t, cache.Delete(ctx, "a"))
	require.Equal(t, 1, cache.ItemCount())
	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.ItemCount())
}

func TestSummaryCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	cache := setupTestDB(t).SummaryCache()
	calls := 0
	load := func(_ context.Context, missing []cachemanager.Key) (map[cachemanager.Key]*record.Summary, error) {
		calls++
		out := map[cachemanager.Key]*record.Summary{}
		for _, k := range missing {
			out[k] = record.NewSummary("key", string(k))
		}
		return out, nil
	}
	keys := []cachemanager.Key{"x", "y"}
	_, err := cachemanager.GetMany(ctx, cache, keys, time.Hour, load)
	require.NoError(t, err)
	got, err := cachemanager.GetMany(ctx, cache, keys, time.Hour, load)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Len(t, got, 2)
}
