package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type summary struct {
	Accession string
	Length    int
}

func newSummaryCache() *InMemoryCacheManager[Key, summary] {
	return NewInMemoryCacheManager[Key, summary]("summaries", DefaultExpiration, DefaultCleanupInterval)
}

func TestInMemoryCacheManager_GetSet(t *testing.T) {
	ctx := context.Background()
	cache := newSummaryCache()
	key := SummaryKey("NCBI", "XM_003439170.2")
	cache.Set(ctx, key, summary{Accession: "XM_003439170.2", Length: 1452}, DefaultExpiration)

	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, 1452, got.Length)
	require.Equal(t, 1, cache.ItemCount())

	_, ok = cache.Get(ctx, SummaryKey("uniprot", "XM_003439170.2"))
	require.False(t, ok)
}

func TestInMemoryCacheManager_WrongType(t *testing.T) {
	cache := newSummaryCache()
	cache.cache.Set("summary:ncbi:x", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "summary:ncbi:x")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetMany(t *testing.T) {
	ctx := context.Background()
	cache := newSummaryCache()
	cache.Set(ctx, "a", summary{Accession: "a"}, DefaultExpiration)
	cache.Set(ctx, "c", summary{Accession: "c"}, DefaultExpiration)

	hits, missing := cache.GetMany(ctx, []Key{"a", "b", "c", "d"})
	require.Len(t, hits, 2)
	require.Equal(t, []Key{"b", "d"}, missing)

	hits, missing = cache.GetMany(ctx, nil)
	require.Empty(t, hits)
	require.Empty(t, missing)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := newSummaryCache()
	cache.Set(ctx, "short", summary{}, 20*time.Millisecond)
	cache.Set(ctx, "long", summary{}, time.Hour)

	time.Sleep(40 * time.Millisecond)
	_, ok := cache.Get(ctx, "short")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "long")
	require.True(t, ok)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	ctx := context.Background()
	cache := newSummaryCache()
	cache.Set(ctx, "k", summary{Accession: "k"}, 30*time.Millisecond)

	_, ok := cache.GetWithRefresh(ctx, "k", time.Hour)
	require.True(t, ok)
	time.Sleep(50 * time.Millisecond)
	_, ok = cache.Get(ctx, "k")
	require.True(t, ok, "refresh should extend the entry")

	_, ok = cache.GetWithRefresh(ctx, "missing", time.Hour)
	require.False(t, ok)
}

func TestInMemoryCacheManager_DeleteFlush(t *testing.T) {
	ctx := context.Background()
	cache := newSummaryCache()
	for _, k := range []Key{"a", "b", "c"} {
		cache.Set(ctx, k, summary{}, DefaultExpiration)
	}
	require.NoError(t, cache.Delete(ctx, "a", "b"))
	require.Equal(t, 1, cache.ItemCount())
	require.NoError(t, cache.Delete(ctx))

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.ItemCount())
}

func TestKeys(t *testing.T) {
	require.Equal(t, Key("summary:ncbi:P00520"), SummaryKey("NCBI", "P00520"))

	a := ToolResultKey("mafft", "", ">a\nACGT\n")
	b := ToolResultKey("mafft", "--clustalout", ">a\nACGT\n")
	require.NotEqual(t, a, b)
	require.Equal(t, a, ToolResultKey("mafft", "", ">a\nACGT\n"))
	require.Len(t, string(a), len("tool:mafft:")+32)
}
