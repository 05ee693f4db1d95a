package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockCache is a testify mock of CacheManager.
type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key Key) (string, bool) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1)
}

func (m *mockCache) GetMany(ctx context.Context, keys []Key) (map[Key]string, []Key) {
	args := m.Called(ctx, keys)
	return args.Get(0).(map[Key]string), args.Get(1).([]Key)
}

func (m *mockCache) GetWithRefresh(ctx context.Context, key Key, ttl time.Duration) (string, bool) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, key Key, value string, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockCache) Delete(ctx context.Context, keys ...Key) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCache) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockCache) ItemCount() int {
	return m.Called().Int(0)
}

type lookup struct {
	Accession string
}

func loader(calls *int) func(context.Context, lookup) (string, error) {
	return func(_ context.Context, in lookup) (string, error) {
		*calls++
		return "summary of " + in.Accession, nil
	}
}

func TestReadThroughCache_SkipCache(t *testing.T) {
	m := &mockCache{}
	calls := 0
	rt := NewReadThroughCache[Key, string, lookup](m, loader(&calls), true)

	got, err := rt.Get(context.Background(), "k", lookup{"P1"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "summary of P1", got)

	got, err = rt.GetWithRefresh(context.Background(), "k", lookup{"P1"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "summary of P1", got)
	require.Equal(t, 2, calls)
	m.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestReadThroughCache_Hit(t *testing.T) {
	m := &mockCache{}
	m.On("Get", mock.Anything, Key("k")).Return("cached", true)
	calls := 0
	rt := NewReadThroughCache[Key, string, lookup](m, loader(&calls), false)

	got, err := rt.Get(context.Background(), "k", lookup{"P1"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "cached", got)
	require.Zero(t, calls)
	m.AssertExpectations(t)
}

func TestReadThroughCache_MissStores(t *testing.T) {
	m := &mockCache{}
	m.On("GetWithRefresh", mock.Anything, Key("k"), time.Minute).Return("", false)
	m.On("Set", mock.Anything, Key("k"), "summary of P2", time.Minute).Return()
	calls := 0
	rt := NewReadThroughCache[Key, string, lookup](m, loader(&calls), false)

	got, err := rt.GetWithRefresh(context.Background(), "k", lookup{"P2"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "summary of P2", got)
	m.AssertExpectations(t)
}

func TestReadThroughCache_LoaderError(t *testing.T) {
	m := &mockCache{}
	m.On("Get", mock.Anything, Key("k")).Return("", false)
	boom := errors.New("boom")
	rt := NewReadThroughCache[Key, string, lookup](m, func(context.Context, lookup) (string, error) {
		return "", boom
	}, false)

	_, err := rt.Get(context.Background(), "k", lookup{}, time.Minute)
	require.ErrorIs(t, err, boom)
	m.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetMany_LoadsOnlyMisses(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[Key, string]("test", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(ctx, "a", "A", DefaultExpiration)

	var asked []Key
	load := func(_ context.Context, missing []Key) (map[Key]string, error) {
		asked = missing
		return map[Key]string{"b": "B"}, nil
	}

	got, err := GetMany(ctx, cache, []Key{"a", "b", "c"}, time.Hour, load)
	require.NoError(t, err)
	require.Equal(t, []Key{"b", "c"}, asked)
	require.Equal(t, map[Key]string{"a": "A", "b": "B"}, got)

	// b is cached now; only c is asked for again
	_, err = GetMany(ctx, cache, []Key{"a", "b", "c"}, time.Hour, load)
	require.NoError(t, err)
	require.Equal(t, []Key{"c"}, asked)
}

func TestGetMany_PartialLoadError(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[Key, string]("test", DefaultExpiration, DefaultCleanupInterval)
	boom := errors.New("backend down")

	got, err := GetMany(ctx, cache, []Key{"a", "b"}, time.Hour, func(context.Context, []Key) (map[Key]string, error) {
		return map[Key]string{"a": "A"}, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, map[Key]string{"a": "A"}, got)

	v, ok := cache.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, "A", v)
}

func TestGetMany_AllCachedSkipsLoad(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[Key, string]("test", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(ctx, "a", "A", DefaultExpiration)

	got, err := GetMany(ctx, cache, []Key{"a"}, time.Hour, func(context.Context, []Key) (map[Key]string, error) {
		t.Fatal("load must not be called")
		return nil, nil
	})
	require.NoError(t, err)
	require.Equal(t, "A", got["a"])
}
