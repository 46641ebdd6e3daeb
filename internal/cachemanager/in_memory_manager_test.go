package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type modelText struct {
	Origin string
	Text   []byte
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, modelText]("text", DefaultExpiration, DefaultCleanupInterval)
	want := modelText{Origin: "demo.yml", Text: []byte("name: demo")}
	cache.Set(context.Background(), "project:demo", want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "project:demo")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_GetMissingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("text", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "project:demo")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithWrongType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("text", DefaultExpiration, DefaultCleanupInterval)
	cache.cache.Set("project:demo", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "project:demo")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("text", DefaultExpiration, DefaultCleanupInterval)

	_, ok := cache.GetWithRefresh(context.Background(), "k", time.Hour)
	require.False(t, ok)

	cache.Set(context.Background(), "k", "v", time.Millisecond)
	got, ok := cache.GetWithRefresh(context.Background(), "k", time.Hour)
	require.True(t, ok)
	require.Equal(t, "v", got)

	time.Sleep(5 * time.Millisecond)
	_, ok = cache.Get(context.Background(), "k")
	require.True(t, ok, "refresh extended the ttl")
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("text", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "k", "v", time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	_, ok := cache.Get(context.Background(), "k")
	require.False(t, ok)
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("text", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()
	cache.Set(ctx, "a", "1", DefaultExpiration)
	cache.Set(ctx, "b", "2", DefaultExpiration)
	cache.Set(ctx, "c", "3", DefaultExpiration)

	require.NoError(t, cache.Delete(ctx))
	require.NoError(t, cache.Delete(ctx, "a"))
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)

	require.NoError(t, cache.Flush(ctx))
	require.Equal(t, 0, cache.Len())
}
