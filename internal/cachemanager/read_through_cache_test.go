package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type lookupInput struct {
	Name string
}

func newCountingCache(t *testing.T, skip bool, err error) (*ReadThroughCache[string, string, lookupInput], *int) {
	t.Helper()
	calls := 0
	cache := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	rtc := NewReadThroughCache[string, string, lookupInput](
		cache,
		func(_ context.Context, in lookupInput) (string, error) {
			calls++
			if err != nil {
				return "", err
			}
			return "text of " + in.Name, nil
		},
		skip,
	)
	return rtc, &calls
}

func TestReadThroughCache_Get(t *testing.T) {
	tests := []struct {
		name      string
		skip      bool
		wantCalls int
	}{
		{name: "caches after the first read", skip: false, wantCalls: 1},
		{name: "always reads when caching is disabled", skip: true, wantCalls: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rtc, calls := newCountingCache(t, tt.skip, nil)
			for i := 0; i < 3; i++ {
				got, err := rtc.Get(context.Background(), "demo", lookupInput{Name: "demo"}, time.Minute)
				require.NoError(t, err)
				require.Equal(t, "text of demo", got)
			}
			require.Equal(t, tt.wantCalls, *calls)
		})
	}
}

func TestReadThroughCache_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	rtc, calls := newCountingCache(t, false, boom)

	_, err := rtc.Get(context.Background(), "demo", lookupInput{Name: "demo"}, time.Minute)
	require.ErrorIs(t, err, boom)
	_, err = rtc.GetWithRefresh(context.Background(), "demo", lookupInput{Name: "demo"}, time.Minute)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, *calls)
}

func TestReadThroughCache_Invalidate(t *testing.T) {
	rtc, calls := newCountingCache(t, false, nil)
	ctx := context.Background()

	_, err := rtc.GetWithRefresh(ctx, "demo", lookupInput{Name: "demo"}, time.Minute)
	require.NoError(t, err)
	_, err = rtc.GetWithRefresh(ctx, "demo", lookupInput{Name: "demo"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, *calls)

	require.NoError(t, rtc.Invalidate(ctx, "demo"))
	_, err = rtc.Get(ctx, "demo", lookupInput{Name: "demo"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, *calls)
}

func TestReadThroughCache_Flush(t *testing.T) {
	rtc, calls := newCountingCache(t, false, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		_, err := rtc.Get(ctx, name, lookupInput{Name: name}, time.Minute)
		require.NoError(t, err)
	}
	require.Equal(t, 2, *calls)

	require.NoError(t, rtc.Flush(ctx))
	for _, name := range []string{"a", "b"} {
		_, err := rtc.Get(ctx, name, lookupInput{Name: name}, time.Minute)
		require.NoError(t, err)
	}
	require.Equal(t, 4, *calls)
}
