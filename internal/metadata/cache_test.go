package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestKVCache_SetAndGet(t *testing.T) {
	cache := NewKVCache(time.Second, clockwork.NewFakeClock())
	defer cache.Stop()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "simple_key_value", key: "test-key", value: "test-value"},
		{name: "key_with_prefix", key: "/clusterview/clusters/prod/nodes", value: `[{"id":"n1"}]`},
		{name: "empty_value", key: "empty-key", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache.Set(tt.key, tt.value)

			value, ok := cache.Get(tt.key)
			assert.True(t, ok)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestKVCache_Expiration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewKVCache(time.Second, clock)
	defer cache.Stop()

	cache.Set("k", "v")
	clock.Advance(999 * time.Millisecond)
	_, ok := cache.Get("k")
	assert.True(t, ok, "entry should survive until its ttl")

	clock.Advance(2 * time.Millisecond)
	_, ok = cache.Get("k")
	assert.False(t, ok, "entry should expire after its ttl")
}

func TestKVCache_DeleteAndClear(t *testing.T) {
	cache := NewKVCache(time.Minute, clockwork.NewFakeClock())
	defer cache.Stop()

	cache.Set("/a/1", "1")
	cache.Set("/b/1", "3")

	cache.Delete("/b/1")
	_, ok := cache.Get("/b/1")
	assert.False(t, ok)
	_, ok = cache.Get("/a/1")
	assert.True(t, ok)

	cache.Set("/c", "x")
	cache.Clear()
	_, ok = cache.Get("/c")
	assert.False(t, ok)
}

func TestKVCache_Stats(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewKVCache(time.Second, clock)
	defer cache.Stop()

	cache.Set("live", "1")
	cache.Set("stale", "2")
	clock.Advance(500 * time.Millisecond)
	cache.Set("live", "1")
	clock.Advance(600 * time.Millisecond)

	cache.Get("live")
	cache.Get("stale")
	cache.Get("missing")

	stats := cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 1, stats.Expired)
	assert.Equal(t, 1.0, stats.TTL)
}

func TestKVCache_Load(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewKVCache(time.Second, clock)
	defer cache.Stop()

	calls := 0
	load := func(context.Context) (string, error) {
		calls++
		return "loaded", nil
	}

	for i := 0; i < 3; i++ {
		v, err := cache.Load(context.Background(), "k", load)
		assert.NoError(t, err)
		assert.Equal(t, "loaded", v)
	}
	assert.Equal(t, 1, calls)

	clock.Advance(2 * time.Second)
	_, err := cache.Load(context.Background(), "k", load)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	_, err = cache.Load(context.Background(), "bad", func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	_, ok := cache.Get("bad")
	assert.False(t, ok, "errors must not be cached")
}

func TestKVCache_CleanupRemovesExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewKVCache(time.Second, clock)
	defer cache.Stop()

	cache.Set("k", "v")
	// Let the cleanup goroutine register its ticker before advancing.
	_ = clock.BlockUntilContext(t.Context(), 1)
	clock.Advance(2 * time.Minute)

	assert.Eventually(t, func() bool {
		return cache.Stats().Entries == 0
	}, time.Second, 5*time.Millisecond)
}

func TestKVCache_StopIdempotent(t *testing.T) {
	cache := NewKVCache(time.Second, clockwork.NewFakeClock())
	cache.Stop()
	assert.NotPanics(t, cache.Stop)
}

func TestKVCache_LoadDiscardedAfterInvalidation(t *testing.T) {
	cache := NewKVCache(time.Minute, clockwork.NewFakeClock())
	defer cache.Stop()

	v, err := cache.Load(context.Background(), "k", func(context.Context) (string, error) {
		// Invalidated while the load is in flight
		cache.Delete("k")
		return "stale", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "stale", v, "the caller still gets what it loaded")
	_, ok := cache.Get("k")
	assert.False(t, ok, "a load overtaken by Delete must not be cached")

	_, _ = cache.Load(context.Background(), "k", func(context.Context) (string, error) {
		cache.Clear()
		return "stale", nil
	})
	_, ok = cache.Get("k")
	assert.False(t, ok, "a load overtaken by Clear must not be cached")

	_, _ = cache.Load(context.Background(), "k", func(context.Context) (string, error) {
		cache.Set("k", "fresh")
		return "stale", nil
	})
	v, ok = cache.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "fresh", v, "a concurrent Set wins over the older load")
}
