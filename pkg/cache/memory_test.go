package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type payload struct {
	Ticker string  `json:"ticker"`
	Volume float64 `json:"volume"`
}

func TestMemoryCacheRoundTripsStructs(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", map[string]payload{"AAPL": {Ticker: "AAPL", Volume: 10}}, 0))

	var got map[string]payload
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, 10.0, got["AAPL"].Volume)

	var s string
	require.NoError(t, mc.Set(ctx, "s", "raw", 0))
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "raw", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &s), ErrCacheMiss)
}

func TestMemoryCacheExpiresWithClock(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryCleanup(0), WithMemoryClock(clock.Now))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))
	ok, _ := mc.Exists(ctx, "k")
	assert.True(t, ok)

	clock.Advance(61 * time.Second)
	var v string
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryCleanup(0), WithMemoryClock(clock.Now), WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", "1", 0))
	clock.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "b", "2", 0))
	clock.Advance(time.Second)
	var v string
	require.NoError(t, mc.Get(ctx, "a", &v))
	clock.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "c", "3", 0))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMGetTyped(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "x", payload{Ticker: "X", Volume: 1}, 0))
	require.NoError(t, mc.Set(ctx, "bad", "not json", 0))

	got, err := MGetTyped[payload](ctx, mc, "x", "bad", "missing")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "X", got["x"].Ticker)
}

func TestLayeredCacheReadsThrough(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache(WithMemoryCleanup(0))
	defer remote.Close()
	lc := NewLayeredCache(remote, WithLayeredMemorySize(10))
	defer lc.Close()

	require.NoError(t, remote.Set(ctx, "k", payload{Ticker: "K"}, 0))

	var got payload
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "K", got.Ticker)

	require.NoError(t, lc.Set(ctx, "w", payload{Ticker: "W"}, 0))
	var remoteGot payload
	require.NoError(t, remote.Get(ctx, "w", &remoteGot))
	assert.Equal(t, "W", remoteGot.Ticker)

	require.NoError(t, lc.Delete(ctx, "w"))
	assert.ErrorIs(t, lc.Get(ctx, "w", &got), ErrCacheMiss)
}
