package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testView struct {
	ID string `json:"id"`
}

func TestNilViewCacheIsAlwaysMiss(t *testing.T) {
	cache := NewViewCache[testView](nil, "test:", time.Minute)
	ctx := context.Background()

	assert.Nil(t, cache)
	cache.Set(ctx, "1", &testView{ID: "1"})
	cache.Delete(ctx, "1")

	v, ok := cache.Get(ctx, "1")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestNilClientHelpers(t *testing.T) {
	var c *Client

	assert.Nil(t, c.Raw())
	assert.NoError(t, c.Close())
}

func newMiniredisCache(t *testing.T, ttl time.Duration) (*ViewCache[testView], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewViewCache[testView](client, "test:", ttl), mr
}

func TestSetIfGenerationStoresWithTTL(t *testing.T) {
	cache, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	gen := cache.Generation(ctx, "1")
	assert.Equal(t, int64(0), gen)
	assert.True(t, cache.SetIfGeneration(ctx, "1", gen, &testView{ID: "1"}))

	v, ok := cache.Get(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "1", v.ID)
	assert.Equal(t, time.Minute, mr.TTL("test:1"))
}

func TestFillStartedBeforeEvictIsDiscarded(t *testing.T) {
	cache, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	// reader: miss, note the generation, load the old row
	gen := cache.Generation(ctx, "1")
	stale := &testView{ID: "old"}

	// writer: commit, then evict
	cache.Evict(ctx, "1")

	assert.False(t, cache.SetIfGeneration(ctx, "1", gen, stale))
	assert.False(t, mr.Exists("test:1"))

	// the next reader starts after the eviction and may fill
	next := cache.Generation(ctx, "1")
	assert.True(t, cache.SetIfGeneration(ctx, "1", next, &testView{ID: "new"}))
	v, ok := cache.Get(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "new", v.ID)
}

func TestEvictRemovesValue(t *testing.T) {
	cache, mr := newMiniredisCache(t, 0)
	ctx := context.Background()

	cache.Set(ctx, "1", &testView{ID: "1"})
	require.True(t, mr.Exists("test:1"))

	cache.Evict(ctx, "1")

	assert.False(t, mr.Exists("test:1"))
	_, ok := cache.Get(ctx, "1")
	assert.False(t, ok)
}

func TestUnreadableGenerationSkipsFill(t *testing.T) {
	cache, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()
	mr.SetError("server down")

	gen := cache.Generation(ctx, "1")
	assert.Equal(t, int64(-1), gen)

	mr.SetError("")
	assert.False(t, cache.SetIfGeneration(ctx, "1", gen, &testView{ID: "1"}))
	assert.False(t, mr.Exists("test:1"))
}
