package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/zenblog/internal/model"
)

func newTestCache(t *testing.T) (*RedisPostCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisPostCache(client, time.Minute), mr
}

func TestRedisPostCache_RoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.GetPost(ctx, "p1")
	assert.ErrorIs(t, err, ErrMiss)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	post := &model.Post{ID: "p1", Title: "T", Content: model.StringPtr("C"), Published: true, CreatedAt: created, UpdatedAt: created}
	added, err := c.AddPost(ctx, post)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, mr.Exists("post:p1"))
	assert.Equal(t, time.Minute, mr.TTL("post:p1"))

	got, err := c.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "C", *got.Content)
	assert.True(t, got.CreatedAt.Equal(created))

	require.NoError(t, c.DeletePost(ctx, "p1"))
	_, err = c.GetPost(ctx, "p1")
	assert.ErrorIs(t, err, ErrMiss)

	assert.Equal(t, Counters{Hits: 1, Misses: 2}, c.Counters())
	c.ResetCounters()
	assert.Equal(t, Counters{}, c.Counters())
}

func TestRedisPostCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.AddPost(ctx, &model.Post{ID: "p2", Title: "T"})
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = c.GetPost(ctx, "p2")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisPostCache_AddDoesNotOverwrite(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.AddPost(ctx, &model.Post{ID: "p3", Title: "first"})
	require.NoError(t, err)
	added, err := c.AddPost(ctx, &model.Post{ID: "p3", Title: "second"})
	require.NoError(t, err)
	assert.False(t, added)

	got, err := c.GetPost(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
}

func TestRedisPostCache_TombstoneBlocksStaleWrites(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.DeletePost(ctx, "p4"))
	assert.Equal(t, DefaultTombstoneTTL, mr.TTL("post:p4"))

	added, err := c.AddPost(ctx, &model.Post{ID: "p4", Title: "stale"})
	require.NoError(t, err)
	assert.False(t, added)
	_, err = c.GetPost(ctx, "p4")
	assert.ErrorIs(t, err, ErrMiss)

	mr.FastForward(DefaultTombstoneTTL + time.Second)
	added, err = c.AddPost(ctx, &model.Post{ID: "p4", Title: "fresh"})
	require.NoError(t, err)
	assert.True(t, added)
	got, err := c.GetPost(ctx, "p4")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Title)
}

func TestRedisPostCache_CorruptPayload(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("post:bad", "{not json"))

	_, err := c.GetPost(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNopPostCache(t *testing.T) {
	var c PostCache = NopPostCache{}
	ctx := context.Background()
	added, err := c.AddPost(ctx, &model.Post{ID: "x"})
	require.NoError(t, err)
	assert.False(t, added)
	_, err = c.GetPost(ctx, "x")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.DeletePost(ctx, "x"))
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	client, err := NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
