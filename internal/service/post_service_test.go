package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/zenblog/internal/cache"
	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/internal/repository"
	"github.com/d60-Lab/zenblog/internal/testutil"
	"github.com/d60-Lab/zenblog/internal/validation"
	"github.com/d60-Lab/zenblog/pkg/logger"
)

type fixture struct {
	svc   PostService
	cache *cache.RedisPostCache
	mr    *miniredis.Miniredis
	logs  *observer.ObservedLogs
	seed  []*model.Post
}

func newFixture(t *testing.T, seed int) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	db := testutil.NewDB(t)
	seeded := testutil.SeedPosts(t, db, seed)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	pc := cache.NewRedisPostCache(client, 0)

	return &fixture{
		svc:   NewPostService(repository.NewPostRepository(db), pc),
		cache: pc,
		mr:    mr,
		logs:  logs,
		seed:  seeded,
	}
}

func mustCreate(t *testing.T, body string) *validation.PostCreate {
	t.Helper()
	in, errs := validation.ValidateCreate([]byte(body))
	require.Empty(t, errs)
	return in
}

func mustUpdate(t *testing.T, body string) *validation.PostUpdate {
	t.Helper()
	in, errs := validation.ValidateUpdate([]byte(body))
	require.Empty(t, errs)
	return in
}

func TestPostService_List(t *testing.T) {
	f := newFixture(t, 7)
	ctx := context.Background()

	page, err := f.svc.List(ctx, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.TotalPosts)
	assert.Len(t, page.Posts, 2)

	page, err = f.svc.List(ctx, -1, -1)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 7)

	assert.Equal(t, 2, f.logs.FilterMessage("Fetching posts from database").Len())
	assert.Equal(t, 2, f.logs.FilterMessage("Fetched posts successfully").Len())
}

func TestPostService_CreateThenList(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, mustCreate(t, `{"title":"A","content":"B","published":true}`))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	page, err := f.svc.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalPosts)
	assert.Equal(t, created.ID, page.Posts[0].ID)

	entries := f.logs.FilterMessage("Post created successfully").All()
	require.Len(t, entries, 1)
	assert.Equal(t, created.ID, entries[0].ContextMap()["postId"])
}

func TestPostService_GetUsesCache(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seed[0].ID

	first, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, f.mr.Exists("post:"+id))

	second, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, cache.Counters{Hits: 1, Misses: 1}, f.cache.Counters())
}

func TestPostService_UpdateEvicts(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	id := f.seed[0].ID

	_, err := f.svc.Get(ctx, id)
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, id, mustUpdate(t, `{"title":"Edited"}`))
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	assert.Equal(t, *f.seed[0].Content, *updated.Content)
	_, err = f.cache.GetPost(ctx, id)
	assert.ErrorIs(t, err, cache.ErrMiss)

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.Title)
}

func TestPostService_DeleteAfterCachedGet(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	id := f.seed[0].ID

	_, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, id))

	_, err = f.svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_StaleWarmCannotUndoMutations(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	warmer := NewCacheWarmer(f.cache, 16)

	db := testutil.NewDB(t)
	seeded := testutil.SeedPosts(t, db, 3)
	svc := NewPostService(repository.NewPostRepository(db), f.cache, WithWarmer(warmer))

	// 列表结果已入队，worker 尚未启动
	page, err := svc.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 3)
	require.Equal(t, 3, warmer.QueueLen())

	deleted, edited, untouched := seeded[0].ID, seeded[1].ID, seeded[2].ID
	require.NoError(t, svc.Delete(ctx, deleted))
	_, err = svc.Update(ctx, edited, mustUpdate(t, `{"title":"Edited"}`))
	require.NoError(t, err)

	stop := warmer.Start(1)
	require.NoError(t, stop(ctx))
	require.Zero(t, warmer.QueueLen())

	_, err = svc.Get(ctx, deleted)
	assert.ErrorIs(t, err, ErrPostNotFound)

	got, err := svc.Get(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.Title)

	f.cache.ResetCounters()
	got, err = svc.Get(ctx, untouched)
	require.NoError(t, err)
	assert.Equal(t, seeded[2].Title, got.Title)
	assert.Equal(t, cache.Counters{Hits: 1}, f.cache.Counters())
}

func TestPostService_NotFound(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = f.svc.Update(ctx, "missing", mustUpdate(t, `{"published":true}`))
	assert.ErrorIs(t, err, ErrPostNotFound)

	id := f.seed[0].ID
	require.NoError(t, f.svc.Delete(ctx, id))
	assert.ErrorIs(t, f.svc.Delete(ctx, id), ErrPostNotFound)

	assert.Equal(t, 1, f.logs.FilterMessage("Post not found").Len())
	assert.Equal(t, 1, f.logs.FilterMessage("Post not found while deleting").Len())
	assert.Zero(t, f.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestPostService_WithoutCache(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedPosts(t, db, 1)
	svc := NewPostService(repository.NewPostRepository(db), nil)

	got, err := svc.Get(context.Background(), seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, seeded[0].Title, got.Title)
	assert.NoError(t, svc.Health(context.Background()))
}
