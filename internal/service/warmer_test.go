package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/zenblog/internal/cache"
	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/internal/repository"
	"github.com/d60-Lab/zenblog/internal/testutil"
)

func TestCacheWarmer_ListWarmsPostCache(t *testing.T) {
	f := newFixture(t, 0)
	warmer := NewCacheWarmer(f.cache, 16)
	stop := warmer.Start(2)
	t.Cleanup(func() { _ = stop(context.Background()) })

	db := testutil.NewDB(t)
	seeded := testutil.SeedPosts(t, db, 6)
	svc := NewPostService(repository.NewPostRepository(db), f.cache, WithWarmer(warmer))

	page, err := svc.List(context.Background(), 0, 4)
	require.NoError(t, err)
	require.Len(t, page.Posts, 4)

	require.Eventually(t, func() bool {
		for _, p := range page.Posts {
			if !f.mr.Exists("post:" + p.ID) {
				return false
			}
		}
		return true
	}, time.Second, 10*time.Millisecond)
	assert.False(t, f.mr.Exists("post:"+seeded[0].ID))

	f.cache.ResetCounters()
	got, err := svc.Get(context.Background(), page.Posts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, page.Posts[0].Title, got.Title)
	assert.Equal(t, cache.Counters{Hits: 1}, f.cache.Counters())
}

func TestCacheWarmer_DropsWhenFull(t *testing.T) {
	warmer := NewCacheWarmer(cache.NopPostCache{}, 2)
	warmer.Enqueue(&model.Post{ID: "a"}, &model.Post{ID: "b"}, &model.Post{ID: "c"})
	assert.Equal(t, 2, warmer.QueueLen())

	stop := warmer.Start(1)
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, 0, warmer.QueueLen())
}
