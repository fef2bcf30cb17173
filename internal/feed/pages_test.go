package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/zenblog/internal/model"
)

func page(total int64, ids ...string) *model.PostPage {
	p := &model.PostPage{Posts: []*model.Post{}, TotalPosts: total}
	for _, id := range ids {
		p.Posts = append(p.Posts, &model.Post{ID: id, Title: id})
	}
	return p
}

func ids(posts []*model.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestKeyFor(t *testing.T) {
	k, ok := KeyFor(0, 5, nil)
	require.True(t, ok)
	assert.Equal(t, Key{Skip: 0, Take: 5}, k)
	assert.Equal(t, "/api/posts?skip=0&take=5", k.String())

	k, ok = KeyFor(3, 5, page(20, "a"))
	require.True(t, ok)
	assert.Equal(t, Key{Skip: 15, Take: 5}, k)

	_, ok = KeyFor(2, 5, page(20))
	assert.False(t, ok)
}

func TestFlattenAndTotal(t *testing.T) {
	pages := []*model.PostPage{page(4, "a", "b"), page(3, "c"), page(3, "d")}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(Flatten(pages)))
	assert.Equal(t, int64(4), TotalOf(pages))

	assert.Empty(t, Flatten(nil))
	assert.Equal(t, int64(0), TotalOf(nil))
}

func TestPrepend(t *testing.T) {
	pages := []*model.PostPage{page(7, "a", "b", "c", "d", "e"), page(7, "f", "g")}
	out := Prepend(pages, &model.Post{ID: "new"})

	assert.Equal(t, []string{"new", "a", "b", "c", "d", "e", "f", "g"}, ids(Flatten(out)))
	assert.Equal(t, int64(8), TotalOf(out))
	assert.Same(t, pages[1], out[1])

	// 原页不变
	assert.Len(t, pages[0].Posts, 5)
	assert.Equal(t, int64(7), pages[0].TotalPosts)

	assert.Empty(t, Prepend(nil, &model.Post{ID: "x"}))
}

func TestTruncateAtEnd(t *testing.T) {
	pages, ended := truncateAtEnd([]*model.PostPage{page(9, "a"), page(9), page(9, "b")})
	assert.True(t, ended)
	assert.Len(t, pages, 2)

	pages, ended = truncateAtEnd([]*model.PostPage{page(2, "a"), page(2, "b")})
	assert.False(t, ended)
	assert.Len(t, pages, 2)
}
