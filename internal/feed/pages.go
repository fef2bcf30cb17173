package feed

import (
	"fmt"

	"github.com/d60-Lab/zenblog/internal/model"
)

// Key 一页的请求参数
type Key struct {
	Skip int
	Take int
}

func (k Key) String() string {
	return fmt.Sprintf("/api/posts?skip=%d&take=%d", k.Skip, k.Take)
}

// KeyFor 第 n 页的 key；上一页已取回且为空时返回 false，表示到底
func KeyFor(n, pageSize int, prev *model.PostPage) (Key, bool) {
	if prev != nil && len(prev.Posts) == 0 {
		return Key{}, false
	}
	return Key{Skip: n * pageSize, Take: pageSize}, true
}

// Flatten 按页序拼接
func Flatten(pages []*model.PostPage) []*model.Post {
	n := 0
	for _, p := range pages {
		n += len(p.Posts)
	}
	out := make([]*model.Post, 0, n)
	for _, p := range pages {
		out = append(out, p.Posts...)
	}
	return out
}

// TotalOf 总数取第一页上报的值
func TotalOf(pages []*model.PostPage) int64 {
	if len(pages) == 0 || pages[0] == nil {
		return 0
	}
	return pages[0].TotalPosts
}

// Prepend 返回新的页序列：新文章放在第 0 页头部且总数加一，其余页原样保留。
// 没有任何已取回页时返回原值。
func Prepend(pages []*model.PostPage, post *model.Post) []*model.PostPage {
	if len(pages) == 0 {
		return pages
	}
	first := pages[0]
	posts := make([]*model.Post, 0, len(first.Posts)+1)
	posts = append(posts, post)
	posts = append(posts, first.Posts...)

	out := make([]*model.PostPage, len(pages))
	copy(out, pages)
	out[0] = &model.PostPage{Posts: posts, TotalPosts: first.TotalPosts + 1}
	return out
}

// truncateAtEnd 截掉第一个空页之后的页，返回是否遇到空页
func truncateAtEnd(pages []*model.PostPage) ([]*model.PostPage, bool) {
	for i, p := range pages {
		if len(p.Posts) == 0 {
			return pages[:i+1], true
		}
	}
	return pages, false
}
