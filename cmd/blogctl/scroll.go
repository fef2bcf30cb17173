package main

import (
	"context"
	"fmt"
	"io"

	"github.com/d60-Lab/zenblog/internal/feed"
)

type printNotifier struct{ w io.Writer }

func newNotifier(w io.Writer) feed.Notifier { return printNotifier{w: w} }

func (n printNotifier) Success(msg string) { fmt.Fprintln(n.w, msg) }
func (n printNotifier) Error(msg string)   { fmt.Fprintln(n.w, msg) }

// scroll 通过分页控制器连续加载，直到 pages 页或没有更多
func scroll(ctx context.Context, api feed.API, pageSize, pages int, n feed.Notifier) (feed.View, error) {
	if pages < 1 {
		pages = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := feed.New(api, feed.Options{PageSize: pageSize, Notifier: n})
	go c.Run(ctx)

	requested := 1
	c.Dispatch(feed.Load{})
	for {
		select {
		case <-ctx.Done():
			return feed.View{}, ctx.Err()
		case v := <-c.Views():
			if v.Loading || v.Pages < requested && v.Err == nil {
				continue
			}
			if v.Err != nil {
				return v, v.Err
			}
			if v.Pages >= pages || !v.HasMore {
				return v, nil
			}
			requested++
			c.Dispatch(feed.LoadMore{})
		}
	}
}
