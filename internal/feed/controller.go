package feed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/zenblog/internal/client"
	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/pkg/logger"
)

// DefaultPageSize 每次加载的文章数
const DefaultPageSize = 5

// API 控制器依赖的数据接口，*client.Client 实现了它
type API interface {
	ListPosts(ctx context.Context, skip, take int) (*model.PostPage, error)
	CreatePost(ctx context.Context, form client.PostForm) (*model.Post, error)
	UpdatePost(ctx context.Context, id string, form client.PostForm) (*model.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// View 某一时刻的只读快照
type View struct {
	Posts   []*model.Post
	Total   int64
	HasMore bool
	Loading bool
	// Ended 某页返回空列表后不再翻页
	Ended bool
	Pages int
	Err   error

	FormOpen      bool
	Editing       *model.Post
	Submitting    bool
	FormErr       string
	PendingDelete string
	Deleting      bool

	Rev uint64
}

type Options struct {
	PageSize int
	Notifier Notifier
	// ViewBuffer Views() 通道的缓冲；满时丢弃最旧的快照
	ViewBuffer int
}

// Controller 分页缓存控制器。页缓存只在事件循环里读写。
type Controller struct {
	api      API
	pageSize int
	notifier Notifier

	intents chan Intent
	events  chan event
	views   chan View
	done    chan struct{}

	// 以下字段仅由 run 循环访问
	pages      []*model.PostPage
	keys       []Key
	size       int
	gen        uint64
	growing    bool
	reval      *revalidation
	ended      bool
	fetchErr   error
	formOpen   bool
	editing    *model.Post
	submitting bool
	formErr    string
	pendingDel string
	deleting   bool
	rev        uint64
}

type revalidation struct {
	gen     uint64
	keys    []Key
	results []*model.PostPage
	left    int
	err     error
}

type event interface{ event() }

type pageLoaded struct {
	gen   uint64
	index int
	key   Key
	page  *model.PostPage
	err   error
}

type postSaved struct {
	created bool
	post    *model.Post
	err     error
}

type postDeleted struct {
	id  string
	err error
}

func (pageLoaded) event()  {}
func (postSaved) event()   {}
func (postDeleted) event() {}

func New(api API, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.ViewBuffer <= 0 {
		opts.ViewBuffer = 64
	}
	return &Controller{
		api:      api,
		pageSize: opts.PageSize,
		notifier: opts.Notifier,
		intents:  make(chan Intent, 64),
		events:   make(chan event, 64),
		views:    make(chan View, opts.ViewBuffer),
		done:     make(chan struct{}),
	}
}

// Run 事件循环，阻塞到 ctx 取消
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	c.render()
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-c.intents:
			if s, ok := in.(snapshotReq); ok {
				s.reply <- c.view()
				continue
			}
			c.handleIntent(ctx, in)
		case ev := <-c.events:
			c.handleEvent(ctx, ev)
		}
		c.render()
	}
}

// Dispatch 投递一个操作；循环已退出时丢弃
func (c *Controller) Dispatch(in Intent) {
	select {
	case c.intents <- in:
	case <-c.done:
	}
}

// Views 每次状态变化后的快照
func (c *Controller) Views() <-chan View { return c.views }

// snapshotReq 与普通操作走同一队列，之前投递的操作都已处理
type snapshotReq struct{ reply chan View }

func (snapshotReq) intent() {}

// Snapshot 同步读取当前快照
func (c *Controller) Snapshot(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case c.intents <- snapshotReq{reply: reply}:
	case <-c.done:
		return View{}, errors.New("feed: controller stopped")
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Done 循环退出后关闭
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) loading() bool {
	return c.growing || c.reval != nil
}

func (c *Controller) hasMore(flat []*model.Post) bool {
	return !c.ended && int64(len(flat)) < TotalOf(c.pages)
}

func (c *Controller) view() View {
	flat := Flatten(c.pages)
	return View{
		Posts:         flat,
		Total:         TotalOf(c.pages),
		HasMore:       c.hasMore(flat),
		Loading:       c.loading(),
		Ended:         c.ended,
		Pages:         len(c.pages),
		Err:           c.fetchErr,
		FormOpen:      c.formOpen,
		Editing:       c.editing,
		Submitting:    c.submitting,
		FormErr:       c.formErr,
		PendingDelete: c.pendingDel,
		Deleting:      c.deleting,
		Rev:           c.rev,
	}
}

func (c *Controller) render() {
	c.rev++
	v := c.view()
	for {
		select {
		case c.views <- v:
			return
		default:
		}
		select {
		case <-c.views:
		default:
		}
	}
}

func (c *Controller) handleIntent(ctx context.Context, in Intent) {
	switch in := in.(type) {
	case Load:
		if c.size < 1 {
			c.size = 1
		}
		c.ensure(ctx)
	case LoadMore:
		if c.loading() || !c.hasMore(Flatten(c.pages)) {
			return
		}
		c.size = len(c.pages) + 1
		c.ensure(ctx)
	case OpenCreate:
		c.formOpen, c.editing, c.formErr = true, nil, ""
	case OpenEdit:
		for _, p := range Flatten(c.pages) {
			if p.ID == in.ID {
				c.formOpen, c.editing, c.formErr = true, p, ""
				return
			}
		}
	case Cancel:
		if !c.submitting {
			c.formOpen, c.editing, c.formErr = false, nil, ""
		}
	case Submit:
		c.submit(ctx, in.Form)
	case RequestDelete:
		if !c.deleting {
			c.pendingDel = in.ID
		}
	case CancelDelete:
		if !c.deleting {
			c.pendingDel = ""
		}
	case ConfirmDelete:
		c.confirmDelete(ctx)
	case Revalidate:
		c.revalidate(ctx)
	}
}

func (c *Controller) handleEvent(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case pageLoaded:
		c.pageLoaded(ctx, ev)
	case postSaved:
		c.postSaved(ctx, ev)
	case postDeleted:
		c.postDeleted(ctx, ev)
	}
}

// ensure 需要时拉取下一页；同一时间最多一个翻页请求
func (c *Controller) ensure(ctx context.Context) {
	if c.loading() || c.ended || c.size <= len(c.pages) {
		return
	}
	index := len(c.pages)
	var prev *model.PostPage
	if index > 0 {
		prev = c.pages[index-1]
	}
	key, ok := KeyFor(index, c.pageSize, prev)
	if !ok {
		c.ended = true
		c.size = len(c.pages)
		return
	}
	c.growing = true
	c.fetch(ctx, c.gen, index, key)
}

func (c *Controller) fetch(ctx context.Context, gen uint64, index int, key Key) {
	logger.Debug("feed: fetching page", zap.Int("page", index), zap.String("key", key.String()))
	go func() {
		page, err := c.api.ListPosts(ctx, key.Skip, key.Take)
		c.post(ctx, pageLoaded{gen: gen, index: index, key: key, page: page, err: err})
	}()
}

func (c *Controller) post(ctx context.Context, ev event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Controller) pageLoaded(ctx context.Context, ev pageLoaded) {
	if c.reval != nil && ev.gen == c.reval.gen {
		c.revalidated(ctx, ev)
		return
	}
	if ev.gen != c.gen || !c.growing {
		return
	}
	c.growing = false

	if ev.err != nil {
		c.fetchFailed(ev.err)
		c.size = len(c.pages)
		return
	}
	c.fetchErr = nil
	// 按页号落位，而不是按完成顺序追加
	if ev.index != len(c.pages) {
		return
	}
	c.pages = append(c.pages, ev.page)
	c.keys = append(c.keys, ev.key)
	if len(ev.page.Posts) == 0 {
		c.ended = true
		c.size = len(c.pages)
		return
	}
	c.ensure(ctx)
}

// revalidate 以新一代号并发重拉所有已取回的页，全部成功后整体替换
func (c *Controller) revalidate(ctx context.Context) {
	if len(c.keys) == 0 {
		if c.size < 1 {
			c.size = 1
		}
		c.ensure(ctx)
		return
	}
	c.gen++
	c.growing = false
	keys := append([]Key(nil), c.keys...)
	c.reval = &revalidation{
		gen:     c.gen,
		keys:    keys,
		results: make([]*model.PostPage, len(keys)),
		left:    len(keys),
	}
	for i, k := range keys {
		c.fetch(ctx, c.gen, i, k)
	}
}

func (c *Controller) revalidated(ctx context.Context, ev pageLoaded) {
	r := c.reval
	if ev.err != nil && r.err == nil {
		r.err = ev.err
	}
	if ev.err == nil {
		r.results[ev.index] = ev.page
	}
	r.left--
	if r.left > 0 {
		return
	}
	c.reval = nil

	if r.err != nil {
		c.fetchFailed(r.err)
		c.ensure(ctx)
		return
	}
	c.fetchErr = nil
	pages, ended := truncateAtEnd(r.results)
	c.pages = pages
	c.keys = r.keys[:len(pages)]
	c.ended = ended
	if ended {
		c.size = len(c.pages)
	}
	c.ensure(ctx)
}

func (c *Controller) fetchFailed(err error) {
	c.fetchErr = err
	logger.Warn("feed: page fetch failed", zap.Error(err))
	c.notifier.Error(fmt.Sprintf("Failed to load posts: %s", err.Error()))
}

func (c *Controller) submit(ctx context.Context, form client.PostForm) {
	if !c.formOpen || c.submitting {
		return
	}
	c.submitting = true
	c.formErr = ""
	editing := c.editing
	go func() {
		var (
			post *model.Post
			err  error
		)
		if editing != nil {
			post, err = c.api.UpdatePost(ctx, editing.ID, form)
		} else {
			post, err = c.api.CreatePost(ctx, form)
		}
		c.post(ctx, postSaved{created: editing == nil, post: post, err: err})
	}()
}

func (c *Controller) postSaved(ctx context.Context, ev postSaved) {
	c.submitting = false
	if ev.err != nil {
		c.formErr = ev.err.Error()
		c.notifier.Error(fmt.Sprintf("Error: %s", c.formErr))
		return
	}
	c.formOpen, c.editing, c.formErr = false, nil, ""

	if ev.created {
		// 本地补丁即为权威数据，不触发重拉
		c.pages = Prepend(c.pages, ev.post)
		c.notifier.Success("Post created successfully!")
		if c.reval != nil {
			// 进行中的批次可能在插入前读取，换新一代重拉，旧结果按代号丢弃
			c.revalidate(ctx)
		}
		return
	}
	c.notifier.Success("Post updated successfully!")
	c.revalidate(ctx)
}

func (c *Controller) confirmDelete(ctx context.Context) {
	if c.pendingDel == "" || c.deleting {
		return
	}
	id := c.pendingDel
	c.deleting = true
	go func() {
		err := c.api.DeletePost(ctx, id)
		c.post(ctx, postDeleted{id: id, err: err})
	}()
}

func (c *Controller) postDeleted(ctx context.Context, ev postDeleted) {
	c.deleting = false
	c.pendingDel = ""
	if ev.err != nil {
		logger.Warn("feed: delete failed", zap.String("postId", ev.id), zap.Error(ev.err))
		c.notifier.Error(fmt.Sprintf("Failed to delete post: %s", ev.err.Error()))
		return
	}
	c.notifier.Success("Post deleted successfully!")
	c.revalidate(ctx)
}
