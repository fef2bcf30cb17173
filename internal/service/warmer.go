package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/zenblog/internal/cache"
	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/pkg/logger"
)

type warmJob struct {
	post  *model.Post
	enqAt time.Time
}

// CacheWarmer 把列表查询结果异步写入单篇缓存，队列满时直接丢弃。
// 写入走 AddPost，已被更新或删除的文章不会被旧快照覆盖。
type CacheWarmer struct {
	cache     cache.PostCache
	ch        chan warmJob
	metricsCh chan time.Duration
}

func NewCacheWarmer(postCache cache.PostCache, queueSize int) *CacheWarmer {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &CacheWarmer{cache: postCache, ch: make(chan warmJob, queueSize), metricsCh: make(chan time.Duration, 4096)}
}

// Start 启动 workers 个协程，返回的函数停止它们并尽量排空队列
func (w *CacheWarmer) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job := <-w.ch:
					w.process(job)
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		wg.Wait()
		for {
			select {
			case job := <-w.ch:
				w.process(job)
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
		}
	}
}

func (w *CacheWarmer) process(job warmJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := w.cache.AddPost(ctx, job.post); err != nil {
		logger.Warn("cache warm failed", zap.String("id", job.post.ID), zap.Error(err))
		return
	}
	select {
	case w.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

// Enqueue 非阻塞入队
func (w *CacheWarmer) Enqueue(posts ...*model.Post) {
	now := time.Now()
	for _, p := range posts {
		select {
		case w.ch <- warmJob{post: p, enqAt: now}:
		default:
			logger.Warn("warm queue full, drop", zap.String("id", p.ID))
		}
	}
}

// Metrics 每写入一条发送一次入队到落地的耗时
func (w *CacheWarmer) Metrics() <-chan time.Duration { return w.metricsCh }

// QueueLen 当前队列长度（采样值）
func (w *CacheWarmer) QueueLen() int { return len(w.ch) }
