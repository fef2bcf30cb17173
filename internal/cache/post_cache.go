package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/zenblog/internal/model"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// DefaultTombstoneTTL 删除标记的存活时间，期间回源结果不会写回缓存
const DefaultTombstoneTTL = 30 * time.Second

const tombstone = "-"

// PostCache 单篇文章的读缓存。
// AddPost 只在 key 不存在时写入；DeletePost 留下短期删除标记，
// 使变更前读到的旧数据无法再写回。
type PostCache interface {
	GetPost(ctx context.Context, id string) (*model.Post, error)
	AddPost(ctx context.Context, post *model.Post) (bool, error)
	DeletePost(ctx context.Context, id string) error
}

// RedisPostCache 以 JSON 形式把文章写入 Redis，带 TTL
type RedisPostCache struct {
	client  *redis.Client
	ttl     time.Duration
	tombTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisPostCache(client *redis.Client, ttl time.Duration) *RedisPostCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisPostCache{client: client, ttl: ttl, tombTTL: DefaultTombstoneTTL}
}

func postKey(id string) string { return fmt.Sprintf("post:%s", id) }

func (c *RedisPostCache) GetPost(ctx context.Context, id string) (*model.Post, error) {
	data, err := c.client.Get(ctx, postKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	if string(data) == tombstone {
		c.misses.Add(1)
		return nil, ErrMiss
	}
	var post model.Post
	if err := json.Unmarshal(data, &post); err != nil {
		// 脏数据视为未命中，由调用方回源覆盖
		c.misses.Add(1)
		return nil, ErrMiss
	}
	c.hits.Add(1)
	return &post, nil
}

// AddPost SETNX 写入；已有缓存或删除标记时返回 false
func (c *RedisPostCache) AddPost(ctx context.Context, post *model.Post) (bool, error) {
	payload, err := json.Marshal(post)
	if err != nil {
		return false, err
	}
	return c.client.SetNX(ctx, postKey(post.ID), payload, c.ttl).Result()
}

// DeletePost 用删除标记覆盖缓存
func (c *RedisPostCache) DeletePost(ctx context.Context, id string) error {
	return c.client.Set(ctx, postKey(id), tombstone, c.tombTTL).Err()
}

// Counters 命中统计
func (c *RedisPostCache) Counters() Counters {
	return Counters{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// ResetCounters clears recorded hit/miss counters.
func (c *RedisPostCache) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// Counters summarises cache lookups.
type Counters struct {
	Hits   int64
	Misses int64
}

// NopPostCache 未启用 Redis 时使用，始终未命中
type NopPostCache struct{}

func (NopPostCache) GetPost(context.Context, string) (*model.Post, error) { return nil, ErrMiss }
func (NopPostCache) AddPost(context.Context, *model.Post) (bool, error)   { return false, nil }
func (NopPostCache) DeletePost(context.Context, string) error              { return nil }

// NewRedisClient 建立连接并 Ping
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}
