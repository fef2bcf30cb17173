package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/zenblog/config"
	"github.com/d60-Lab/zenblog/internal/cache"
	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/internal/repository"
	"github.com/d60-Lab/zenblog/internal/service"
	"github.com/d60-Lab/zenblog/pkg/database"
)

type request struct {
	// list 为 true 时翻页，否则按 id 读单篇
	list bool
	skip int
	id   string
}

type scenarioResult struct {
	durations   []time.Duration
	counters    cache.Counters
	cacheKeys   int
	memoryBytes int64
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)
	mustDo(database.Migrate(db))
	repo := repository.NewPostRepository(db)

	postCount := envInt("N", 5000)
	reqCount := envInt("REQS", 9000)

	fmt.Println("Setting up test data...")
	_ = must(repo.DeleteAll(ctx))
	ids := make([]string, postCount)
	posts := make([]*model.Post, postCount)
	base := time.Now().Add(-time.Duration(postCount) * time.Second)
	for i := range posts {
		content := fmt.Sprintf("Content %d", i+1)
		ids[i] = uuid.NewString()
		posts[i] = &model.Post{
			ID:        ids[i],
			Title:     fmt.Sprintf("Post %d", i+1),
			Content:   &content,
			Published: i%2 == 0,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	mustDo(repo.CreateBatch(ctx, posts, 1000))
	fmt.Printf("Test data ready: %d posts\n", postCount)

	// 未设置 REDIS_ADDR 时使用进程内 miniredis
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		mr := must(miniredis.Run())
		defer mr.Close()
		redisAddr = mr.Addr()
	}
	client := must(cache.NewRedisClient(ctx, redisAddr, "", 0))
	defer client.Close()
	postCache := cache.NewRedisPostCache(client, cfg.Redis.TTL)

	reqs := makeRequests(reqCount, ids)

	noCache := runScenario(ctx, client, nil, reqs, false, service.NewPostService(repo, nil))
	readThrough := runScenario(ctx, client, postCache, reqs, false, service.NewPostService(repo, postCache))

	warmer := service.NewCacheWarmer(postCache, 4096)
	stop := warmer.Start(4)
	warmed := runScenario(ctx, client, postCache, reqs, true, service.NewPostService(repo, postCache, service.WithWarmer(warmer)))
	mustDo(stop(ctx))
	landing := drain(warmer.Metrics())

	fmt.Printf("\nPost read latency (%d req, %d posts, %s + Redis)\n", reqCount, postCount, cfg.Database.Driver)
	report("No cache", noCache)
	report("Read-through", readThrough)
	report("Read-through+warm", warmed)
	if len(landing) > 0 {
		fmt.Printf("Warm landing: samples=%d, p50=%v, p95=%v, p99=%v\n",
			len(landing), pct(landing, 0.50), pct(landing, 0.95), pct(landing, 0.99))
	}
}

func report(name string, r scenarioResult) {
	fmt.Printf("%-18s avg=%v p95=%v p99=%v hits=%d misses=%d cache_keys=%d mem=%s\n",
		name, avg(r.durations), pct(r.durations, 0.95), pct(r.durations, 0.99),
		r.counters.Hits, r.counters.Misses, r.cacheKeys, formatBytes(r.memoryBytes))
}

func runScenario(ctx context.Context, client *redis.Client, pc *cache.RedisPostCache, reqs []request, listFirst bool, svc service.PostService) scenarioResult {
	client.FlushAll(ctx)
	if pc != nil {
		pc.ResetCounters()
	}

	if listFirst {
		fmt.Print("  Listing first pages...")
		for skip := 0; skip < 500; skip += 50 {
			_ = must(svc.List(ctx, skip, 50))
		}
		time.Sleep(200 * time.Millisecond)
		fmt.Println(" done")
	}

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		if r.list {
			_ = must(svc.List(ctx, r.skip, 10))
		} else {
			_ = must(svc.Get(ctx, r.id))
		}
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	res := scenarioResult{durations: out}
	if pc != nil {
		res.counters = pc.Counters()
	}
	keys, _ := client.Keys(ctx, "post:*").Result()
	res.cacheKeys = len(keys)
	if info, err := client.Info(ctx, "memory").Result(); err == nil {
		res.memoryBytes = parseRedisMemory(info)
	}
	return res
}

// makeRequests 大部分读集中在最新的几百篇，少量深翻页
func makeRequests(n int, ids []string) []request {
	out := make([]request, n)
	rnd := rand.New(rand.NewSource(42))
	hot := len(ids) / 10
	if hot < 1 {
		hot = 1
	}
	for i := range out {
		switch x := rnd.Float64(); {
		case x < 0.1:
			out[i] = request{list: true, skip: rnd.Intn(len(ids))}
		case x < 0.82:
			out[i] = request{id: ids[len(ids)-1-rnd.Intn(hot)]}
		default:
			out[i] = request{id: ids[rnd.Intn(len(ids))]}
		}
	}
	return out
}

func drain(ch <-chan time.Duration) []time.Duration {
	var out []time.Duration
	for {
		select {
		case d := <-ch:
			out = append(out, d)
		default:
			return out
		}
	}
}

// parseRedisMemory 取 INFO memory 中的 used_memory
func parseRedisMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err == nil {
				return n
			}
		}
	}
	return 0
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
