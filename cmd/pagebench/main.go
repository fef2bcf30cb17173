package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/d60-Lab/zenblog/config"
	"github.com/d60-Lab/zenblog/internal/client"
	"github.com/d60-Lab/zenblog/internal/repository"
	"github.com/d60-Lab/zenblog/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDepths(def []int) []int {
	s := os.Getenv("DEPTHS")
	if s == "" {
		return def
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n >= 0 {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
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

type lister func(ctx context.Context, skip, take int) (int, error)

func measure(ctx context.Context, list lister, skip, take, rounds int) ([]time.Duration, int, error) {
	recs := make([]time.Duration, 0, rounds)
	got := 0
	for i := 0; i < rounds; i++ {
		st := time.Now()
		n, err := list(ctx, skip, take)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, time.Since(st))
		got = n
	}
	return recs, got, nil
}

// 默认直接走仓储层；设置 BASE_URL 时改为通过 HTTP 客户端访问运行中的服务
func main() {
	ctx := context.Background()
	rounds := envInt("ROUNDS", 50)
	take := envInt("PAGE", 10)
	depths := envDepths([]int{0, 100, 1000, 5000, 9000})

	var (
		list  lister
		total int64
		mode  string
	)
	if base := os.Getenv("BASE_URL"); base != "" {
		c := client.NewClient(base)
		list = func(ctx context.Context, skip, take int) (int, error) {
			page, err := c.ListPosts(ctx, skip, take)
			if err != nil {
				return 0, err
			}
			total = page.TotalPosts
			return len(page.Posts), nil
		}
		mode = "http " + base
	} else {
		cfg := must(config.Load())
		db := must(database.InitDB(cfg))
		defer database.Close(db)
		repo := repository.NewPostRepository(db)
		total = must(repo.Count(ctx))
		list = func(ctx context.Context, skip, take int) (int, error) {
			posts, _, err := repo.List(ctx, skip, take)
			return len(posts), err
		}
		mode = "db " + cfg.Database.Driver
	}

	fmt.Printf("mode=%s, ROUNDS=%d, PAGE=%d\n", mode, rounds, take)
	for _, skip := range depths {
		recs, n, err := measure(ctx, list, skip, take, rounds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip=%d: %v\n", skip, err)
			os.Exit(1)
		}
		fmt.Printf("skip=%-6d rows=%-3d avg=%-10v p50=%-10v p95=%-10v p99=%v\n",
			skip, n, avg(recs), pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
	}
	fmt.Printf("totalPosts=%d\n", total)
}
