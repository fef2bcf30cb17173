package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/zenblog/config"
	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/internal/repository"
	"github.com/d60-Lab/zenblog/pkg/database"
	"github.com/d60-Lab/zenblog/pkg/logger"
)

var words = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit",
	"sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore", "et", "dolore",
	"magna", "aliqua", "enim", "ad", "minim", "veniam", "quis", "nostrud",
	"exercitation", "ullamco", "laboris", "nisi", "aliquip", "commodo", "consequat",
}

func sentence(r *rand.Rand, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[r.Intn(len(words))]
	}
	s := strings.Join(parts, " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func paragraphs(r *rand.Rand, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = sentence(r, 12+r.Intn(20)) + "."
	}
	return strings.Join(ps, "\n\n")
}

// randomPosts 生成 n 篇文章，创建时间从早到晚间隔一秒
func randomPosts(r *rand.Rand, n int, start time.Time) []*model.Post {
	posts := make([]*model.Post, n)
	for i := range posts {
		ts := start.Add(time.Duration(i) * time.Second)
		content := paragraphs(r, 1+r.Intn(3))
		posts[i] = &model.Post{
			ID:        uuid.New().String(),
			Title:     sentence(r, 3+r.Intn(5)),
			Content:   &content,
			Published: r.Intn(2) == 0,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
	}
	return posts
}

func seedMain(cmd *cobra.Command, _ []string) error {
	n, err := cmd.Flags().GetInt("count")
	if err != nil {
		return err
	}
	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}
	reset, err := cmd.Flags().GetBool("reset")
	if err != nil {
		return err
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}
	repo := repository.NewPostRepository(db)
	ctx := context.Background()

	if reset {
		deleted, err := repo.DeleteAll(ctx)
		if err != nil {
			return err
		}
		logger.Info("posts deleted", zap.Int64("count", deleted))
	}
	if n <= 0 {
		return nil
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now().Add(-time.Duration(n) * time.Second)
	posts := randomPosts(r, n, start)

	t0 := time.Now()
	for i := 0; i < len(posts); i += batch {
		end := i + batch
		if end > len(posts) {
			end = len(posts)
		}
		if err := repo.CreateBatch(ctx, posts[i:end], batch); err != nil {
			return fmt.Errorf("seed batch %d: %w", i/batch, err)
		}
		logger.Debug("batch inserted", zap.Int("from", i), zap.Int("to", end))
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("seed finished",
		zap.Int("inserted", n),
		zap.Int64("total", total),
		zap.Duration("took", time.Since(t0)))
	return nil
}

func main() {
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Fills the posts table with random posts",
		RunE:         seedMain,
		SilenceUsage: true,
	}
	cmd.Flags().IntP("count", "n", 10000, "Number of posts to insert")
	cmd.Flags().Int("batch", 1000, "Insert batch size")
	cmd.Flags().Bool("reset", false, "Delete all posts before seeding")
	cmd.Flags().String("config", "", "Config file path")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
