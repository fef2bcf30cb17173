package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/pkg/database"
)

// NewDB 返回一个独立的内存 sqlite 数据库并完成迁移
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// 共享内存库只在连接存活期间存在
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedPosts 插入 n 篇文章，创建时间按秒递增，返回值按插入顺序（最旧在前）
func SeedPosts(tb testing.TB, db *gorm.DB, n int) []*model.Post {
	tb.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := make([]*model.Post, n)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		posts[i] = &model.Post{
			ID:        uuid.NewString(),
			Title:     fmt.Sprintf("Post %d", i+1),
			Content:   model.StringPtr(fmt.Sprintf("Content %d", i+1)),
			Published: i%2 == 0,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
	}
	if n > 0 {
		if err := db.WithContext(context.Background()).CreateInBatches(&posts, 500).Error; err != nil {
			tb.Fatalf("seed posts: %v", err)
		}
	}
	return posts
}
