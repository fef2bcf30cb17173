package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/internal/testutil"
)

func BenchmarkPostCreate(b *testing.B) {
	db := testutil.NewDB(b)
	repo := NewPostRepository(db)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = repo.Create(ctx, &model.Post{Title: fmt.Sprintf("p%d", i), Content: model.StringPtr("c"), Published: true})
	}
}

func BenchmarkPostListDepth(b *testing.B) {
	db := testutil.NewDB(b)
	testutil.SeedPosts(b, db, 5000)
	repo := NewPostRepository(db)
	ctx := context.Background()

	b.ResetTimer()
	for _, skip := range []int{0, 500, 4900} {
		b.Run(fmt.Sprintf("skip=%d", skip), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _, _ = repo.List(ctx, skip, 10)
			}
		})
	}
}
