package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/d60-Lab/zenblog/internal/cache"
	"github.com/d60-Lab/zenblog/internal/model"
	"github.com/d60-Lab/zenblog/internal/repository"
	"github.com/d60-Lab/zenblog/internal/validation"
	"github.com/d60-Lab/zenblog/pkg/logger"
)

// ErrPostNotFound 透传仓储层的不存在错误，供 handler 映射 404
var ErrPostNotFound = repository.ErrPostNotFound

// PostService 文章服务
type PostService interface {
	List(ctx context.Context, skip, take int) (*model.PostPage, error)
	Create(ctx context.Context, in *validation.PostCreate) (*model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	Update(ctx context.Context, id string, in *validation.PostUpdate) (*model.Post, error)
	Delete(ctx context.Context, id string) error
	Health(ctx context.Context) error
}

type postService struct {
	repo   repository.PostRepository
	cache  cache.PostCache
	warmer *CacheWarmer
}

type Option func(*postService)

// WithWarmer 列表结果交给 warmer 预热单篇缓存
func WithWarmer(w *CacheWarmer) Option {
	return func(s *postService) { s.warmer = w }
}

// NewPostService postCache 可为 nil，此时不使用缓存
func NewPostService(repo repository.PostRepository, postCache cache.PostCache, opts ...Option) PostService {
	if postCache == nil {
		postCache = cache.NopPostCache{}
	}
	s := &postService{repo: repo, cache: postCache}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *postService) List(ctx context.Context, skip, take int) (*model.PostPage, error) {
	skip, take = repository.NormalizePage(skip, take)
	logger.Debug("Fetching posts from database", zap.Int("skip", skip), zap.Int("take", take))

	posts, total, err := s.repo.List(ctx, skip, take)
	if err != nil {
		logger.Error("Error fetching posts", zap.Error(err), zap.Int("skip", skip), zap.Int("take", take))
		return nil, err
	}
	logger.Info("Fetched posts successfully", zap.Int("count", len(posts)), zap.Int64("totalPosts", total))
	if s.warmer != nil {
		s.warmer.Enqueue(posts...)
	}
	return &model.PostPage{Posts: posts, TotalPosts: total}, nil
}

func (s *postService) Create(ctx context.Context, in *validation.PostCreate) (*model.Post, error) {
	post := in.ToModel()
	if err := s.repo.Create(ctx, post); err != nil {
		logger.Error("Error creating post", zap.Error(err))
		return nil, err
	}
	logger.Info("Post created successfully",
		zap.String("postId", post.ID),
		zap.String("title", post.Title),
		zap.Bool("published", post.Published),
	)
	return post, nil
}

func (s *postService) Get(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.cache.GetPost(ctx, id)
	if err == nil {
		logger.Debug("Post served from cache", zap.String("id", id))
		return post, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Warn("Post cache read failed", zap.String("id", id), zap.Error(err))
	}

	post, err = s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPostNotFound) {
		logger.Warn("Post not found", zap.String("id", id))
		return nil, err
	}
	if err != nil {
		logger.Error("Error fetching post", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	// 只在 key 为空时写入，变更留下的删除标记会挡住这次可能过期的读
	if _, err := s.cache.AddPost(ctx, post); err != nil {
		logger.Warn("Post cache write failed", zap.String("id", id), zap.Error(err))
	}
	logger.Info("Post fetched successfully", zap.String("id", id))
	return post, nil
}

func (s *postService) Update(ctx context.Context, id string, in *validation.PostUpdate) (*model.Post, error) {
	cols := in.Columns()
	post, err := s.repo.Update(ctx, id, cols)
	if errors.Is(err, repository.ErrPostNotFound) {
		logger.Warn("Post not found while updating", zap.String("id", id))
		return nil, err
	}
	if err != nil {
		logger.Error("Error updating post", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.evict(ctx, id)
	logger.Info("Post updated successfully", zap.String("id", id), zap.Any("updatedFields", cols))
	return post, nil
}

func (s *postService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrPostNotFound) {
		logger.Warn("Post not found while deleting", zap.String("id", id))
		return err
	}
	if err != nil {
		logger.Error("Error deleting post", zap.String("id", id), zap.Error(err))
		return err
	}
	s.evict(ctx, id)
	logger.Info("Post deleted successfully", zap.String("id", id))
	return nil
}

func (s *postService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *postService) evict(ctx context.Context, id string) {
	if err := s.cache.DeletePost(ctx, id); err != nil {
		logger.Warn("Post cache evict failed", zap.String("id", id), zap.Error(err))
	}
}
