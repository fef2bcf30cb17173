package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/zenblog/internal/model"
)

const (
	// DefaultTake 未指定或非法 take 时的每页数量
	DefaultTake = 10
	// MaxTake 单页上限
	MaxTake = 100
)

// ErrPostNotFound 文章不存在
var ErrPostNotFound = errors.New("post not found")

// PostRepository 文章仓储接口
type PostRepository interface {
	// List 按创建时间倒序分页，返回当页文章与总行数
	List(ctx context.Context, skip, take int) ([]*model.Post, int64, error)
	Create(ctx context.Context, post *model.Post) error
	// CreateBatch 批量插入（数据填充）
	CreateBatch(ctx context.Context, posts []*model.Post, batchSize int) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// Update 仅更新 fields 中给出的列
	Update(ctx context.Context, id string, fields map[string]any) (*model.Post, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

// NormalizePage 规整分页参数：skip 不小于 0，take 非法时取默认值且不超过上限
func NormalizePage(skip, take int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if take < 1 {
		take = DefaultTake
	}
	if take > MaxTake {
		take = MaxTake
	}
	return skip, take
}

func (r *postRepository) List(ctx context.Context, skip, take int) ([]*model.Post, int64, error) {
	skip, take = NormalizePage(skip, take)

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := make([]*model.Post, 0, take)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(take).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) CreateBatch(ctx context.Context, posts []*model.Post, batchSize int) error {
	if len(posts) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	for _, p := range posts {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
	}
	return r.db.WithContext(ctx).CreateInBatches(posts, batchSize).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, id string, fields map[string]any) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&post).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		cols := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			cols[k] = v
		}
		cols["updated_at"] = time.Now()
		res := tx.Model(&model.Post{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&post).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Count(&count).Error
	return count, err
}

func (r *postRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Post{})
	return res.RowsAffected, res.Error
}

func (r *postRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
