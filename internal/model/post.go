package model

import "time"

// Post 博客文章
type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" gorm:"type:text;not null"`
	Content   *string   `json:"content" gorm:"type:text"`
	Published bool      `json:"published" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_post_created"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }

// PostPage 一页文章及查询时的总数
type PostPage struct {
	Posts      []*Post `json:"posts"`
	TotalPosts int64   `json:"totalPosts"`
}

// StringPtr 便于构造可空字段
func StringPtr(s string) *string { return &s }
