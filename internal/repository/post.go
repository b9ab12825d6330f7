package repository

import (
	"context"
	"time"

	"minimal-blog/internal/domain"
)

// PostFilter selects posts by exact category and a created_at window [From, To).
// Zero-valued fields are not constrained.
type PostFilter struct {
	Category string
	From     time.Time
	To       time.Time
}

// PostRepository 定义了文章的存储和查询操作。
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error

	// FindByID 不存在时返回 ErrPostNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Post, error)

	// Update 覆盖已存在文章的可编辑字段。
	Update(ctx context.Context, post *domain.Post) error

	// Delete 在同一事务中删除文章及其评论。
	Delete(ctx context.Context, id uint) error

	// ListByAuthor 按插入顺序返回作者的全部文章。
	ListByAuthor(ctx context.Context, authorID uint) ([]domain.Post, error)

	// SearchCandidates returns posts whose title, content or tags may contain keyword.
	// Matching follows the store's collation and may be case-insensitive; callers refine.
	SearchCandidates(ctx context.Context, keyword string) ([]domain.Post, error)

	Filter(ctx context.Context, filter PostFilter) ([]domain.Post, error)
}
