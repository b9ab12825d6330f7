package repository

import (
	"context"

	"minimal-blog/internal/domain"
)

// CommentRepository 定义了评论的存储操作。
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id uint) (*domain.Comment, error)
	Delete(ctx context.Context, id uint) error
	// ListByPost 按创建顺序返回文章的评论。
	ListByPost(ctx context.Context, postID uint) ([]domain.Comment, error)
}
