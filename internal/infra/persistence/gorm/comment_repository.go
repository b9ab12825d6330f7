package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// GormCommentRepository 是 CommentRepository 接口的 GORM 实现
type GormCommentRepository struct {
	db *gorm.DB
}

func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	if db == nil {
		panic("database connection cannot be nil for GormCommentRepository")
	}
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("gorm: create comment on post %d: %w", comment.PostID, err)
	}
	return nil
}

func (r *GormCommentRepository) FindByID(ctx context.Context, id uint) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.db.WithContext(ctx).First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCommentNotFound
		}
		return nil, fmt.Errorf("gorm: find comment by id %d: %w", id, err)
	}
	return &comment, nil
}

func (r *GormCommentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Comment{}, id)
	if result.Error != nil {
		return fmt.Errorf("gorm: delete comment %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrCommentNotFound
	}
	return nil
}

func (r *GormCommentRepository) ListByPost(ctx context.Context, postID uint) ([]domain.Comment, error) {
	comments := make([]domain.Comment, 0)
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("id asc").Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list comments of post %d: %w", postID, err)
	}
	return comments, nil
}
