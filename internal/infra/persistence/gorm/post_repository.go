package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// GormPostRepository 是 PostRepository 接口的 GORM 实现
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository 创建 GormPostRepository 实例
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPostRepository")
	}
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) Create(ctx context.Context, post *domain.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("gorm: create post (author: %d, title: %s): %w", post.AuthorID, post.Title, err)
	}
	return nil
}

func (r *GormPostRepository) FindByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPostNotFound
		}
		return nil, fmt.Errorf("gorm: find post by id %d: %w", id, err)
	}
	return &post, nil
}

// Update 使用 map 更新，空字符串也会被写入。
func (r *GormPostRepository) Update(ctx context.Context, post *domain.Post) error {
	err := r.db.WithContext(ctx).Model(post).Updates(map[string]interface{}{
		"title":    post.Title,
		"content":  post.Content,
		"tags":     post.Tags,
		"category": post.Category,
	}).Error
	if err != nil {
		return fmt.Errorf("gorm: update post %d: %w", post.ID, err)
	}
	return nil
}

// Delete 删除文章，并在同一事务中级联删除其评论。
func (r *GormPostRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return fmt.Errorf("gorm: delete comments of post %d: %w", id, err)
		}
		result := tx.Delete(&domain.Post{}, id)
		if result.Error != nil {
			return fmt.Errorf("gorm: delete post %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return repository.ErrPostNotFound
		}
		return nil
	})
}

func (r *GormPostRepository) ListByAuthor(ctx context.Context, authorID uint) ([]domain.Post, error) {
	posts := make([]domain.Post, 0)
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("id asc").Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list posts by author %d: %w", authorID, err)
	}
	return posts, nil
}

// SearchCandidates 用 LIKE 预筛选，大小写规则取决于数据库排序规则。
func (r *GormPostRepository) SearchCandidates(ctx context.Context, keyword string) ([]domain.Post, error) {
	posts := make([]domain.Post, 0)
	pattern := containsPattern(keyword)
	err := r.db.WithContext(ctx).
		Where("title LIKE ? ESCAPE '!' OR content LIKE ? ESCAPE '!' OR tags LIKE ? ESCAPE '!'", pattern, pattern, pattern).
		Order("id asc").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: search posts for '%s': %w", keyword, err)
	}
	return posts, nil
}

func (r *GormPostRepository) Filter(ctx context.Context, filter repository.PostFilter) ([]domain.Post, error) {
	posts := make([]domain.Post, 0)
	query := r.db.WithContext(ctx).Model(&domain.Post{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at < ?", filter.To)
	}
	if err := query.Order("id asc").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("gorm: filter posts (category: %s, from: %v, to: %v): %w", filter.Category, filter.From, filter.To, err)
	}
	return posts, nil
}
