package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// GormFollowRepository 是 FollowRepository 接口的 GORM 实现
type GormFollowRepository struct {
	db *gorm.DB
}

func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	if db == nil {
		panic("database connection cannot be nil for GormFollowRepository")
	}
	return &GormFollowRepository{db: db}
}

func (r *GormFollowRepository) Create(ctx context.Context, follow *domain.Follow) error {
	err := r.db.WithContext(ctx).Create(follow).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create follow (%d -> %d): %w", follow.FollowerID, follow.FolloweeID, err)
	}
	return nil
}

func (r *GormFollowRepository) Delete(ctx context.Context, followerID, followeeID uint) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&domain.Follow{}).Error
	if err != nil {
		return fmt.Errorf("gorm: delete follow (%d -> %d): %w", followerID, followeeID, err)
	}
	return nil
}

func (r *GormFollowRepository) ListFollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("followee_id = ?", userID).
		Order("id asc").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list follower ids of user %d: %w", userID, err)
	}
	return ids, nil
}

func (r *GormFollowRepository) ListFollowers(ctx context.Context, userID uint) ([]domain.User, error) {
	users := make([]domain.User, 0)
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", userID).
		Order("follows.id asc").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list followers of user %d: %w", userID, err)
	}
	return users, nil
}

func (r *GormFollowRepository) ListFollowing(ctx context.Context, userID uint) ([]domain.User, error) {
	users := make([]domain.User, 0)
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.id asc").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list followees of user %d: %w", userID, err)
	}
	return users, nil
}
