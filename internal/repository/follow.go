package repository

import (
	"context"

	"minimal-blog/internal/domain"
)

// FollowRepository 定义了关注关系的存储操作。
type FollowRepository interface {
	// Create 保存关注关系，重复关注时返回 ErrDuplicateEntry。
	Create(ctx context.Context, follow *domain.Follow) error

	// Delete 删除关注关系，关系不存在时不报错。
	Delete(ctx context.Context, followerID, followeeID uint) error

	// ListFollowerIDs 返回关注 userID 的全部用户 ID。
	ListFollowerIDs(ctx context.Context, userID uint) ([]uint, error)

	ListFollowers(ctx context.Context, userID uint) ([]domain.User, error)
	ListFollowing(ctx context.Context, userID uint) ([]domain.User, error)
}
