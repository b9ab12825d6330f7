package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"minimal-blog/internal/domain"
)

// GormNotificationRepository 是 NotificationRepository 接口的 GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	if db == nil {
		panic("database connection cannot be nil for GormNotificationRepository")
	}
	return &GormNotificationRepository{db: db}
}

// CreateBatch 批量插入一批通知。
// 切片大小由调用方控制，GORM 在一条 INSERT 中写入。
func (r *GormNotificationRepository) CreateBatch(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return fmt.Errorf("gorm: failed to save notification batch (size %d): %w", len(notifications), err)
	}
	return nil
}

func (r *GormNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("gorm: save notification for user %d: %w", notification.UserID, err)
	}
	return nil
}

func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Notification, error) {
	notifications := make([]domain.Notification, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp desc").
		Order("id desc").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list notifications for user %d: %w", userID, err)
	}
	return notifications, nil
}
