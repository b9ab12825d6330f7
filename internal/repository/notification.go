package repository

import (
	"context"

	"minimal-blog/internal/domain"
)

// NotificationRepository 定义了通知的存储操作。
type NotificationRepository interface {
	// CreateBatch 在一次写入中保存一批通知，成功后填充 ID。
	CreateBatch(ctx context.Context, notifications []domain.Notification) error

	Create(ctx context.Context, notification *domain.Notification) error

	// ListByUser 按时间倒序返回用户的通知。
	ListByUser(ctx context.Context, userID uint) ([]domain.Notification, error)
}
