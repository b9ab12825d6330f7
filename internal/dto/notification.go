package dto

import (
	"time"

	"minimal-blog/internal/domain"
)

// 推送给 WebSocket 客户端的消息类型
const (
	TypeNotification = "notification"
	TypeError        = "error"
)

// NotificationDTO 表示推送给客户端的一条新通知
type NotificationDTO struct {
	Type      string    `json:"type"`
	ID        uint      `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// FromNotification 把通知转换为推送消息
func FromNotification(n domain.Notification) NotificationDTO {
	return NotificationDTO{
		Type:      TypeNotification,
		ID:        n.ID,
		Message:   n.Message,
		Timestamp: n.Timestamp,
	}
}

// ErrorDTO 表示发送给客户端的错误消息数据结构
type ErrorDTO struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
