package domain

import (
	"fmt"
	"time"
)

// Notification 是关注的用户发布新文章时生成的通知，只属于接收者。
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"` // recipient
	Message   string    `gorm:"type:varchar(200);not null" json:"message"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}

// NewPostMessage builds the notification text for a freshly published post.
func NewPostMessage(authorUsername, postTitle string) string {
	return fmt.Sprintf("New post from %s: %s", authorUsername, postTitle)
}
