// Package domain 定义了博客应用的数据模型。
package domain

import "time"

// User 表示一个注册用户。
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"type:varchar(80);uniqueIndex:idx_username;not null" json:"username"`
	Password    string     `gorm:"type:varchar(200);not null" json:"-"` // bcrypt hash
	Name        string     `gorm:"type:varchar(100)" json:"name"`
	Email       string     `gorm:"type:varchar(120)" json:"email"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
