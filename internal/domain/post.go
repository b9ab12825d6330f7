package domain

import "time"

// Post 表示一篇博客文章，只有作者可以修改或删除。
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(100);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Tags      string    `gorm:"type:varchar(100)" json:"tags"`
	Category  string    `gorm:"type:varchar(50);index" json:"category"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsOwnedBy reports whether userID is the post's author.
func (p *Post) IsOwnedBy(userID uint) bool {
	return p != nil && p.AuthorID == userID
}
