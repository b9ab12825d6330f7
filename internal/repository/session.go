package repository

import (
	"context"

	"minimal-blog/internal/domain"
)

// SessionRepository 保存服务端会话，由 Redis 或数据库实现。
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error

	// FindByID 不存在（或已过期被清除）时返回 ErrSessionNotFound。
	FindByID(ctx context.Context, id string) (*domain.Session, error)

	// Delete 删除会话，会话不存在时不报错。
	Delete(ctx context.Context, id string) error
}
