package service

import (
	"errors"

	"minimal-blog/internal/repository"
)

var (
	ErrDuplicateUsername  = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("login required")
	ErrSessionExpired     = errors.New("session expired, please log in again")
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrForbidden          = errors.New("only the author may modify this resource")
	ErrValidation         = errors.New("missing or invalid input")
	ErrInternalServer     = errors.New("internal server error")
	ErrFanoutIncomplete   = errors.New("notification fan-out incomplete")
)

// mapRepoError 将仓库层的错误映射到服务层定义的错误。
// 未找到映射为 notFound，其余一律视为内部错误。
func mapRepoError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) && notFound != nil {
		return notFound
	}
	return ErrInternalServer
}
