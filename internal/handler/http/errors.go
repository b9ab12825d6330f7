package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/middleware"
	"minimal-blog/internal/service"
)

// HandleServiceError 把服务层错误映射为 HTTP 响应。
// 浏览器在无权限修改时被重定向回 /dashboard 并看到提示消息。
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		if middleware.WantsHTML(c) {
			setFlash(c, "You can only modify your own posts and comments")
			c.Redirect(http.StatusSeeOther, "/dashboard")
			return
		}
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrSessionExpired):
		if middleware.WantsHTML(c) {
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrDuplicateUsername):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// currentSession 读取 Auth 中间件写入的会话，缺失时写入 401 并返回 false。
func currentSession(c *gin.Context) (*domain.Session, bool) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		HandleServiceError(c, service.ErrUnauthenticated)
		return nil, false
	}
	return session, true
}

// parseIDParam 解析路径中的数字 ID。
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
