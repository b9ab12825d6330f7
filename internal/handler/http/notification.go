package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"minimal-blog/internal/service"
)

// NotificationHandler 列出当前用户的通知
type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	if notifications == nil {
		panic("NotificationService cannot be nil for NotificationHandler")
	}
	return &NotificationHandler{notifications: notifications}
}

// List 处理 GET /notificaciones，最新的在前
func (h *NotificationHandler) List(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	notifications, err := h.notifications.ListNotifications(c.Request.Context(), session)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
