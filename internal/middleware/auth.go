package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/service"
)

// SessionCookie 是保存会话 token 的 cookie 名称。
const SessionCookie = "session"

// Gin 上下文中的键
const (
	ContextUserID  = "user_id"
	ContextSession = "session"
)

// Authenticator 校验会话 token，由 *service.AuthService 实现。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// ErrMissingAuthHeader 表示请求既没有会话 cookie 也没有 Authorization 头
var ErrMissingAuthHeader = errors.New("missing session cookie or Authorization header")

// errMalformedAuthHeader 表示 Authorization 头不是 "Bearer <token>" 格式
var errMalformedAuthHeader = errors.New("malformed Authorization header")

// Auth 返回要求登录的中间件。
// 未登录时 JSON 客户端得到 401，浏览器被重定向到 /login。
func Auth(authn Authenticator) gin.HandlerFunc {
	if authn == nil {
		panic("Authenticator cannot be nil for Auth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			logrus.WithError(err).Debug("Auth middleware: no usable token")
			rejectAnonymous(c, "Login required")
			return
		}

		session, err := authn.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSessionExpired):
				rejectAnonymous(c, err.Error())
			case errors.Is(err, service.ErrUnauthenticated):
				rejectAnonymous(c, "Invalid or expired session")
			default:
				logrus.WithError(err).Error("Auth middleware: session lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not verify session"})
			}
			return
		}

		c.Set(ContextUserID, session.UserID)
		c.Set(ContextSession, session)
		logrus.WithField("user_id", session.UserID).Debug("Auth middleware: User authenticated")
		c.Next()
	}
}

// CurrentSession 返回 Auth 中间件写入的会话。
func CurrentSession(c *gin.Context) (*domain.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	session, ok := v.(*domain.Session)
	return session, ok && session != nil
}

// WantsHTML reports whether the client is a browser expecting pages
// rather than JSON.
func WantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

func rejectAnonymous(c *gin.Context, message string) {
	if WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// extractToken 优先读取 Bearer token，其次读取会话 cookie
func extractToken(c *gin.Context) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", errMalformedAuthHeader
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", ErrMissingAuthHeader
}
