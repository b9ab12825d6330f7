package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"minimal-blog/internal/middleware"
	"minimal-blog/internal/service"
)

// AuthHandler 封装了与用户认证相关的 HTTP 处理逻辑
type AuthHandler struct {
	authService  *service.AuthService
	secureCookie bool
}

// NewAuthHandler 创建 AuthHandler 实例。
// secureCookie 为 true 时会话 cookie 只通过 HTTPS 发送。
func NewAuthHandler(authService *service.AuthService, secureCookie bool) *AuthHandler {
	if authService == nil {
		panic("AuthService cannot be nil for AuthHandler")
	}
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

// CredentialsRequest 是注册和登录共用的表单
type CredentialsRequest struct {
	Username string `form:"username" json:"username" binding:"required,max=80"`
	Password string `form:"password" json:"password" binding:"required"`
}

// LoginResponse 定义登录成功的响应结构体
type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterForm 处理 GET /registro
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": []string{"username", "password"}})
}

// Register 处理 POST /registro
func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Register: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	newUser, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	RespondOrRedirect(c, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    newUser,
	}, "/login", "Registration successful, please log in")
}

// LoginForm 处理 GET /login
func (h *AuthHandler) LoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": []string{"username", "password"}, "flash": popFlash(c)})
}

// Login 处理 POST /login，成功后写入会话 cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	session, token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.secureCookie, true)

	RespondOrRedirect(c, http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, "/dashboard", "")
}

// Logout 处理 GET /logout，删除服务端会话并清除 cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), session); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	RespondOrRedirect(c, http.StatusOK, gin.H{"message": "Logged out"}, "/login", "You have been logged out")
}
