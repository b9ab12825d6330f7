package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"minimal-blog/internal/service"
)

// ProfileHandler 处理个人资料与关注关系
type ProfileHandler struct {
	profiles *service.ProfileService
	follows  *service.FollowService
}

func NewProfileHandler(profiles *service.ProfileService, follows *service.FollowService) *ProfileHandler {
	if profiles == nil || follows == nil {
		panic("ProfileService and FollowService cannot be nil for ProfileHandler")
	}
	return &ProfileHandler{profiles: profiles, follows: follows}
}

// ProfileRequest 是个人资料表单，日期格式 YYYY-MM-DD
type ProfileRequest struct {
	Name        string `form:"name" json:"name" binding:"max=100"`
	Email       string `form:"email" json:"email" binding:"omitempty,email,max=120"`
	DateOfBirth string `form:"date_of_birth" json:"date_of_birth"`
}

// GetProfile 处理 GET /perfil
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	user, err := h.profiles.GetProfile(c.Request.Context(), session)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "flash": popFlash(c)})
}

// UpdateProfile 处理 POST /perfil
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	user, err := h.profiles.UpdateProfile(c.Request.Context(), session, service.ProfileInput{
		Name:        req.Name,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	RespondOrRedirect(c, http.StatusOK, gin.H{"user": user}, "/perfil", "Profile updated")
}

// Follow 处理 POST /seguir/:username
func (h *ProfileHandler) Follow(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	user, err := h.follows.Follow(c.Request.Context(), session, c.Param("username"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	RespondOrRedirect(c, http.StatusOK, gin.H{"following": user.Username}, "/seguidores", "You are now following "+user.Username)
}

// Unfollow 处理 POST /dejar_de_seguir/:username
func (h *ProfileHandler) Unfollow(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	user, err := h.follows.Unfollow(c.Request.Context(), session, c.Param("username"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	RespondOrRedirect(c, http.StatusOK, gin.H{"unfollowed": user.Username}, "/seguidores", "You stopped following "+user.Username)
}

// Followers 处理 GET /seguidores，返回关注者与正在关注的用户
func (h *ProfileHandler) Followers(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	followers, err := h.follows.ListFollowers(c.Request.Context(), session.UserID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	following, err := h.follows.ListFollowing(c.Request.Context(), session.UserID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": followers, "following": following, "flash": popFlash(c)})
}
