package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/service"
)

// PostHandler 处理文章与评论相关的请求
type PostHandler struct {
	posts    *service.PostService
	comments *service.CommentService
}

func NewPostHandler(posts *service.PostService, comments *service.CommentService) *PostHandler {
	if posts == nil || comments == nil {
		panic("PostService and CommentService cannot be nil for PostHandler")
	}
	return &PostHandler{posts: posts, comments: comments}
}

// PostRequest 是创建文章的表单
type PostRequest struct {
	Title    string `form:"title" json:"title" binding:"required,max=100"`
	Content  string `form:"content" json:"content" binding:"required"`
	Tags     string `form:"tags" json:"tags" binding:"max=100"`
	Category string `form:"category" json:"category" binding:"max=50"`
}

// EditPostRequest 是编辑文章的表单，只能修改标题和内容
type EditPostRequest struct {
	Title   string `form:"title" json:"title" binding:"required,max=100"`
	Content string `form:"content" json:"content" binding:"required"`
}

// CommentRequest 是发表评论的表单
type CommentRequest struct {
	Text string `form:"text" json:"text" binding:"required"`
}

// Dashboard 处理 GET /dashboard，列出当前用户的文章
func (h *PostHandler) Dashboard(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	posts, err := h.posts.ListPostsByAuthor(c.Request.Context(), session.UserID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "flash": popFlash(c)})
}

// NewPostForm 处理 GET /agregar_publicacion
func (h *PostHandler) NewPostForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": []string{"title", "content", "tags", "category"}})
}

// CreatePost 处理 POST /agregar_publicacion
func (h *PostHandler) CreatePost(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var req PostRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), session, service.PostInput{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Category: req.Category,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	RespondOrRedirect(c, http.StatusCreated, post, "/dashboard", "Post created successfully")
}

// EditPostForm 处理 GET /editar_publicacion/:postId，只有作者可以打开
func (h *PostHandler) EditPostForm(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "postId")
	if !ok {
		return
	}
	post, err := h.posts.GetPostForEdit(c.Request.Context(), session, postID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// EditPost 处理 POST /editar_publicacion/:postId
func (h *PostHandler) EditPost(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "postId")
	if !ok {
		return
	}
	var req EditPostRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	post, err := h.posts.EditPost(c.Request.Context(), session, postID, req.Title, req.Content)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	RespondOrRedirect(c, http.StatusOK, post, "/dashboard", "Post updated successfully")
}

// DeletePost 处理 POST /eliminar_publicacion/:postId
func (h *PostHandler) DeletePost(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "postId")
	if !ok {
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), session, postID); err != nil {
		HandleServiceError(c, err)
		return
	}
	RespondOrRedirect(c, http.StatusOK, gin.H{"message": "Post deleted"}, "/dashboard", "Post deleted successfully")
}

// PostDetail 是文章详情页返回的数据
type PostDetail struct {
	Post     *domain.Post     `json:"post"`
	Comments []domain.Comment `json:"comments"`
}

// ShowPost 处理 GET /publicacion/:postId
func (h *PostHandler) ShowPost(c *gin.Context) {
	postID, ok := parseIDParam(c, "postId")
	if !ok {
		return
	}
	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	comments, err := h.comments.ListComments(c.Request.Context(), postID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, PostDetail{Post: post, Comments: comments})
}

// AddComment 处理 POST /publicacion/:postId/comentarios
func (h *PostHandler) AddComment(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "postId")
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	comment, err := h.comments.AddComment(c.Request.Context(), session, postID, req.Text)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	RespondOrRedirect(c, http.StatusCreated, comment, "/publicacion/"+c.Param("postId"), "")
}

// DeleteComment 处理 POST /eliminar_comentario/:commentId
func (h *PostHandler) DeleteComment(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "commentId")
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(c.Request.Context(), session, commentID); err != nil {
		HandleServiceError(c, err)
		return
	}
	RespondOrRedirect(c, http.StatusOK, gin.H{"message": "Comment deleted"}, "/dashboard", "Comment deleted")
}
