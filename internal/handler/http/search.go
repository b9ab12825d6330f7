package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"minimal-blog/internal/service"
)

// SearchHandler 处理关键字搜索和筛选
type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	if search == nil {
		panic("SearchService cannot be nil for SearchHandler")
	}
	return &SearchHandler{search: search}
}

// SearchRequest 可以来自查询参数或表单
type SearchRequest struct {
	Keyword string `form:"keyword" json:"keyword"`
}

// FilterRequest 可以来自查询参数或表单
type FilterRequest struct {
	Category string `form:"categoria" json:"categoria"`
	Date     string `form:"fecha" json:"fecha"`
}

// Search 处理 GET/POST /buscar
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	posts, err := h.search.Search(c.Request.Context(), req.Keyword)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keyword": req.Keyword, "posts": posts})
}

// Filter 处理 GET/POST /filtrar
func (h *SearchHandler) Filter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	posts, err := h.search.Filter(c.Request.Context(), req.Category, req.Date)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categoria": req.Category, "fecha": req.Date, "posts": posts})
}
