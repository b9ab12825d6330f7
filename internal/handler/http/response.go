package http

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"minimal-blog/internal/middleware"
)

// flashCookie 保存一次性提示消息，下一次请求读取后清除。
const flashCookie = "flash"

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// RespondOrRedirect 对浏览器设置提示消息并 303 重定向到 location，
// 对 JSON 客户端返回 code 和 data。
func RespondOrRedirect(c *gin.Context, code int, data interface{}, location, flash string) {
	if middleware.WantsHTML(c) {
		if flash != "" {
			setFlash(c, flash)
		}
		c.Redirect(http.StatusSeeOther, location)
		return
	}
	SuccessResponse(c, code, data)
}

func setFlash(c *gin.Context, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, url.QueryEscape(message), 60, "/", "", false, true)
}

// popFlash 读取并清除提示消息。
func popFlash(c *gin.Context) string {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	message, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return message
}
