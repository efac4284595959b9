package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tocotoco-hr/portal/pkg/response"
)

const msgBodyTooLarge = "Dữ liệu gửi lên quá lớn"

// BodyLimit 请求体大小限制（ICS 导入是最大的上传）
// 声明的 Content-Length 超限时直接拒绝；否则包装 Body，读取超限时由绑定报错
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, msgBodyTooLarge)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.Writer.Written() {
			return
		}
		for _, e := range c.Errors {
			var tooLarge *http.MaxBytesError
			if errors.As(e.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, msgBodyTooLarge)
				return
			}
		}
	}
}
