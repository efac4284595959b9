package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一 JSON 响应结构（动作接口与嵌入脚本约定一致）
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Notice 页面右上角的提示（对应前端 showNotification）
type Notice struct {
	Level   string `json:"level"` // success | error | warning | info
	Message string `json:"message"`
}

// ActionResult 动作执行结果，由嵌入脚本应用到 DOM
type ActionResult struct {
	Notice *Notice `json:"notice,omitempty"`
	// HTML 替换 Target 选择器对应节点的 innerHTML
	HTML   string `json:"html,omitempty"`
	Target string `json:"target,omitempty"`
	// View 非空时脚本重新加载该视图（含查询串）
	View string `json:"view,omitempty"`
	// Redirect 整页跳转
	Redirect string `json:"redirect,omitempty"`
	// KeepOpen 为 true 时不关闭当前模态框
	KeepOpen bool `json:"keep_open,omitempty"`
}

// ── 提示构造 ──

func Success(msg string) *Notice { return &Notice{Level: "success", Message: msg} }
func Failure(msg string) *Notice { return &Notice{Level: "error", Message: msg} }
func Warning(msg string) *Notice { return &Notice{Level: "warning", Message: msg} }

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Action 200 动作结果；业务失败也返回 200，由 notice 区分
func Action(c *gin.Context, result *ActionResult) {
	code := 0
	msg := "success"
	if result != nil && result.Notice != nil && result.Notice.Level != "success" {
		code = 20000
		msg = result.Notice.Message
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: msg,
		Data:    result,
	})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "Lỗi hệ thống, vui lòng thử lại")
}
