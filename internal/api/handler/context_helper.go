package handler

import (
	"github.com/gin-gonic/gin"

	"tocotoco-hr/portal/internal/api/middleware"
	"tocotoco-hr/portal/internal/service"
	"tocotoco-hr/portal/pkg/response"
)

// MustGetActor 从 Gin 上下文中安全提取当前调用者。
// 如果会话中间件未正确注入 actor，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActor(c *gin.Context) (*service.Actor, bool) {
	v, exists := c.Get(middleware.ActorKey)
	if !exists {
		response.Unauthorized(c, 10002, service.ErrSessionExpired.Error())
		return nil, false
	}
	a, ok := v.(*service.Actor)
	if !ok || a == nil {
		response.Unauthorized(c, 10002, service.ErrSessionExpired.Error())
		return nil, false
	}
	return a, true
}
