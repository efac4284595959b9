package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/service"
	"tocotoco-hr/portal/pkg/response"
)

// ActorKey gin 上下文中当前调用者的键
const ActorKey = "actor"

// SessionAuth 会话认证中间件
// 从 Cookie 读取会话 token 并恢复 Actor；
// 页面请求失败时跳转登录页，片段与动作请求返回 401 由脚本处理
func SessionAuth(authSvc service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			unauthenticated(c, cookieName)
			return
		}

		actor, err := authSvc.Resolve(c.Request.Context(), token)
		if err != nil {
			unauthenticated(c, cookieName)
			return
		}

		c.Set(ActorKey, actor)
		c.Set("employee_id", actor.User.EmployeeID)
		c.Set("role", actor.Role())

		c.Next()
	}
}

func unauthenticated(c *gin.Context, cookieName string) {
	// 清掉失效的 Cookie
	c.SetCookie(cookieName, "", -1, "/", "", false, true)

	if isPageRequest(c) {
		next := c.Request.URL.RequestURI()
		c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(next))
		c.Abort()
		return
	}
	response.Unauthorized(c, 10002, service.ErrSessionExpired.Error())
	c.Abort()
}

// isPageRequest 整页导航（非脚本发起）的请求
func isPageRequest(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet {
		return false
	}
	if c.GetHeader("X-Requested-With") != "" {
		return false
	}
	p := c.Request.URL.Path
	return p == "/" || strings.HasPrefix(p, "/app") || strings.HasPrefix(p, "/export") || strings.HasPrefix(p, "/stores")
}

// RequireView 视图权限中间件
// 检查当前角色能否打开指定视图，用于不经过视图分发的下载接口
func RequireView(view string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, service.ErrSessionExpired.Error())
			c.Abort()
			return
		}

		if permission.CanView(role.(string), view) {
			c.Next()
			return
		}

		response.Forbidden(c, 10003, service.ErrAccessDenied.Error())
		c.Abort()
	}
}
