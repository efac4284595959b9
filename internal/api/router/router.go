package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
	"tocotoco-hr/portal/internal/api/handler"
	"tocotoco-hr/portal/internal/api/middleware"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/service"
	"tocotoco-hr/portal/internal/view"
	"tocotoco-hr/portal/pkg/redis"
	"tocotoco-hr/portal/pkg/response"
)

const maxBodyBytes = 8 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时速率限制降级放行
func Setup(cfg *config.Config, h *handler.Handler, authSvc service.AuthService, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders(cfg.Auth.Cookie.Secure))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})
	r.StaticFS("/static", view.Static())

	// ── 登录（无需会话） ──
	loginLimit := middleware.RateLimit(rdb, "login", 10, time.Minute)
	r.GET("/login", h.Auth.LoginPage)
	r.POST("/login", loginLimit, h.Auth.Login)
	r.POST("/logout", h.Auth.Logout)

	// ── 需要会话的路由 ──
	authorized := r.Group("")
	authorized.Use(middleware.SessionAuth(authSvc, cfg.Auth.Cookie.Name))
	{
		authorized.GET("/", h.View.Root)
		authorized.GET("/app/:view", h.View.Page)
		authorized.GET("/views/:view", h.View.Fragment)
		authorized.POST("/actions/:action", middleware.RateLimit(rdb, "actions", 120, time.Minute), h.Action.Dispatch)

		// 文件下载
		export := authorized.Group("/export")
		{
			export.GET("/timesheet.xlsx", middleware.RequireView(permission.ViewTimesheet), h.Export.Timesheet)
			export.GET("/shifts.xlsx", middleware.RequireView(permission.ViewShiftAssignment), h.Export.ShiftGrid)
			export.GET("/shifts.ics", middleware.RequireView(permission.ViewWorkShifts), h.Export.ShiftsICS)
			export.GET("/profile.xlsx", middleware.RequireView(permission.ViewPersonalInfo), h.Export.Profile)
		}
		authorized.GET("/stores/:id/qr.png", middleware.RequireView(permission.ViewShiftAssignment), h.Export.StoreQR)
	}

	return r
}
