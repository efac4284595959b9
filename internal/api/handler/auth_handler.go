package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/service"
	"tocotoco-hr/portal/internal/view"
	pkgerrors "tocotoco-hr/portal/pkg/errors"
)

// AuthHandler 登录 / 登出
type AuthHandler struct {
	authSvc service.AuthService
	r       *view.Renderer
	cookie  config.CookieConfig
	logger  *zap.Logger
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, r *view.Renderer, cfg *config.AuthConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, r: r, cookie: cfg.Cookie, logger: logger}
}

// LoginPage 登录页
// GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	h.renderLogin(c, http.StatusOK, &view.LoginPage{Next: safeNext(c.Query("next"))})
}

// Login 提交登录表单
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	_ = c.ShouldBind(&req)
	page := &view.LoginPage{EmployeeID: req.EmployeeID, Remember: req.RememberMe, Next: safeNext(c.PostForm("next"))}

	result, err := h.authSvc.Login(c.Request.Context(), &req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			page.Error = err.Error()
			h.renderLogin(c, http.StatusUnauthorized, page)
		case errors.Is(err, service.ErrInvalidInput):
			page.Error = err.Error()
			h.renderLogin(c, http.StatusBadRequest, page)
		case errors.Is(err, pkgerrors.ErrUpstreamUnavailable):
			page.Error = msgUpstreamDown
			h.renderLogin(c, http.StatusBadGateway, page)
		case isUpstream(err):
			page.Error = pkgerrors.UserMessage(err, msgUnexpected)
			h.renderLogin(c, http.StatusBadGateway, page)
		default:
			h.logger.Error("登录失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
			page.Error = msgUnexpected
			h.renderLogin(c, http.StatusInternalServerError, page)
		}
		return
	}

	h.setCookie(c, result.Token, result.MaxAge)
	h.logger.Info("用户登录",
		zap.String("employee_id", result.User.EmployeeID),
		zap.String("role", result.User.Position),
		zap.String("session_id", result.SessionID),
	)

	next := page.Next
	if next == "" {
		next = "/app/" + permission.ViewHome
	}
	c.Redirect(http.StatusSeeOther, next)
}

// Logout 注销会话并清除 Cookie
// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil && token != "" {
		if err := h.authSvc.Logout(c.Request.Context(), token); err != nil {
			h.logger.Warn("注销会话失败", zap.Error(err))
		}
	}
	h.setCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *AuthHandler) renderLogin(c *gin.Context, status int, page *view.LoginPage) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.r.Login(c.Writer, page); err != nil {
		c.Error(err)
	}
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func sameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// safeNext 只允许站内相对路径，防止开放重定向
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return next
}
