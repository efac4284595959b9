package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── Mock AuthService ──

type mockAuthService struct {
	actors map[string]*service.Actor
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest, _, _ string) (*dto.LoginResult, error) {
	return nil, service.ErrInvalidCredentials
}
func (m *mockAuthService) Resolve(_ context.Context, token string) (*service.Actor, error) {
	if a, ok := m.actors[token]; ok {
		return a, nil
	}
	return nil, service.ErrSessionExpired
}
func (m *mockAuthService) Logout(_ context.Context, _ string) error { return nil }
func (m *mockAuthService) Refresh(_ context.Context, a *service.Actor) (*model.User, error) {
	return &a.User, nil
}
func (m *mockAuthService) CleanupExpired(_ context.Context) (int64, error) { return 0, nil }

func newSessionEngine() *gin.Engine {
	auth := &mockAuthService{actors: map[string]*service.Actor{
		"tok-nv": {SessionID: "s1", Token: "tok-nv", User: model.User{EmployeeID: "E004", Position: "nv"}},
	}}
	r := gin.New()
	g := r.Group("")
	g.Use(SessionAuth(auth, "hr_session"))
	g.GET("/app/:view", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("employee_id")+"/"+c.GetString("role"))
	})
	g.GET("/views/:view", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.GET("/export/timesheet.xlsx", RequireView(permission.ViewTimesheet), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.GET("/stores/:id/qr.png", RequireView(permission.ViewShiftAssignment), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// SessionAuth / RequireView
// ═══════════════════════════════════════════════════════════

func TestSessionAuth_ValidCookie(t *testing.T) {
	r := newSessionEngine()
	req := httptest.NewRequest(http.MethodGet, "/app/home", nil)
	req.AddCookie(&http.Cookie{Name: "hr_session", Value: "tok-nv"})

	w := serve(r, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	if w.Body.String() != "E004/NV" {
		t.Errorf("期望注入员工编号与大写角色，实际: %s", w.Body.String())
	}
}

func TestSessionAuth_PageRedirects(t *testing.T) {
	r := newSessionEngine()
	req := httptest.NewRequest(http.MethodGet, "/app/timesheet?month=2025-01", nil)
	req.AddCookie(&http.Cookie{Name: "hr_session", Value: "het-han"})

	w := serve(r, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("期望 303，实际: %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?next=%2Fapp%2Ftimesheet%3Fmonth%3D2025-01" {
		t.Errorf("期望跳转登录页并保留原地址，实际: %s", loc)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "hr_session=;") {
		t.Error("期望清除失效 Cookie")
	}
}

func TestSessionAuth_ScriptRequestGets401(t *testing.T) {
	r := newSessionEngine()
	req := httptest.NewRequest(http.MethodGet, "/views/home", nil)
	req.Header.Set("X-Requested-With", "fetch")

	w := serve(r, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际: %d", w.Code)
	}
}

func TestRequireView(t *testing.T) {
	r := newSessionEngine()
	cookie := &http.Cookie{Name: "hr_session", Value: "tok-nv"}

	cases := map[string]int{
		"/export/timesheet.xlsx": http.StatusOK,
		"/stores/ST001/qr.png":   http.StatusForbidden,
	}
	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		if w := serve(r, req); w.Code != want {
			t.Errorf("%s 期望 %d，实际: %d", path, want, w.Code)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// RequestID / CORS / BodyLimit / SecurityHeaders / RateLimit
// ═══════════════════════════════════════════════════════════

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	if w := serve(r, req); w.Body.String() != "abc-123" {
		t.Errorf("期望沿用合法的请求 ID，实际: %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad\nid")
	w := serve(r, req)
	if w.Body.String() == "bad\nid" || len(w.Body.String()) != 36 {
		t.Errorf("期望非法请求 ID 被替换为 UUID，实际: %q", w.Body.String())
	}
	if w.Header().Get(requestIDHeader) != w.Body.String() {
		t.Error("期望响应头回写请求 ID")
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://intranet.example.com/"}))
	r.POST("/actions/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/actions/x", nil)
	req.Header.Set("Origin", "https://intranet.example.com")
	w := serve(r, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("期望允许的来源预检 204，实际: %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://intranet.example.com" {
		t.Error("期望回写允许的来源")
	}

	req = httptest.NewRequest(http.MethodOptions, "/actions/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	if w := serve(r, req); w.Code != http.StatusForbidden {
		t.Errorf("期望未知来源预检 403，实际: %d", w.Code)
	}
}

func TestBodyLimit_DeclaredLength(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/actions/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/actions/x", strings.NewReader(strings.Repeat("a", 64)))
	if w := serve(r, req); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际: %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/actions/x", strings.NewReader("ok"))
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Errorf("期望小请求放行，实际: %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(w.Header().Get("Permissions-Policy"), "geolocation=(self)") {
		t.Error("期望允许本站使用定位")
	}
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("期望 HTTPS 部署时设置 HSTS")
	}
}

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, "login", 1, time.Minute))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil)); w.Code != http.StatusOK {
			t.Fatalf("期望 Redis 不可用时放行，第 %d 次实际: %d", i+1, w.Code)
		}
	}
}
