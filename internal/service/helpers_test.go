package service

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/cache"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/repository"
	"tocotoco-hr/portal/pkg/jwt"
)

// ═══════════════════════════════════════════════════════════
// Mock API
// ═══════════════════════════════════════════════════════════

// mockAPI 记录每个 action 的调用次数；inner 非 nil 时转发给它
type mockAPI struct {
	mu       sync.Mutex
	inner    apiclient.API
	calls    map[string]int
	lastBody map[string]interface{}

	onFetch func(action string, q url.Values) (json.RawMessage, error)
	onSend  func(action string, body interface{}) (json.RawMessage, error)
}

func newMockAPI(inner apiclient.API) *mockAPI {
	return &mockAPI{inner: inner, calls: make(map[string]int), lastBody: make(map[string]interface{})}
}

func (m *mockAPI) Fetch(ctx context.Context, action, token string, q url.Values) (json.RawMessage, error) {
	m.mu.Lock()
	m.calls[action]++
	onFetch := m.onFetch
	m.mu.Unlock()
	if onFetch != nil {
		return onFetch(action, q)
	}
	if m.inner != nil {
		return m.inner.Fetch(ctx, action, token, q)
	}
	return json.RawMessage(`[]`), nil
}

func (m *mockAPI) Send(ctx context.Context, action, token string, body interface{}) (json.RawMessage, error) {
	m.mu.Lock()
	m.calls[action]++
	m.lastBody[action] = body
	onSend := m.onSend
	m.mu.Unlock()
	if onSend != nil {
		return onSend(action, body)
	}
	if m.inner != nil {
		return m.inner.Send(ctx, action, token, body)
	}
	return json.RawMessage(`{"success":true}`), nil
}

func (m *mockAPI) count(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[action]
}

func (m *mockAPI) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockAPI) body(action string) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBody[action]
}

func (m *mockAPI) reset() {
	m.mu.Lock()
	m.calls = make(map[string]int)
	m.lastBody = make(map[string]interface{})
	m.mu.Unlock()
}

// ═══════════════════════════════════════════════════════════
// 构建测试 Service
// ═══════════════════════════════════════════════════════════

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "https://hr.example.com/"},
		Auth: config.AuthConfig{
			SessionSecret: "test-session-secret-0123456789",
			SessionTTL:    8 * time.Hour,
			RememberTTL:   30 * 24 * time.Hour,
		},
		Cache:      config.CacheConfig{UserTTL: time.Minute, StoresTTL: time.Minute},
		Attendance: config.AttendanceConfig{RadiusMeters: 50, GeoTimeout: 10 * time.Second, GeoMaxAge: time.Minute},
		UI:         config.UIConfig{PageSize: 10},
		Mail:       config.MailConfig{From: "hr@example.com"},
	}
}

// setupTestService 以 mockAPI 构建 Service；inner 为 nil 时所有读取返回空列表
func setupTestService(inner apiclient.API) (*Service, *mockAPI) {
	api := newMockAPI(inner)
	cfg := newTestConfig()
	svc := NewService(Deps{
		Config: cfg,
		Repo:   repository.NewMemoryRepository(),
		API:    api,
		Cache:  cache.NewMemory(),
		JWT:    jwt.NewManager(&cfg.Auth),
	}, zap.NewNop())
	return svc, api
}

// setupDemoService 以内置演示后端构建 Service
func setupDemoService() (*Service, *mockAPI) {
	return setupTestService(apiclient.NewDemo(50, zap.NewNop()))
}

// loginAs 通过演示后端登录并恢复 Actor；之后清零调用计数
func loginAs(t *testing.T, svc *Service, api *mockAPI, employeeID string) *Actor {
	t.Helper()
	ctx := context.Background()
	res, err := svc.Auth.Login(ctx, &dto.LoginRequest{EmployeeID: employeeID, Password: apiclient.DemoPassword}, "go-test", "127.0.0.1")
	if err != nil {
		t.Fatalf("登录 %s 失败: %v", employeeID, err)
	}
	a, err := svc.Auth.Resolve(ctx, res.Token)
	if err != nil {
		t.Fatalf("恢复会话失败: %v", err)
	}
	api.reset()
	return a
}

// actorWithRole 不经登录的 Actor，用于 mockAPI 场景
func actorWithRole(role string) *Actor {
	return &Actor{
		SessionID: "sess-" + role,
		Token:     "token-" + role,
		User: model.User{
			EmployeeID: "T-" + role,
			FullName:   "Test " + role,
			Position:   role,
			StoreID:    "ST001",
			StoreName:  "Tocotoco Nguyễn Huệ",
			Email:      "test@example.com",
		},
	}
}
