package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tocotoco-hr/portal/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

const issuer = "hr-portal"

// Claims 会话 Cookie 声明
// 只携带会话定位信息，远端 token 保存在服务端会话表中
type Claims struct {
	SessionID  string `json:"sid"`
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
	RememberMe bool   `json:"remember_me,omitempty"`
	jwtv5.RegisteredClaims
}

// Manager 会话 Token 管理器
type Manager struct {
	secret      []byte
	sessionTTL  time.Duration
	rememberTTL time.Duration
}

// NewManager 创建会话 Token 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:      []byte(cfg.SessionSecret),
		sessionTTL:  cfg.SessionTTL,
		rememberTTL: cfg.RememberTTL,
	}
}

// TTL 返回会话有效期
func (m *Manager) TTL(rememberMe bool) time.Duration {
	if rememberMe {
		return m.rememberTTL
	}
	return m.sessionTTL
}

// GenerateSessionToken 生成会话 Cookie 值
func (m *Manager) GenerateSessionToken(sessionID, employeeID, role string, rememberMe bool) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		SessionID:  sessionID,
		EmployeeID: employeeID,
		Role:       role,
		RememberMe: rememberMe,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.TTL(rememberMe))),
			Issuer:    issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseToken 解析并验证会话 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
