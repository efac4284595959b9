package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/repository"
	pkgerrors "tocotoco-hr/portal/pkg/errors"
	"tocotoco-hr/portal/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("Mã nhân viên hoặc mật khẩu không đúng!")
	ErrSessionExpired     = errors.New("Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại")
)

// TokenBlacklist 会话 token 黑名单（pkg/redis.Client 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证与会话业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, userAgent, ip string) (*dto.LoginResult, error)
	// Resolve 由 Cookie 中的会话 token 恢复调用者
	Resolve(ctx context.Context, token string) (*Actor, error)
	Logout(ctx context.Context, token string) error
	// Refresh 重新拉取用户资料并写回会话
	Refresh(ctx context.Context, a *Actor) (*model.User, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type authService struct {
	repo      *repository.Repository
	api       apiclient.API
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService 创建 AuthService 实例；blacklist 可为 nil
func NewAuthService(
	repo *repository.Repository,
	api apiclient.API,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		api:       api,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
		now:       time.Now,
	}
}

// loginResponse 远端 login 的响应
type loginResponse struct {
	Token    string `json:"token"`
	UserData struct {
		EmployeeID string `json:"employeeId"`
		Name       string `json:"name"`
		FullName   string `json:"fullName"`
		Email      string `json:"email"`
		Position   string `json:"position"`
		StoreID    string `json:"storeId"`
		StoreName  string `json:"storeName"`
		RoleCode   string `json:"role_code"`
	} `json:"userData"`
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, userAgent, ip string) (*dto.LoginResult, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}

	// 1. 远端登录
	raw, err := s.api.Send(ctx, apiclient.ActionLogin, "", map[string]string{
		"employeeId": req.EmployeeID,
		"password":   req.Password,
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrUnauthorized) || errors.Is(err, pkgerrors.ErrUpstreamRejected) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("远端登录失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Token == "" {
		s.logger.Error("登录响应缺少 token", zap.ByteString("body", raw))
		return nil, pkgerrors.ErrUpstreamRejected
	}

	// 2. 组装用户资料；优先使用 getUser 的完整资料
	ud := resp.UserData
	user := model.User{
		EmployeeID: ud.EmployeeID,
		FullName:   firstNonEmpty(ud.FullName, ud.Name),
		Position:   firstNonEmpty(ud.RoleCode, ud.Position),
		StoreID:    ud.StoreID,
		StoreName:  ud.StoreName,
		Email:      ud.Email,
	}
	if user.EmployeeID == "" {
		user.EmployeeID = req.EmployeeID
	}
	var full model.User
	if ok, err := fetchObject(ctx, s.api, &Actor{Token: resp.Token}, apiclient.ActionGetUser,
		url.Values{"employeeId": {user.EmployeeID}}, "", &full); err == nil && ok && full.EmployeeID != "" {
		if full.Position == "" {
			full.Position = user.Position
		}
		user = full
	} else if err != nil {
		s.logger.Warn("登录后获取完整资料失败，使用登录响应", zap.Error(err))
	}

	// 3. 创建会话
	now := s.now()
	ttl := s.jwtMgr.TTL(req.RememberMe)
	sess := &model.Session{
		SessionID:  uuid.NewString(),
		EmployeeID: user.EmployeeID,
		Role:       user.Position,
		APIToken:   resp.Token,
		UserData:   model.UserSnapshot(user),
		RememberMe: req.RememberMe,
		UserAgent:  truncate(userAgent, 255),
		IPAddress:  ip,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := s.repo.Session.Create(ctx, sess); err != nil {
		s.logger.Error("创建会话失败", zap.Error(err))
		return nil, err
	}

	// 4. 生成 Cookie token
	token, _, err := s.jwtMgr.GenerateSessionToken(sess.SessionID, user.EmployeeID, user.Position, req.RememberMe)
	if err != nil {
		s.logger.Error("生成会话 token 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户登录",
		zap.String("employee_id", user.EmployeeID),
		zap.String("role", user.Position),
		zap.Bool("remember", req.RememberMe),
	)
	return &dto.LoginResult{
		Token:     token,
		MaxAge:    int(ttl.Seconds()),
		User:      user,
		SessionID: sess.SessionID,
	}, nil
}

func (s *authService) Resolve(ctx context.Context, token string) (*Actor, error) {
	claims, err := s.jwtMgr.ParseToken(token)
	if err != nil {
		return nil, ErrSessionExpired
	}

	if s.blacklist != nil && claims.ID != "" {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// Redis 故障时不阻断请求，会话表仍是权威来源
			s.logger.Warn("查询黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, ErrSessionExpired
		}
	}

	sess, err := s.repo.Session.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionExpired
		}
		s.logger.Error("查询会话失败", zap.Error(err))
		return nil, err
	}
	now := s.now()
	if sess.Expired(now) {
		return nil, ErrSessionExpired
	}

	if now.Sub(sess.LastSeenAt) > time.Minute {
		if err := s.repo.Session.Touch(ctx, sess.SessionID, now); err != nil {
			s.logger.Warn("更新会话访问时间失败", zap.Error(err))
		}
	}

	return &Actor{SessionID: sess.SessionID, Token: sess.APIToken, User: sess.User()}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtMgr.ParseToken(token)
	if err != nil {
		// 已失效的 token 视为已登出
		return nil
	}
	if s.blacklist != nil && claims.ID != "" && claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 {
			if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
				s.logger.Warn("写入黑名单失败", zap.Error(err))
			}
		}
	}
	if err := s.repo.Session.Delete(ctx, claims.SessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("删除会话失败", zap.Error(err))
		return err
	}
	s.logger.Info("用户登出", zap.String("employee_id", claims.EmployeeID))
	return nil
}

func (s *authService) Refresh(ctx context.Context, a *Actor) (*model.User, error) {
	var u model.User
	ok, err := fetchObject(ctx, s.api, a, apiclient.ActionGetUser, url.Values{"employeeId": {a.User.EmployeeID}}, "", &u)
	if err != nil {
		return nil, err
	}
	if !ok || u.EmployeeID == "" {
		return nil, ErrNotFound
	}
	if u.Position == "" {
		u.Position = a.User.Position
	}
	if err := s.repo.Session.UpdateUser(ctx, a.SessionID, u); err != nil {
		s.logger.Warn("刷新会话资料失败", zap.Error(err))
	}
	a.User = u
	return &u, nil
}

func (s *authService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.Session.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("清理过期会话失败", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.logger.Info("已清理过期会话", zap.Int64("count", n))
	}
	return n, nil
}

// ── 辅助函数 ──

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
