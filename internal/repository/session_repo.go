package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"tocotoco-hr/portal/internal/model"
)

// SessionRepository 会话数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	// Touch 更新最近访问时间
	Touch(ctx context.Context, id string, at time.Time) error
	// UpdateUser 刷新会话缓存的用户资料（个人信息修改后）
	UpdateUser(ctx context.Context, id string, user model.User) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// sessionRepo SessionRepository 的 GORM 实现
type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ?", id).
		Updates(map[string]interface{}{"last_seen_at": at, "updated_at": at}).Error
}

func (r *sessionRepo) UpdateUser(ctx context.Context, id string, user model.User) error {
	res := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ?", id).
		Updates(map[string]interface{}{
			"user_data":  model.UserSnapshot(user),
			"role":       user.Position,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", id).
		Delete(&model.Session{}).Error
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.Session{})
	return res.RowsAffected, res.Error
}

// ── 内存实现 ──

type memorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
}

// NewMemorySessionRepo 创建内存版 SessionRepository
func NewMemorySessionRepo() SessionRepository {
	return &memorySessionRepo{sessions: make(map[string]model.Session)}
}

func (r *memorySessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.SessionID == "" {
		return errors.New("session_id 不能为空")
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.LastSeenAt.IsZero() {
		s.LastSeenAt = now
	}
	r.sessions[s.SessionID] = *s
	return nil
}

func (r *memorySessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *memorySessionRepo) Touch(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.LastSeenAt = at
	s.UpdatedAt = at
	r.sessions[id] = s
	return nil
}

func (r *memorySessionRepo) UpdateUser(_ context.Context, id string, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.UserData = model.UserSnapshot(user)
	s.Role = user.Position
	s.UpdatedAt = time.Now()
	r.sessions[id] = s
	return nil
}

func (r *memorySessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}
