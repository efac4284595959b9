package model

import "time"

// Session 门户会话：对应 portal_sessions
// 替代浏览器 localStorage 中的 token 与用户资料缓存
type Session struct {
	SessionID  string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	EmployeeID string       `gorm:"type:varchar(50);not null"                      json:"employee_id"`
	Role       string       `gorm:"type:varchar(10);not null;default:'NV'"         json:"role"`
	APIToken   string       `gorm:"type:text;not null"                             json:"-"`
	UserData   UserSnapshot `gorm:"type:jsonb;not null"                            json:"user_data"`
	RememberMe bool         `gorm:"not null;default:false"                         json:"remember_me"`
	UserAgent  string       `gorm:"type:varchar(255)"                              json:"user_agent,omitempty"`
	IPAddress  string       `gorm:"type:varchar(64)"                               json:"ip_address,omitempty"`
	LastSeenAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"last_seen_at"`
	ExpiresAt  time.Time    `gorm:"not null"                                       json:"expires_at"`
	BaseModel
}

// TableName 指定表名
func (Session) TableName() string { return "portal_sessions" }

// Expired 会话是否已过期
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// User 返回会话缓存的用户资料
func (s *Session) User() User {
	return User(s.UserData)
}
