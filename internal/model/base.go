package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── PostgreSQL JSONB 自定义类型 ──

// UserSnapshot 会话中缓存的用户资料，对应 JSONB 列，实现 GORM Scanner/Valuer 接口。
type UserSnapshot User

// Scan 将 JSONB 文本解析为 UserSnapshot。
func (u *UserSnapshot) Scan(src interface{}) error {
	if src == nil {
		*u = UserSnapshot{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("UserSnapshot.Scan: unsupported type %T", src)
	}
	if len(b) == 0 {
		*u = UserSnapshot{}
		return nil
	}
	return json.Unmarshal(b, (*User)(u))
}

// Value 将 UserSnapshot 序列化为 JSONB 文本。
func (u UserSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(User(u))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BaseModel 通用审计字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
