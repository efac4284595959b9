// Package cache 远端接口数据缓存
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Store 缓存存储接口；值以 JSON 形式保存
// pkg/redis.Client 与 Memory 均实现该接口
type Store interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// 缓存键
func UserKey(employeeID string) string { return "user:" + employeeID }

const (
	StoresKey = "stores"
	UsersKey  = "users"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory 进程内 TTL 缓存，Redis 不可用时降级使用
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

// NewMemory 创建内存缓存
func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = entry{data: b, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}
