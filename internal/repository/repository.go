package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在（GORM 与内存实现统一返回）
var ErrNotFound = errors.New("记录不存在")

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Session SessionRepository
}

// NewRepository 创建基于 PostgreSQL 的 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Session: NewSessionRepo(db),
	}
}

// NewMemoryRepository 无数据库时使用的内存实现（演示模式、单元测试）
func NewMemoryRepository() *Repository {
	return &Repository{
		Session: NewMemorySessionRepo(),
	}
}
