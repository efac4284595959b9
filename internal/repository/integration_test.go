//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=hr_portal_test sslmode=disable TimeZone=Asia/Ho_Chi_Minh"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	if err := testDB.AutoMigrate(&model.Session{}); err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func newSession(expires time.Time) *model.Session {
	return &model.Session{
		SessionID:  uuid.NewString(),
		EmployeeID: "E001",
		Role:       model.RoleAdmin,
		APIToken:   "tok",
		UserData:   model.UserSnapshot{EmployeeID: "E001", FullName: "Nguyễn Văn Admin", Position: model.RoleAdmin},
		ExpiresAt:  expires,
	}
}

// ═══════════════════════════════════════════════════════════
// SessionRepository
// ═══════════════════════════════════════════════════════════

func TestSessionRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSessionRepo(testDB)

	s := newSession(time.Now().Add(time.Hour))
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("创建会话失败: %v", err)
	}
	defer repo.Delete(ctx, s.SessionID)

	got, err := repo.GetByID(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("查询会话失败: %v", err)
	}
	if got.User().FullName != "Nguyễn Văn Admin" {
		t.Errorf("用户资料 JSONB 往返错误: %+v", got.UserData)
	}

	updated := got.User()
	updated.Phone = "0900000001"
	updated.Position = model.RoleManager
	if err := repo.UpdateUser(ctx, s.SessionID, updated); err != nil {
		t.Fatalf("更新用户资料失败: %v", err)
	}
	got, _ = repo.GetByID(ctx, s.SessionID)
	if got.Role != model.RoleManager || got.User().Phone != "0900000001" {
		t.Errorf("更新未生效: %+v", got)
	}

	if err := repo.Delete(ctx, s.SessionID); err != nil {
		t.Fatalf("删除会话失败: %v", err)
	}
	if _, err := repo.GetByID(ctx, s.SessionID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("删除后应返回 ErrNotFound, got %v", err)
	}
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSessionRepo(testDB)

	old := newSession(time.Now().Add(-time.Minute))
	live := newSession(time.Now().Add(time.Hour))
	for _, s := range []*model.Session{old, live} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("创建会话失败: %v", err)
		}
	}
	defer repo.Delete(ctx, live.SessionID)

	n, err := repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("清理过期会话失败: %v", err)
	}
	if n < 1 {
		t.Errorf("期望至少清理 1 条, 实际 %d", n)
	}
	if _, err := repo.GetByID(ctx, live.SessionID); err != nil {
		t.Errorf("未过期会话不应被清理: %v", err)
	}
}
