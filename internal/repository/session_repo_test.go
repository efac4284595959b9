package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"tocotoco-hr/portal/internal/model"
)

func TestMemorySessionRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepo()

	now := time.Now()
	s := &model.Session{SessionID: "s1", EmployeeID: "E002", Role: model.RoleManager, ExpiresAt: now.Add(time.Hour)}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := repo.Create(ctx, &model.Session{}); err == nil {
		t.Error("空 session_id 应报错")
	}

	got, err := repo.GetByID(ctx, "s1")
	if err != nil || got.EmployeeID != "E002" {
		t.Fatalf("查询失败: %v %+v", err, got)
	}

	if err := repo.UpdateUser(ctx, "s1", model.User{EmployeeID: "E002", Position: model.RoleArea}); err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	got, _ = repo.GetByID(ctx, "s1")
	if got.Role != model.RoleArea {
		t.Errorf("角色未同步: %q", got.Role)
	}
	if err := repo.UpdateUser(ctx, "missing", model.User{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("不存在的会话应返回 ErrNotFound, got %v", err)
	}

	expired := &model.Session{SessionID: "s2", ExpiresAt: now.Add(-time.Second)}
	_ = repo.Create(ctx, expired)
	n, _ := repo.DeleteExpired(ctx, now)
	if n != 1 {
		t.Errorf("期望清理 1 条, 实际 %d", n)
	}
	if _, err := repo.GetByID(ctx, "s2"); !errors.Is(err, ErrNotFound) {
		t.Error("过期会话应被清理")
	}
}
