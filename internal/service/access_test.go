package service

import (
	"context"
	"errors"
	"testing"

	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
)

// 无权限的调用必须在任何远端请求之前被拒绝
func TestAccessDenied_NoRemoteCalls(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		role string
		call func(*Service, *Actor) error
	}{
		{"NV 打开排班", model.RoleEmployee, func(s *Service, a *Actor) error {
			_, err := s.Shift.LoadAssignments(ctx, a, dto.ShiftQuery{})
			return err
		}},
		{"NV 批量排班", model.RoleEmployee, func(s *Service, a *Actor) error {
			_, err := s.Shift.BulkAssign(ctx, a, &dto.BulkAssignRequest{Store: "ST001", Week: "2025-W05", Employees: "E004", Days: []string{"MO"}})
			return err
		}},
		{"QL 打开权限管理", model.RoleManager, func(s *Service, a *Actor) error {
			_, err := s.Permission.List(ctx, a, dto.PermissionQuery{})
			return err
		}},
		{"AM 打开注册审批", model.RoleArea, func(s *Service, a *Actor) error {
			_, err := s.Registration.Load(ctx, a, dto.RegistrationQuery{})
			return err
		}},
		{"AM 审批人事请求", model.RoleArea, func(s *Service, a *Actor) error {
			return s.Request.Approve(ctx, a, model.KindAttendance, &dto.RequestDecision{RequestID: "REQ1"})
		}},
		{"QL 审批调班请求", model.RoleManager, func(s *Service, a *Actor) error {
			_, err := s.Request.List(ctx, a, model.KindShift, dto.RequestQuery{})
			return err
		}},
		{"QL 最终审批任务", model.RoleManager, func(s *Service, a *Actor) error {
			return s.Task.FinalApprove(ctx, a, &dto.TaskDecision{TaskID: "TASK1"})
		}},
		{"AM 添加奖惩", model.RoleArea, func(s *Service, a *Actor) error {
			return s.Task.AddReward(ctx, a, &dto.RewardRequest{EmployeeID: "E004", Type: "reward", Amount: 1, Reason: "x"})
		}},
		{"NV 打开统计", model.RoleEmployee, func(s *Service, a *Actor) error {
			_, err := s.Analytics.Analytics(ctx, a)
			return err
		}},
		{"NV 生成门店二维码", model.RoleEmployee, func(s *Service, a *Actor) error {
			_, err := s.QR.StoreQR(ctx, a, "ST001", 256)
			return err
		}},
		{"NV 打开任务审批", model.RoleEmployee, func(s *Service, a *Actor) error {
			_, err := s.Task.List(ctx, a, permission.ViewTaskApproval, dto.TaskQuery{})
			return err
		}},
		{"未知角色打开首页", "XX", func(s *Service, a *Actor) error {
			_, err := s.Analytics.Dashboard(ctx, a)
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, api := setupTestService(nil)
			err := tc.call(svc, actorWithRole(tc.role))
			if !errors.Is(err, ErrAccessDenied) {
				t.Errorf("期望 ErrAccessDenied，实际: %v", err)
			}
			if api.total() != 0 {
				t.Errorf("拒绝访问时不应调用远端，实际调用 %d 次", api.total())
			}
		})
	}
}

func TestAccessDenied_NilActor(t *testing.T) {
	svc, api := setupTestService(nil)
	if _, err := svc.Personal.View(context.Background(), nil); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("期望 ErrAccessDenied，实际: %v", err)
	}
	if api.total() != 0 {
		t.Errorf("不应调用远端，实际调用 %d 次", api.total())
	}
}
