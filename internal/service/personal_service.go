package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/repository"
	"tocotoco-hr/portal/internal/selection"
	pkgerrors "tocotoco-hr/portal/pkg/errors"
)

var ErrWrongPassword = errors.New("Mật khẩu xác nhận không đúng")

// PersonalService 个人信息
type PersonalService interface {
	View(ctx context.Context, a *Actor) (*dto.PersonalView, error)
	// Update 修改邮箱与电话，需要密码确认；成功后刷新会话资料
	Update(ctx context.Context, a *Actor, req *dto.PersonalUpdateRequest) (*model.User, error)
	// RequestChange 锁定字段通过 personal_info_change 任务申请修改
	RequestChange(ctx context.Context, a *Actor, req *dto.ChangeRequest) (string, error)
}

type personalService struct {
	api    apiclient.API
	dir    DirectoryService
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPersonalService 创建 PersonalService 实例
func NewPersonalService(api apiclient.API, dir DirectoryService, repo *repository.Repository, logger *zap.Logger) PersonalService {
	return &personalService{api: api, dir: dir, repo: repo, logger: logger}
}

func (s *personalService) View(ctx context.Context, a *Actor) (*dto.PersonalView, error) {
	if err := authorize(a, permission.ViewPersonalInfo); err != nil {
		return nil, err
	}
	user := a.User
	if u, err := s.dir.GetUser(ctx, a, a.User.EmployeeID); err == nil {
		if u.Position == "" {
			u.Position = a.User.Position
		}
		user = *u
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	view := &dto.PersonalView{User: user, RoleName: permission.RoleName(user.Position)}
	q := url.Values{"employeeId": {user.EmployeeID}}

	var stats model.PersonalStats
	if ok, err := fetchObject(ctx, s.api, a, apiclient.ActionGetPersonalStats, q, "stats", &stats); err != nil {
		s.logger.Warn("获取个人统计失败", zap.Error(err))
	} else if ok {
		view.Stats = &stats
	}

	if history, err := fetchList[model.HistoryEntry](ctx, s.api, a, apiclient.ActionGetUserHistory, q); err != nil {
		s.logger.Warn("获取个人变更历史失败", zap.Error(err))
	} else {
		view.History = selection.Apply(history, func(h model.HistoryEntry) bool { return h.TargetEmployeeID == user.EmployeeID })
		sort.SliceStable(view.History, func(i, j int) bool { return view.History[i].Timestamp > view.History[j].Timestamp })
	}

	if rewards, err := fetchList[model.Reward](ctx, s.api, a, apiclient.ActionGetRewards, q); err != nil {
		s.logger.Warn("获取奖惩记录失败", zap.Error(err))
	} else {
		view.Rewards = selection.Apply(rewards, func(r model.Reward) bool { return r.EmployeeID == user.EmployeeID })
	}
	return view, nil
}

func (s *personalService) Update(ctx context.Context, a *Actor, req *dto.PersonalUpdateRequest) (*model.User, error) {
	if err := authorize(a, permission.ViewPersonalInfo); err != nil {
		return nil, err
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if (req.Email == "" || req.Email == a.User.Email) && (req.Phone == "" || req.Phone == a.User.Phone) {
		return nil, ErrNoChanges
	}

	raw, err := s.api.Send(ctx, apiclient.ActionUpdatePersonalInfo, a.Token, map[string]string{
		"employeeId": a.User.EmployeeID,
		"email":      req.Email,
		"phone":      req.Phone,
		"password":   req.Password,
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrUpstreamRejected) && strings.Contains(strings.ToLower(pkgerrors.UserMessage(err, "")), "mật khẩu") {
			return nil, ErrWrongPassword
		}
		s.logger.Error("更新个人信息失败", zap.String("employee_id", a.User.EmployeeID), zap.Error(err))
		return nil, err
	}

	updated := a.User
	if req.Email != "" {
		updated.Email = req.Email
	}
	if req.Phone != "" {
		updated.Phone = req.Phone
	}
	var resp struct {
		User *model.User `json:"user"`
	}
	if json.Unmarshal(raw, &resp) == nil && resp.User != nil && resp.User.EmployeeID != "" {
		if resp.User.Position == "" {
			resp.User.Position = a.User.Position
		}
		updated = *resp.User
	}

	if err := s.repo.Session.UpdateUser(ctx, a.SessionID, updated); err != nil {
		s.logger.Warn("刷新会话资料失败", zap.Error(err))
	}
	s.dir.Invalidate(ctx, a.User.EmployeeID)
	a.User = updated

	s.logger.Info("更新个人信息", zap.String("employee_id", updated.EmployeeID))
	return &updated, nil
}

// fieldValue 锁定字段的当前值
func fieldValue(u model.User, field string) string {
	switch field {
	case "employeeId":
		return u.EmployeeID
	case "fullName":
		return u.FullName
	case "position":
		return u.Position
	case "storeName":
		return u.StoreName
	case "joinDate":
		return u.JoinDate
	}
	return ""
}

func (s *personalService) RequestChange(ctx context.Context, a *Actor, req *dto.ChangeRequest) (string, error) {
	if err := authorize(a, permission.ViewPersonalInfo); err != nil {
		return "", err
	}
	req.NewValue = strings.TrimSpace(req.NewValue)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validateInput(req); err != nil {
		return "", err
	}
	current := fieldValue(a.User, req.Field)
	if req.NewValue == current {
		return "", ErrNoChanges
	}

	raw, err := s.api.Send(ctx, apiclient.ActionCreateTask, a.Token, map[string]interface{}{
		"type":         "personal_info_change",
		"employeeId":   a.User.EmployeeID,
		"field":        req.Field,
		"currentValue": current,
		"newValue":     req.NewValue,
		"reason":       req.Reason,
		"participants": []string{a.User.EmployeeID},
	})
	if err != nil {
		s.logger.Error("提交资料变更申请失败", zap.String("field", req.Field), zap.Error(err))
		return "", err
	}
	var id string
	apiclient.DecodeField(raw, "id", &id)
	s.logger.Info("提交资料变更申请", zap.String("employee_id", a.User.EmployeeID), zap.String("field", req.Field))
	return id, nil
}
