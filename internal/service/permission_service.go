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
)

var ErrNoChanges = errors.New("Không có thay đổi nào để lưu")

// PermissionService 用户权限与资料管理（仅 AD）
type PermissionService interface {
	List(ctx context.Context, a *Actor, q dto.PermissionQuery) (*dto.PermissionListView, error)
	// EditForm role 非空时按该角色预览门店分配控件与权限说明
	EditForm(ctx context.Context, a *Actor, employeeID, role string) (*dto.PermissionEditForm, error)
	// Save 与原资料比较差异；理由必填；成功后返回更新的卡片与角色统计
	Save(ctx context.Context, a *Actor, req *dto.PermissionSaveRequest) (*dto.PermissionSaveResult, error)
	History(ctx context.Context, a *Actor, employeeID string) ([]model.HistoryEntry, error)
}

type permissionService struct {
	api      apiclient.API
	dir      DirectoryService
	repo     *repository.Repository
	pageSize int
	logger   *zap.Logger
}

// NewPermissionService 创建 PermissionService 实例
func NewPermissionService(api apiclient.API, dir DirectoryService, repo *repository.Repository, pageSize int, logger *zap.Logger) PermissionService {
	return &permissionService{api: api, dir: dir, repo: repo, pageSize: pageSize, logger: logger}
}

func roleCounts(users []model.User) []dto.RoleCount {
	counts := make(map[string]int, len(model.Roles))
	for _, u := range users {
		counts[strings.ToUpper(strings.TrimSpace(u.Position))]++
	}
	out := make([]dto.RoleCount, 0, len(model.Roles))
	for _, r := range model.Roles {
		out = append(out, dto.RoleCount{Role: r, Name: permission.RoleName(r), Count: counts[r]})
	}
	return out
}

func userCard(u model.User) dto.UserCard {
	return dto.UserCard{User: u, RoleName: permission.RoleName(u.Position)}
}

func roleText(r string) string {
	if r == "" {
		return "Tất cả vai trò"
	}
	return permission.RoleName(r)
}

func (s *permissionService) List(ctx context.Context, a *Actor, q dto.PermissionQuery) (*dto.PermissionListView, error) {
	if err := authorize(a, permission.ViewPermission); err != nil {
		return nil, err
	}
	users, err := s.dir.ListUsers(ctx, a)
	if err != nil {
		return nil, err
	}

	filtered := selection.Apply(users, selection.All[model.User](
		func(u model.User) bool { return q.Role == "" || u.HasRole(q.Role) },
		func(u model.User) bool {
			return selection.ContainsFold(q.Search, u.FullName, u.EmployeeID, u.Email, u.StoreName)
		},
	))
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].EmployeeID < filtered[j].EmployeeID })

	page := selection.Paginate(filtered, pageOf(q.Page), s.pageSize)
	cards := make([]dto.UserCard, 0, len(page.Items))
	for _, u := range page.Items {
		cards = append(cards, userCard(u))
	}
	return &dto.PermissionListView{
		Query:  q,
		Counts: roleCounts(users),
		Roles:  options(append([]string{""}, model.Roles...), roleText, q.Role),
		Cards:  cards,
		Page:   page.Page,
		Pages:  page.Pages(),
		Total:  page.Total,
	}, nil
}

func (s *permissionService) EditForm(ctx context.Context, a *Actor, employeeID, role string) (*dto.PermissionEditForm, error) {
	if err := authorize(a, permission.ViewPermission); err != nil {
		return nil, err
	}
	u, err := s.dir.GetUser(ctx, a, employeeID)
	if err != nil {
		return nil, err
	}
	stores, err := s.dir.ListStores(ctx, a)
	if err != nil {
		return nil, err
	}
	history, err := s.History(ctx, a, employeeID)
	if err != nil {
		// 历史记录失败不影响编辑
		s.logger.Warn("获取变更历史失败", zap.String("employee_id", employeeID), zap.Error(err))
	}
	if role == "" {
		role = u.Position
	}
	return buildEditForm(*u, role, stores, history), nil
}

// buildEditForm role 决定门店分配控件：AM 按区域，QL 多门店，其余单门店
func buildEditForm(u model.User, role string, stores []model.Store, history []model.HistoryEntry) *dto.PermissionEditForm {
	managed := make(map[string]bool)
	for _, k := range u.ManagedStores() {
		managed[k] = true
	}
	var regions []string
	seen := make(map[string]bool)
	storeOpts := make([]dto.Option, 0, len(stores))
	for _, st := range stores {
		if st.Region != "" && !seen[st.Region] {
			seen[st.Region] = true
			regions = append(regions, st.Region)
		}
		storeOpts = append(storeOpts, dto.Option{
			Value:    st.StoreID,
			Label:    st.Label(),
			Selected: managed[st.StoreID] || managed[st.StoreName] || st.StoreID == u.StoreID,
		})
	}
	sort.Strings(regions)
	return &dto.PermissionEditForm{
		User:         u,
		Roles:        options(model.Roles, permission.RoleName, strings.ToUpper(role)),
		Scope:        permission.Scope(role),
		Regions:      options(regions, func(r string) string { return r }, u.Region),
		Stores:       storeOpts,
		Capabilities: permission.Capabilities(role),
		History:      history,
	}
}

func (s *permissionService) History(ctx context.Context, a *Actor, employeeID string) ([]model.HistoryEntry, error) {
	entries, err := fetchList[model.HistoryEntry](ctx, s.api, a, apiclient.ActionGetUserHistory,
		url.Values{"employeeId": {employeeID}})
	if err != nil {
		return nil, err
	}
	out := selection.Apply(entries, func(h model.HistoryEntry) bool { return h.TargetEmployeeID == employeeID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

// assignedStore 按角色把表单的门店选择还原为 storeName 字段
func assignedStore(req *dto.PermissionSaveRequest, original model.User, names map[string]string) string {
	label := func(k string) string {
		if n, ok := names[k]; ok && n != "" {
			return n
		}
		return k
	}
	switch permission.Scope(req.Position) {
	case permission.ScopeMultiStore:
		if len(req.Stores) == 0 {
			return original.StoreName
		}
		set := selection.NewSet()
		for _, k := range req.Stores {
			set.Add(label(k))
		}
		return strings.Join(set.IDs(), ",")
	}
	if req.Store == "" {
		return original.StoreName
	}
	return label(req.Store)
}

// diffUser 只记录实际变化的字段
func diffUser(original model.User, req *dto.PermissionSaveRequest, storeName string) map[string]dto.FieldChange {
	changes := make(map[string]dto.FieldChange)
	add := func(field, old, val string) {
		val = strings.TrimSpace(val)
		if val != strings.TrimSpace(old) {
			changes[field] = dto.FieldChange{OldValue: old, NewValue: val}
		}
	}
	add("fullName", original.FullName, req.FullName)
	add("position", strings.ToUpper(original.Position), strings.ToUpper(req.Position))
	add("storeName", original.StoreName, storeName)
	if permission.Scope(req.Position) == permission.ScopeRegion {
		add("region", original.Region, req.Region)
	}
	if req.Phone != "" || original.Phone != "" {
		add("phone", original.Phone, req.Phone)
	}
	if req.Email != "" || original.Email != "" {
		add("email", original.Email, req.Email)
	}
	return changes
}

func applyChanges(u model.User, changes map[string]dto.FieldChange) model.User {
	for field, ch := range changes {
		switch field {
		case "fullName":
			u.FullName = ch.NewValue
		case "position":
			u.Position = ch.NewValue
		case "storeName":
			u.StoreName = ch.NewValue
		case "region":
			u.Region = ch.NewValue
		case "phone":
			u.Phone = ch.NewValue
		case "email":
			u.Email = ch.NewValue
		}
	}
	return u
}

func (s *permissionService) Save(ctx context.Context, a *Actor, req *dto.PermissionSaveRequest) (*dto.PermissionSaveResult, error) {
	if err := authorize(a, permission.ViewPermission); err != nil {
		return nil, err
	}
	req.Position = strings.ToUpper(strings.TrimSpace(req.Position))
	if err := validateInput(req); err != nil {
		return nil, err
	}

	original, err := s.dir.GetUser(ctx, a, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	changes := diffUser(*original, req, assignedStore(req, *original, s.dir.StoreNames(ctx, a)))
	if len(changes) == 0 {
		return nil, ErrNoChanges
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	raw, err := s.api.Send(ctx, apiclient.ActionUpdateUserWithHistory, a.Token, map[string]interface{}{
		"employeeId": req.EmployeeID,
		"changes":    changes,
		"reason":     reason,
		"actionBy":   a.User.EmployeeID,
	})
	if err != nil {
		s.logger.Error("保存权限失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	updated := applyChanges(*original, changes)
	var resp struct {
		User *model.User `json:"user"`
	}
	if json.Unmarshal(raw, &resp) == nil && resp.User != nil && resp.User.EmployeeID != "" {
		updated = *resp.User
	}

	s.dir.Invalidate(ctx, req.EmployeeID)
	if req.EmployeeID == a.User.EmployeeID {
		if err := s.repo.Session.UpdateUser(ctx, a.SessionID, updated); err != nil {
			s.logger.Warn("刷新会话资料失败", zap.Error(err))
		}
		a.User = updated
	}

	fields := make([]string, 0, len(changes))
	for f := range changes {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	s.logger.Info("更新用户权限",
		zap.String("employee_id", req.EmployeeID),
		zap.Strings("fields", fields),
		zap.String("by", a.User.EmployeeID),
	)

	return &dto.PermissionSaveResult{Card: userCard(updated), Changes: changes}, nil
}
