package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/selection"
)

var (
	ErrRegistrationBusy     = errors.New("Đang tải danh sách đăng ký, vui lòng đợi")
	ErrRegistrationNotFound = errors.New("Không tìm thấy đăng ký")
)

// RegistrationService 新员工注册审批
//
// 并发约束：
//   - 同一会话同时只允许一次 Load，重叠的请求直接丢弃（返回 ErrRegistrationBusy）
//   - 批量操作逐条顺序执行，失败不中断，返回第一个错误
type RegistrationService interface {
	Load(ctx context.Context, a *Actor, q dto.RegistrationQuery) (*dto.RegistrationListView, error)
	Detail(ctx context.Context, a *Actor, employeeID string) (*model.Registration, error)
	Approve(ctx context.Context, a *Actor, employeeID string) error
	Reject(ctx context.Context, a *Actor, employeeID string) error
	BulkApprove(ctx context.Context, a *Actor, selected string) (*dto.BulkResult, error)
	BulkReject(ctx context.Context, a *Actor, selected string) (*dto.BulkResult, error)
}

type registrationService struct {
	api      apiclient.API
	dir      DirectoryService
	pageSize int
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// NewRegistrationService 创建 RegistrationService 实例
func NewRegistrationService(api apiclient.API, dir DirectoryService, pageSize int, now func() time.Time, logger *zap.Logger) RegistrationService {
	return &registrationService{
		api:      api,
		dir:      dir,
		pageSize: pageSize,
		now:      now,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// acquire 占用会话的加载标记；已被占用时返回 false
func (s *registrationService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[sessionID] {
		return false
	}
	s.inflight[sessionID] = true
	return true
}

func (s *registrationService) release(sessionID string) {
	s.mu.Lock()
	delete(s.inflight, sessionID)
	s.mu.Unlock()
}

var windowFilters = []string{"", selection.WindowToday, selection.WindowYesterday, selection.WindowWeek, selection.WindowMonth}

func windowText(w string) string {
	switch w {
	case selection.WindowToday:
		return "Hôm nay"
	case selection.WindowYesterday:
		return "Hôm qua"
	case selection.WindowWeek:
		return "7 ngày qua"
	case selection.WindowMonth:
		return "30 ngày qua"
	}
	return "Mọi thời gian"
}

func (s *registrationService) Load(ctx context.Context, a *Actor, q dto.RegistrationQuery) (*dto.RegistrationListView, error) {
	if err := authorize(a, permission.ViewRegistrationApproval); err != nil {
		return nil, err
	}
	if !s.acquire(a.SessionID) {
		s.logger.Debug("丢弃重叠的注册列表加载", zap.String("session_id", a.SessionID))
		return nil, ErrRegistrationBusy
	}
	defer s.release(a.SessionID)

	// 未选择状态时只看待审批
	if q.Status == "" {
		q.Status = model.StatusPending
	}

	stores, err := s.dir.StoresForUser(ctx, a)
	if err != nil {
		return nil, err
	}
	regs, err := s.fetch(ctx, a, q.Store, q.Status)
	if err != nil {
		return nil, err
	}
	regs = inStores(a, regs, stores)

	now := s.now()
	filtered := selection.Apply(regs, selection.All[model.Registration](
		func(r model.Registration) bool { return model.MatchStatus(r.Status, q.Status) },
		func(r model.Registration) bool {
			return q.Store == "" || r.StoreID == q.Store || r.StoreName == q.Store
		},
		func(r model.Registration) bool {
			return selection.ContainsFold(q.Search, r.FullName, r.EmployeeID, r.Email, r.Phone)
		},
		func(r model.Registration) bool {
			if q.Window == "" {
				return true
			}
			t, ok := r.CreatedTime()
			return ok && selection.DateWindow(q.Window, t, now)
		},
	))
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].CreatedAt > filtered[j].CreatedAt })

	page := selection.Paginate(filtered, pageOf(q.Page), s.pageSize)

	// 选择集只保留当前筛选结果内的项
	visible := make(map[string]bool, len(filtered))
	for _, r := range filtered {
		visible[r.EmployeeID] = true
	}
	set := selection.NewSet()
	for _, id := range selection.DecodeSet(q.Selected).IDs() {
		if visible[id] {
			set.Add(id)
		}
	}
	checked := make(map[string]bool, set.Len())
	for _, id := range set.IDs() {
		checked[id] = true
	}

	return &dto.RegistrationListView{
		Query:         q,
		Stores:        stores,
		Statuses:      options(statusFilters, statusFilterText, statusOption(q.Status)),
		Windows:       options(windowFilters, windowText, q.Window),
		Items:         page.Items,
		Page:          page.Page,
		Pages:         page.Pages(),
		Total:         page.Total,
		HasPrev:       page.HasPrev,
		HasNext:       page.HasNext,
		Selected:      set.Encode(),
		SelectedCount: set.Len(),
		IsSelected:    checked,
	}, nil
}

func (s *registrationService) fetch(ctx context.Context, a *Actor, store, status string) ([]model.Registration, error) {
	q := url.Values{}
	if store != "" {
		q.Set("store", store)
	}
	if status != "" && status != model.StatusAll {
		q.Set("status", model.RawRegistrationStatus(status))
	} else if status == model.StatusAll {
		q.Set("status", model.StatusAll)
	}
	regs, err := fetchList[model.Registration](ctx, s.api, a, apiclient.ActionGetPendingRegistrations, q)
	if err != nil {
		s.logger.Error("获取注册列表失败", zap.Error(err))
		return nil, err
	}
	return regs, nil
}

// inStores AD 不受限，其余角色只看可管理门店的注册
func inStores(a *Actor, regs []model.Registration, stores []model.Store) []model.Registration {
	if a.User.HasRole(model.RoleAdmin) {
		return regs
	}
	in := make(map[string]bool)
	for _, st := range stores {
		in[st.StoreID], in[st.StoreName] = true, true
	}
	return selection.Apply(regs, func(r model.Registration) bool { return in[r.StoreID] || in[r.StoreName] })
}

func (s *registrationService) Detail(ctx context.Context, a *Actor, employeeID string) (*model.Registration, error) {
	if err := authorize(a, permission.ViewRegistrationApproval); err != nil {
		return nil, err
	}
	regs, err := s.fetch(ctx, a, "", model.StatusAll)
	if err != nil {
		return nil, err
	}
	for _, r := range regs {
		if r.EmployeeID == employeeID {
			return &r, nil
		}
	}
	return nil, ErrRegistrationNotFound
}

func (s *registrationService) Approve(ctx context.Context, a *Actor, employeeID string) error {
	if err := authorize(a, permission.ViewRegistrationApproval); err != nil {
		return err
	}
	return s.decide(ctx, a, employeeID, "approve")
}

func (s *registrationService) Reject(ctx context.Context, a *Actor, employeeID string) error {
	if err := authorize(a, permission.ViewRegistrationApproval); err != nil {
		return err
	}
	return s.decide(ctx, a, employeeID, "reject")
}

func (s *registrationService) decide(ctx context.Context, a *Actor, employeeID, action string) error {
	if employeeID == "" {
		return ErrNothingSelected
	}
	_, err := s.api.Send(ctx, apiclient.ActionApproveRegistration, a.Token, map[string]string{
		"employeeId": employeeID,
		"action":     action,
		"approverId": a.User.EmployeeID,
	})
	if err != nil {
		s.logger.Error("注册审批失败", zap.String("employee_id", employeeID), zap.String("action", action), zap.Error(err))
		return err
	}
	s.logger.Info("注册审批", zap.String("employee_id", employeeID), zap.String("action", action), zap.String("by", a.User.EmployeeID))
	if action == "approve" {
		s.dir.Invalidate(ctx)
	}
	return nil
}

func (s *registrationService) BulkApprove(ctx context.Context, a *Actor, selected string) (*dto.BulkResult, error) {
	return s.bulk(ctx, a, selected, "approve")
}

func (s *registrationService) BulkReject(ctx context.Context, a *Actor, selected string) (*dto.BulkResult, error) {
	return s.bulk(ctx, a, selected, "reject")
}

func (s *registrationService) bulk(ctx context.Context, a *Actor, selected, action string) (*dto.BulkResult, error) {
	if err := authorize(a, permission.ViewRegistrationApproval); err != nil {
		return nil, err
	}
	ids := selection.DecodeSet(selected).IDs()
	if len(ids) == 0 {
		return nil, ErrNothingSelected
	}

	res := &dto.BulkResult{Failed: make(map[string]string)}
	var first error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.decide(ctx, a, id, action); err != nil {
			res.Failed[id] = err.Error()
			if first == nil {
				first = fmt.Errorf("%s: %w", id, err)
			}
			continue
		}
		res.Done = append(res.Done, id)
	}
	return res, first
}
