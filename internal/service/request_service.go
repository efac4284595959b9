package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/selection"
)

var ErrUnknownRequestKind = errors.New("Loại yêu cầu không hợp lệ")

// RequestService 考勤/调班请求的审批
type RequestService interface {
	// List kind 为 attendance（人事审批）或 shift（调班审批）
	List(ctx context.Context, a *Actor, kind string, q dto.RequestQuery) (*dto.RequestListView, error)
	Approve(ctx context.Context, a *Actor, kind string, d *dto.RequestDecision) error
	// Reject 理由为空时直接返回 ErrReasonRequired，不调用远端
	Reject(ctx context.Context, a *Actor, kind string, d *dto.RequestDecision) error
}

type requestService struct {
	api      apiclient.API
	pageSize int
	logger   *zap.Logger
}

// NewRequestService 创建 RequestService 实例
func NewRequestService(api apiclient.API, pageSize int, logger *zap.Logger) RequestService {
	return &requestService{api: api, pageSize: pageSize, logger: logger}
}

// requestKind 每类请求对应的视图与远端动作
type requestKind struct {
	view    string
	title   string
	list    string
	approve string
	reject  string
}

var requestKinds = map[string]requestKind{
	model.KindAttendance: {
		view:    permission.ViewPersonnelApproval,
		title:   "Duyệt nhân sự",
		list:    apiclient.ActionGetAttendanceRequests,
		approve: apiclient.ActionApproveAttendanceRequest,
		reject:  apiclient.ActionRejectAttendanceRequest,
	},
	model.KindShift: {
		view:    permission.ViewShiftRequests,
		title:   "Yêu cầu đổi ca",
		list:    apiclient.ActionGetShiftRequests,
		approve: apiclient.ActionApproveShiftRequest,
		reject:  apiclient.ActionRejectShiftRequest,
	},
}

func kindOf(a *Actor, kind string) (requestKind, error) {
	k, ok := requestKinds[kind]
	if !ok {
		return requestKind{}, ErrUnknownRequestKind
	}
	if err := authorize(a, k.view); err != nil {
		return requestKind{}, err
	}
	return k, nil
}

var statusFilters = []string{model.StatusAll, model.StatusPending, model.StatusApproved, model.StatusRejected}

func statusFilterText(s string) string {
	if s == model.StatusAll {
		return "Tất cả"
	}
	return model.StatusText(s)
}

// statusOption 下拉框选中项；all 保持不变，其余词汇统一
func statusOption(status string) string {
	if strings.EqualFold(status, model.StatusAll) {
		return model.StatusAll
	}
	return model.NormalizeStatus(status)
}

func (s *requestService) List(ctx context.Context, a *Actor, kind string, q dto.RequestQuery) (*dto.RequestListView, error) {
	k, err := kindOf(a, kind)
	if err != nil {
		return nil, err
	}
	if q.Status == "" {
		q.Status = model.StatusPending
	}
	items, err := fetchList[model.Request](ctx, s.api, a, k.list, nil)
	if err != nil {
		s.logger.Error("获取请求列表失败", zap.String("kind", kind), zap.Error(err))
		return nil, err
	}

	pending := 0
	for _, r := range items {
		if r.Status == model.StatusPending {
			pending++
		}
	}

	filtered := selection.Apply(items, selection.All[model.Request](
		func(r model.Request) bool { return model.MatchStatus(r.Status, q.Status) },
		func(r model.Request) bool {
			return selection.ContainsFold(q.Search, r.EmployeeName, r.EmployeeID, r.StoreName, r.Reason)
		},
	))
	// 待审批优先，其余按创建时间倒序
	sort.SliceStable(filtered, func(i, j int) bool {
		pi, pj := filtered[i].Status == model.StatusPending, filtered[j].Status == model.StatusPending
		if pi != pj {
			return pi
		}
		return filtered[i].CreatedAt > filtered[j].CreatedAt
	})

	page := selection.Paginate(filtered, pageOf(q.Page), s.pageSize)
	return &dto.RequestListView{
		Kind:     kind,
		Title:    k.title,
		Query:    q,
		Statuses: options(statusFilters, statusFilterText, statusOption(q.Status)),
		Items:    page.Items,
		Page:     page.Page,
		Pages:    page.Pages(),
		Total:    page.Total,
		Pending:  pending,
	}, nil
}

func (s *requestService) Approve(ctx context.Context, a *Actor, kind string, d *dto.RequestDecision) error {
	k, err := kindOf(a, kind)
	if err != nil {
		return err
	}
	return s.decide(ctx, a, k.approve, d.RequestID, map[string]string{"note": strings.TrimSpace(d.Note)})
}

func (s *requestService) Reject(ctx context.Context, a *Actor, kind string, d *dto.RequestDecision) error {
	k, err := kindOf(a, kind)
	if err != nil {
		return err
	}
	reason := strings.TrimSpace(d.Reason)
	if reason == "" {
		return ErrReasonRequired
	}
	return s.decide(ctx, a, k.reject, d.RequestID, map[string]string{"reason": reason})
}

func (s *requestService) decide(ctx context.Context, a *Actor, action, requestID string, body map[string]string) error {
	if strings.TrimSpace(requestID) == "" {
		return &ValidationError{Field: "RequestID", Tag: "required", Message: "Thiếu mã yêu cầu"}
	}
	body["requestId"] = requestID
	body["approverId"] = a.User.EmployeeID
	if _, err := s.api.Send(ctx, action, a.Token, body); err != nil {
		s.logger.Error("审批请求失败", zap.String("action", action), zap.String("request_id", requestID), zap.Error(err))
		return err
	}
	s.logger.Info("审批请求", zap.String("action", action), zap.String("request_id", requestID), zap.String("by", a.User.EmployeeID))
	return nil
}
