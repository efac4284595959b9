package service

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/calendar"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/richtext"
	"tocotoco-hr/portal/internal/selection"
)

// 需要单独授权的动作
const (
	ActFinalApprove = "task.final_approve"
	ActFinalReject  = "task.final_reject"
	ActAddReward    = "reward.add"
)

var ErrTaskNotFound = errors.New("Không tìm thấy công việc")

// TaskService 任务创建、审批与评论
type TaskService interface {
	// List view 为 task_list（我的任务）或 task_approval（待审批）
	List(ctx context.Context, a *Actor, view string, q dto.TaskQuery) (*dto.TaskListView, error)
	Detail(ctx context.Context, a *Actor, view, taskID string) (*dto.TaskCard, error)
	Form(ctx context.Context, a *Actor) (*dto.TaskFormView, error)
	Picker(ctx context.Context, a *Actor, req *dto.TaskPickerRequest) (*dto.PickerView, error)
	Create(ctx context.Context, a *Actor, req *dto.TaskCreateRequest) (string, error)
	Approve(ctx context.Context, a *Actor, d *dto.TaskDecision) error
	Reject(ctx context.Context, a *Actor, d *dto.TaskDecision) error
	FinalApprove(ctx context.Context, a *Actor, d *dto.TaskDecision) error
	FinalReject(ctx context.Context, a *Actor, d *dto.TaskDecision) error
	Comment(ctx context.Context, a *Actor, req *dto.CommentRequest) error
	Rewards(ctx context.Context, a *Actor, employeeID string) ([]model.Reward, error)
	AddReward(ctx context.Context, a *Actor, req *dto.RewardRequest) error
}

type taskService struct {
	api      apiclient.API
	dir      DirectoryService
	pageSize int
	now      func() time.Time
	logger   *zap.Logger
}

// NewTaskService 创建 TaskService 实例
func NewTaskService(api apiclient.API, dir DirectoryService, pageSize int, now func() time.Time, logger *zap.Logger) TaskService {
	return &taskService{api: api, dir: dir, pageSize: pageSize, now: now, logger: logger}
}

// ── 列表 ──

func (s *taskService) load(ctx context.Context, a *Actor, view string) ([]model.Task, error) {
	switch view {
	case permission.ViewTaskApproval:
		return fetchList[model.Task](ctx, s.api, a, apiclient.ActionGetApprovalTasks, nil)
	case permission.ViewTaskList:
		return fetchList[model.Task](ctx, s.api, a, apiclient.ActionGetTasks, url.Values{"employeeId": {a.User.EmployeeID}})
	}
	return nil, ErrAccessDenied
}

func (s *taskService) List(ctx context.Context, a *Actor, view string, q dto.TaskQuery) (*dto.TaskListView, error) {
	if err := authorize(a, view); err != nil {
		return nil, err
	}
	tasks, err := s.load(ctx, a, view)
	if err != nil {
		s.logger.Error("获取任务列表失败", zap.String("view", view), zap.Error(err))
		return nil, err
	}

	filtered := selection.Apply(tasks, selection.All[model.Task](
		func(t model.Task) bool { return q.Status == "" || q.Status == model.StatusAll || t.Status == q.Status },
		func(t model.Task) bool {
			return selection.ContainsFold(q.Search, t.Title, t.ID, t.EmployeeName, richtext.PlainText(t.Description))
		},
	))
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].CreatedAt > filtered[j].CreatedAt })

	page := selection.Paginate(filtered, pageOf(q.Page), s.pageSize)
	cards := make([]dto.TaskCard, 0, len(page.Items))
	for _, t := range page.Items {
		cards = append(cards, s.card(a, view, t))
	}

	title := "Công việc của tôi"
	if view == permission.ViewTaskApproval {
		title = "Duyệt công việc"
	}
	return &dto.TaskListView{
		View:  view,
		Title: title,
		Query: q,
		Cards: cards,
		Page:  page.Page,
		Pages: page.Pages(),
		Total: page.Total,
	}, nil
}

func (s *taskService) card(a *Actor, view string, t model.Task) dto.TaskCard {
	today := calendar.DateKey(s.now())
	open := t.Status == model.TaskPending || t.Status == model.TaskInProgress
	role := a.User.Position
	return dto.TaskCard{
		Task:         t,
		Excerpt:      richtext.Excerpt(t.Description, 140),
		PriorityText: model.PriorityText(t.Priority),
		StatusText:   model.TaskStatusText(t.Status),
		Overdue:      open && t.Deadline != "" && t.Deadline < today,
		CanApprove:   view == permission.ViewTaskApproval && t.Status == model.TaskPending,
		CanFinal:     t.Status == model.TaskInProgress && permission.CanAct(role, permission.ViewTaskApproval, ActFinalApprove),
	}
}

func (s *taskService) Detail(ctx context.Context, a *Actor, view, taskID string) (*dto.TaskCard, error) {
	if err := authorize(a, view); err != nil {
		return nil, err
	}
	tasks, err := s.load(ctx, a, view)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID == taskID {
			c := s.card(a, view, t)
			return &c, nil
		}
	}
	return nil, ErrTaskNotFound
}

// ── 创建 ──

var pickerRoles = []string{"participants", "supporters", "assigners"}

func (s *taskService) Form(ctx context.Context, a *Actor) (*dto.TaskFormView, error) {
	if err := authorize(a, permission.ViewTaskAssignment); err != nil {
		return nil, err
	}
	candidates, err := s.dir.ManagedUsers(ctx, a)
	if err != nil {
		return nil, err
	}
	pickers := make([]dto.PickerView, 0, len(pickerRoles))
	for _, role := range pickerRoles {
		pickers = append(pickers, buildPicker(role, selection.NewSet(), candidates, ""))
	}
	return &dto.TaskFormView{
		Priorities: options([]string{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent},
			model.PriorityText, model.PriorityMedium),
		Pickers: pickers,
		Toolbar: richtext.Toolbar,
	}, nil
}

func (s *taskService) Picker(ctx context.Context, a *Actor, req *dto.TaskPickerRequest) (*dto.PickerView, error) {
	if err := authorize(a, permission.ViewTaskAssignment); err != nil {
		return nil, err
	}
	if err := validateInput(req); err != nil {
		return nil, err
	}
	candidates, err := s.dir.ManagedUsers(ctx, a)
	if err != nil {
		return nil, err
	}
	set := selection.DecodeSet(req.Selected)
	if req.Toggle != "" {
		set.Toggle(req.Toggle)
	}
	p := buildPicker(req.Role, set, candidates, req.Search)
	return &p, nil
}

func buildPicker(role string, set *selection.Set, candidates []model.User, search string) dto.PickerView {
	byID := make(map[string]model.User, len(candidates))
	for _, u := range candidates {
		byID[u.EmployeeID] = u
	}
	chosen := make([]model.User, 0, set.Len())
	for _, id := range set.IDs() {
		if u, ok := byID[id]; ok {
			chosen = append(chosen, u)
		} else {
			chosen = append(chosen, model.User{EmployeeID: id})
		}
	}
	checked := make(map[string]bool, set.Len())
	for _, id := range set.IDs() {
		checked[id] = true
	}
	return dto.PickerView{
		Role:     role,
		Selected: set.Encode(),
		Chosen:   chosen,
		Options: selection.Apply(candidates, func(u model.User) bool {
			return selection.ContainsFold(search, u.FullName, u.EmployeeID, u.StoreName)
		}),
		Search:    search,
		IsChecked: checked,
	}
}

func (s *taskService) Create(ctx context.Context, a *Actor, req *dto.TaskCreateRequest) (string, error) {
	if err := authorize(a, permission.ViewTaskAssignment); err != nil {
		return "", err
	}
	if err := validateInput(req); err != nil {
		return "", err
	}
	participants := selection.DecodeSet(req.Participants).IDs()
	if len(participants) == 0 {
		return "", &ValidationError{Field: "Participants", Tag: "required", Message: "Vui lòng chọn người thực hiện"}
	}

	task := model.Task{
		Title:        strings.TrimSpace(req.Title),
		Description:  richtext.Sanitize(req.Description),
		Priority:     req.Priority,
		Deadline:     req.Deadline,
		Participants: participants,
		Supporters:   selection.DecodeSet(req.Supporters).IDs(),
		Assigners:    selection.DecodeSet(req.Assigners).IDs(),
	}
	raw, err := s.api.Send(ctx, apiclient.ActionCreateTask, a.Token, task)
	if err != nil {
		s.logger.Error("创建任务失败", zap.String("title", task.Title), zap.Error(err))
		return "", err
	}
	var id string
	apiclient.DecodeField(raw, "id", &id)
	s.logger.Info("创建任务",
		zap.String("task_id", id),
		zap.String("creator", a.User.EmployeeID),
		zap.Int("participants", len(participants)),
	)
	return id, nil
}

// ── 审批 ──

func (s *taskService) decide(ctx context.Context, a *Actor, action string, d *dto.TaskDecision, needReason bool) error {
	if strings.TrimSpace(d.TaskID) == "" {
		return &ValidationError{Field: "TaskID", Tag: "required", Message: "Thiếu mã công việc"}
	}
	if needReason && strings.TrimSpace(d.Reason) == "" {
		return ErrReasonRequired
	}
	_, err := s.api.Send(ctx, action, a.Token, map[string]string{
		"taskId":     d.TaskID,
		"note":       strings.TrimSpace(d.Note),
		"reason":     strings.TrimSpace(d.Reason),
		"approverId": a.User.EmployeeID,
	})
	if err != nil {
		s.logger.Error("任务审批失败", zap.String("action", action), zap.String("task_id", d.TaskID), zap.Error(err))
		return err
	}
	s.logger.Info("任务审批", zap.String("action", action), zap.String("task_id", d.TaskID), zap.String("by", a.User.EmployeeID))
	return nil
}

func (s *taskService) Approve(ctx context.Context, a *Actor, d *dto.TaskDecision) error {
	if err := authorize(a, permission.ViewTaskApproval); err != nil {
		return err
	}
	return s.decide(ctx, a, apiclient.ActionApproveTask, d, false)
}

func (s *taskService) Reject(ctx context.Context, a *Actor, d *dto.TaskDecision) error {
	if err := authorize(a, permission.ViewTaskApproval); err != nil {
		return err
	}
	return s.decide(ctx, a, apiclient.ActionRejectTask, d, true)
}

func (s *taskService) FinalApprove(ctx context.Context, a *Actor, d *dto.TaskDecision) error {
	if a == nil || !permission.CanAct(a.User.Position, permission.ViewTaskApproval, ActFinalApprove) {
		return ErrAccessDenied
	}
	return s.decide(ctx, a, apiclient.ActionFinalApprove, d, false)
}

func (s *taskService) FinalReject(ctx context.Context, a *Actor, d *dto.TaskDecision) error {
	if a == nil || !permission.CanAct(a.User.Position, permission.ViewTaskApproval, ActFinalReject) {
		return ErrAccessDenied
	}
	return s.decide(ctx, a, apiclient.ActionFinalReject, d, true)
}

// ── 评论 ──

func (s *taskService) Comment(ctx context.Context, a *Actor, req *dto.CommentRequest) error {
	if err := authorize(a, permission.ViewTaskList); err != nil {
		return err
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := validateInput(req); err != nil {
		return err
	}
	action := apiclient.ActionAddComment
	body := map[string]string{"taskId": req.TaskID, "content": req.Content}
	if req.CommentID != "" {
		action = apiclient.ActionReplyToComment
		body["commentId"] = req.CommentID
	}
	if _, err := s.api.Send(ctx, action, a.Token, body); err != nil {
		s.logger.Error("发表评论失败", zap.String("task_id", req.TaskID), zap.Error(err))
		return err
	}
	return nil
}

// ── 奖惩 ──

func (s *taskService) Rewards(ctx context.Context, a *Actor, employeeID string) ([]model.Reward, error) {
	if a == nil {
		return nil, ErrAccessDenied
	}
	// 员工只能查看自己的奖惩
	if employeeID == "" || !permission.CanAct(a.User.Position, permission.ViewPersonnelApproval, ActAddReward) {
		employeeID = a.User.EmployeeID
	}
	rewards, err := fetchList[model.Reward](ctx, s.api, a, apiclient.ActionGetRewards, url.Values{"employeeId": {employeeID}})
	if err != nil {
		return nil, err
	}
	out := rewards[:0]
	for _, r := range rewards {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (s *taskService) AddReward(ctx context.Context, a *Actor, req *dto.RewardRequest) error {
	if a == nil || !permission.CanAct(a.User.Position, permission.ViewPersonnelApproval, ActAddReward) {
		return ErrAccessDenied
	}
	if err := validateInput(req); err != nil {
		return err
	}
	reward := model.Reward{
		EmployeeID: req.EmployeeID,
		Type:       req.Type,
		Amount:     req.Amount,
		Reason:     strings.TrimSpace(req.Reason),
	}
	if _, err := s.api.Send(ctx, apiclient.ActionAddReward, a.Token, reward); err != nil {
		s.logger.Error("添加奖惩失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return err
	}
	s.logger.Info("添加奖惩",
		zap.String("employee_id", req.EmployeeID),
		zap.String("type", req.Type),
		zap.Float64("amount", req.Amount),
		zap.String("by", a.User.EmployeeID),
	)
	return nil
}
