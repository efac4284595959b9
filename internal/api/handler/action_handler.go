package handler

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/selection"
	"tocotoco-hr/portal/internal/service"
	"tocotoco-hr/portal/internal/view"
	"tocotoco-hr/portal/pkg/response"
)

// actionFunc 执行动作并返回由脚本应用到页面的结果
type actionFunc func(c *gin.Context, a *service.Actor) (*response.ActionResult, error)

// action 动作注册项；viewOf 返回用于权限检查的视图
type action struct {
	viewOf func(c *gin.Context) string
	run    actionFunc
}

const (
	actTaskApprove = "task.approve"
	actTaskReject  = "task.reject"
)

func fixed(view string) func(*gin.Context) string {
	return func(*gin.Context) string { return view }
}

// ActionHandler 页面动作分发（POST /actions/:action）
type ActionHandler struct {
	svc     *service.Service
	r       *view.Renderer
	actions map[string]action
	logger  *zap.Logger
}

// NewActionHandler 创建 ActionHandler 并注册全部动作
func NewActionHandler(svc *service.Service, r *view.Renderer, logger *zap.Logger) *ActionHandler {
	h := &ActionHandler{svc: svc, r: r, logger: logger}
	h.actions = map[string]action{
		// 排班
		"shift.toggle":      {fixed(permission.ViewShiftAssignment), h.shiftToggle},
		"shift.bulk_assign": {fixed(permission.ViewShiftAssignment), h.shiftBulkAssign},
		"shift.import_ics":  {fixed(permission.ViewShiftAssignment), h.shiftImportICS},
		// 考勤
		"attendance.locate":  {fixed(permission.ViewAttendance), h.attendanceLocate},
		"attendance.punch":   {fixed(permission.ViewAttendance), h.attendancePunch},
		"attendance.request": {fixed(permission.ViewAttendanceRequest), h.attendanceRequest},
		// 任务
		"task.create":        {fixed(permission.ViewTaskAssignment), h.taskCreate},
		"task.picker":        {fixed(permission.ViewTaskAssignment), h.taskPicker},
		"task.detail":        {taskView, h.taskDetail},
		"task.comment":       {taskView, h.taskComment},
		"task.approve":       {fixed(permission.ViewTaskApproval), h.taskDecide(actTaskApprove)},
		"task.reject":        {fixed(permission.ViewTaskApproval), h.taskDecide(actTaskReject)},
		"task.final_approve": {fixed(permission.ViewTaskApproval), h.taskDecide(service.ActFinalApprove)},
		"task.final_reject":  {fixed(permission.ViewTaskApproval), h.taskDecide(service.ActFinalReject)},
		"reward.add":         {fixed(permission.ViewPersonnelApproval), h.rewardAdd},
		// 请求审批
		"request.approve": {requestView, h.requestDecide(true)},
		"request.reject":  {requestView, h.requestDecide(false)},
		// 注册审批
		"registration.approve":      {fixed(permission.ViewRegistrationApproval), h.registrationDecide(true)},
		"registration.reject":       {fixed(permission.ViewRegistrationApproval), h.registrationDecide(false)},
		"registration.bulk_approve": {fixed(permission.ViewRegistrationApproval), h.registrationBulk(true)},
		"registration.bulk_reject":  {fixed(permission.ViewRegistrationApproval), h.registrationBulk(false)},
		"registration.toggle":       {fixed(permission.ViewRegistrationApproval), h.registrationToggle},
		"registration.detail":       {fixed(permission.ViewRegistrationApproval), h.registrationDetail},
		// 权限管理
		"permission.edit":         {fixed(permission.ViewPermission), h.permissionEdit},
		"permission.preview_role": {fixed(permission.ViewPermission), h.permissionEdit},
		"permission.save":         {fixed(permission.ViewPermission), h.permissionSave},
		// 个人信息
		"personal.update":         {fixed(permission.ViewPersonalInfo), h.personalUpdate},
		"personal.change_request": {fixed(permission.ViewPersonalInfo), h.personalChangeRequest},
		"session.refresh":         {fixed(permission.ViewHome), h.sessionRefresh},
		// 导出
		"export.email_timesheet": {fixed(permission.ViewTimesheet), h.emailTimesheet},
	}
	return h
}

// task.detail / task.comment 在“我的任务”和“审批”两个视图中都可用
func taskView(c *gin.Context) string {
	if c.PostForm("view") == permission.ViewTaskApproval {
		return permission.ViewTaskApproval
	}
	return permission.ViewTaskList
}

func requestView(c *gin.Context) string {
	if c.PostForm("kind") == model.KindShift {
		return permission.ViewShiftRequests
	}
	return permission.ViewPersonnelApproval
}

// Dispatch 查找动作 → 权限检查 → 执行 → 把错误映射为提示
// POST /actions/:action
func (h *ActionHandler) Dispatch(c *gin.Context) {
	a, ok := MustGetActor(c)
	if !ok {
		return
	}
	// 只接受脚本发起的请求
	if c.GetHeader("X-Requested-With") == "" {
		response.Forbidden(c, 10003, service.ErrAccessDenied.Error())
		return
	}

	name := c.Param("action")
	act, found := h.actions[name]
	if !found {
		response.NotFound(c, 10404, "Chức năng không tồn tại")
		return
	}

	viewName := act.viewOf(c)
	if !permission.CanAct(a.User.Position, viewName, name) {
		h.logger.Warn("拒绝执行动作",
			zap.String("action", name),
			zap.String("view", viewName),
			zap.String("employee_id", a.User.EmployeeID),
		)
		response.Action(c, &response.ActionResult{Notice: response.Failure(service.ErrAccessDenied.Error())})
		return
	}

	result, err := act.run(c, a)
	if err != nil {
		if sessionLost(err) {
			response.Unauthorized(c, 10002, service.ErrSessionExpired.Error())
			return
		}
		if !isBusiness(err) {
			h.logger.Error("动作执行失败", zap.String("action", name), zap.Error(err))
		}
		response.Action(c, &response.ActionResult{Notice: noticeFor(err), KeepOpen: true})
		return
	}
	response.Action(c, result)
}

// fragment 渲染片段并放入结果
func (h *ActionHandler) fragment(name string, data interface{}, target string, notice *response.Notice) (*response.ActionResult, error) {
	html, err := h.r.Fragment(name, data)
	if err != nil {
		return nil, err
	}
	return &response.ActionResult{Notice: notice, HTML: string(html), Target: target, KeepOpen: true}, nil
}

func bind(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBind(dst); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// 排班
// ═══════════════════════════════════════════════════════════

func (h *ActionHandler) shiftGrid(c *gin.Context, a *service.Actor, q dto.ShiftQuery, notice *response.Notice) (*response.ActionResult, error) {
	grid, err := h.svc.Shift.LoadAssignments(c.Request.Context(), a, q)
	if err != nil {
		return nil, err
	}
	return h.fragment("shift_grid", grid, "#shift-grid", notice)
}

func (h *ActionHandler) shiftToggle(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var q dto.ShiftQuery
	if err := bind(c, &q); err != nil {
		return nil, err
	}
	set := selection.DecodeSet(q.Selected)
	set.Toggle(c.PostForm("toggle"))
	q.Selected = set.Encode()
	return h.shiftGrid(c, a, q, nil)
}

func (h *ActionHandler) shiftBulkAssign(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.BulkAssignRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	n, err := h.svc.Shift.BulkAssign(c.Request.Context(), a, &req)
	if err != nil {
		return nil, err
	}
	q := dto.ShiftQuery{Store: req.Store, Week: req.Week, Selected: req.Employees}
	return h.shiftGrid(c, a, q, response.Success(fmt.Sprintf("Đã phân %d ca làm việc", n)))
}

func (h *ActionHandler) shiftImportICS(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, &service.ValidationError{Field: "File", Tag: "required", Message: "Vui lòng chọn tệp lịch (.ics)"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	q := dto.ShiftQuery{Store: c.PostForm("store"), Week: c.PostForm("week"), Selected: c.PostForm("selected")}
	n, err := h.svc.Shift.ImportICS(c.Request.Context(), a, q.Store, q.Week, q.Selected, f)
	if err != nil {
		return nil, err
	}
	return h.shiftGrid(c, a, q, response.Success(fmt.Sprintf("Đã nhập %d ca làm việc từ lịch", n)))
}

// ═══════════════════════════════════════════════════════════
// 考勤
// ═══════════════════════════════════════════════════════════

func (h *ActionHandler) attendanceLocate(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.LocateRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	res, err := h.svc.Attendance.Locate(c.Request.Context(), a, req)
	if err != nil {
		return nil, err
	}
	return h.fragment("locate_panel", res, "#locate-panel", nil)
}

func (h *ActionHandler) attendancePunch(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.LocateRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	res, history, err := h.svc.Attendance.Punch(c.Request.Context(), a, req)
	if err != nil {
		return nil, err
	}
	notice := response.Success(res.Message)
	if !res.Success {
		notice = response.Warning(res.Message)
	}
	return h.fragment("attendance_history", history, "#attendance-history", notice)
}

func (h *ActionHandler) attendanceRequest(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var form dto.AttendanceRequestForm
	if err := bind(c, &form); err != nil {
		return nil, err
	}
	if _, err := h.svc.Attendance.SubmitRequest(c.Request.Context(), a, &form); err != nil {
		return nil, err
	}
	return &response.ActionResult{
		Notice: response.Success("Đã gửi yêu cầu"),
		View:   permission.ViewAttendanceRequest,
	}, nil
}

// ═══════════════════════════════════════════════════════════
// 任务
// ═══════════════════════════════════════════════════════════

func (h *ActionHandler) taskCreate(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.TaskCreateRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	if _, err := h.svc.Task.Create(c.Request.Context(), a, &req); err != nil {
		return nil, err
	}
	return &response.ActionResult{
		Notice: response.Success("Đã giao việc"),
		View:   permission.ViewTaskAssignment,
	}, nil
}

func (h *ActionHandler) taskPicker(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.TaskPickerRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	p, err := h.svc.Task.Picker(c.Request.Context(), a, &req)
	if err != nil {
		return nil, err
	}
	return h.fragment("picker", p, "#picker-"+p.Role, nil)
}

func (h *ActionHandler) taskDetail(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	v := taskView(c)
	card, err := h.svc.Task.Detail(c.Request.Context(), a, v, c.PostForm("taskId"))
	if err != nil {
		return nil, err
	}
	return h.fragment("task_detail", gin.H{"card": card, "view": v}, "#modal-body", nil)
}

func (h *ActionHandler) taskComment(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.CommentRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	if err := h.svc.Task.Comment(c.Request.Context(), a, &req); err != nil {
		return nil, err
	}
	v := taskView(c)
	card, err := h.svc.Task.Detail(c.Request.Context(), a, v, req.TaskID)
	if err != nil {
		return nil, err
	}
	return h.fragment("task_detail", gin.H{"card": card, "view": v}, "#modal-body", response.Success("Đã gửi bình luận"))
}

func (h *ActionHandler) taskDecide(act string) actionFunc {
	type decision struct {
		do  func(context.Context, *service.Actor, *dto.TaskDecision) error
		msg string
	}
	decisions := map[string]decision{
		actTaskApprove:          {h.svc.Task.Approve, "Đã duyệt công việc"},
		actTaskReject:           {h.svc.Task.Reject, "Đã từ chối công việc"},
		service.ActFinalApprove: {h.svc.Task.FinalApprove, "Đã phê duyệt hoàn thành"},
		service.ActFinalReject:  {h.svc.Task.FinalReject, "Đã từ chối hoàn thành"},
	}
	dec := decisions[act]

	return func(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
		var d dto.TaskDecision
		if err := bind(c, &d); err != nil {
			return nil, err
		}
		if err := dec.do(c.Request.Context(), a, &d); err != nil {
			return nil, err
		}
		return &response.ActionResult{Notice: response.Success(dec.msg), View: taskView(c)}, nil
	}
}

func (h *ActionHandler) rewardAdd(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.RewardRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	if err := h.svc.Task.AddReward(c.Request.Context(), a, &req); err != nil {
		return nil, err
	}
	return &response.ActionResult{Notice: response.Success("Đã lưu thưởng phạt")}, nil
}

// ═══════════════════════════════════════════════════════════
// 请求审批
// ═══════════════════════════════════════════════════════════

func (h *ActionHandler) requestDecide(approve bool) actionFunc {
	return func(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
		var d dto.RequestDecision
		if err := bind(c, &d); err != nil {
			return nil, err
		}
		kind := c.PostForm("kind")
		msg := "Đã duyệt yêu cầu"
		var err error
		if approve {
			err = h.svc.Request.Approve(c.Request.Context(), a, kind, &d)
		} else {
			err = h.svc.Request.Reject(c.Request.Context(), a, kind, &d)
			msg = "Đã từ chối yêu cầu"
		}
		if err != nil {
			return nil, err
		}
		return &response.ActionResult{Notice: response.Success(msg), View: requestView(c)}, nil
	}
}

// ═══════════════════════════════════════════════════════════
// 注册审批
// ═══════════════════════════════════════════════════════════

func (h *ActionHandler) registrationDecide(approve bool) actionFunc {
	return func(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
		id := c.PostForm("employeeId")
		msg := "Đã duyệt đăng ký"
		var err error
		if approve {
			err = h.svc.Registration.Approve(c.Request.Context(), a, id)
		} else {
			err = h.svc.Registration.Reject(c.Request.Context(), a, id)
			msg = "Đã từ chối đăng ký"
		}
		if err != nil {
			return nil, err
		}
		return &response.ActionResult{Notice: response.Success(msg), View: permission.ViewRegistrationApproval}, nil
	}
}

func (h *ActionHandler) registrationBulk(approve bool) actionFunc {
	return func(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
		var q dto.RegistrationQuery
		if err := bind(c, &q); err != nil {
			return nil, err
		}
		var (
			res *dto.BulkResult
			err error
		)
		verb := "duyệt"
		if approve {
			res, err = h.svc.Registration.BulkApprove(c.Request.Context(), a, q.Selected)
		} else {
			res, err = h.svc.Registration.BulkReject(c.Request.Context(), a, q.Selected)
			verb = "từ chối"
		}
		if res == nil {
			return nil, err
		}

		notice := response.Success(fmt.Sprintf("Đã %s %d đăng ký", verb, len(res.Done)))
		if len(res.Failed) > 0 {
			notice = response.Warning(fmt.Sprintf("Đã %s %d đăng ký, %d đăng ký lỗi", verb, len(res.Done), len(res.Failed)))
		}
		// 批量操作后清空选择，保留其余筛选条件
		q.Selected = ""
		return &response.ActionResult{Notice: notice, View: permission.ViewRegistrationApproval + "?" + registrationQuery(q)}, nil
	}
}

func registrationQuery(q dto.RegistrationQuery) string {
	v := url.Values{}
	for k, s := range map[string]string{"store": q.Store, "status": q.Status, "search": q.Search, "window": q.Window, "selected": q.Selected} {
		if s != "" {
			v.Set(k, s)
		}
	}
	if q.Page > 1 {
		v.Set("page", fmt.Sprint(q.Page))
	}
	return v.Encode()
}

func (h *ActionHandler) registrationToggle(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var q dto.RegistrationQuery
	if err := bind(c, &q); err != nil {
		return nil, err
	}
	set := selection.DecodeSet(q.Selected)
	toggle := c.PostForm("toggle")
	if toggle == "*" {
		// 整页切换：全部已选则取消，否则全选
		list, err := h.svc.Registration.Load(c.Request.Context(), a, q)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(list.Items))
		all := len(list.Items) > 0
		for _, r := range list.Items {
			ids = append(ids, r.EmployeeID)
			all = all && set.Has(r.EmployeeID)
		}
		set.SetAll(ids, !all)
	} else if toggle != "" {
		set.Toggle(toggle)
	}
	q.Selected = set.Encode()

	list, err := h.svc.Registration.Load(c.Request.Context(), a, q)
	if err != nil {
		return nil, err
	}
	return h.fragment("registration_list", list, "#registration-list", nil)
}

func (h *ActionHandler) registrationDetail(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	reg, err := h.svc.Registration.Detail(c.Request.Context(), a, c.PostForm("employeeId"))
	if err != nil {
		return nil, err
	}
	return h.fragment("registration_detail", reg, "#modal-body", nil)
}

// ═══════════════════════════════════════════════════════════
// 权限管理
// ═══════════════════════════════════════════════════════════

// permissionEdit 打开编辑框；position 非空时按新角色预览
func (h *ActionHandler) permissionEdit(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	form, err := h.svc.Permission.EditForm(c.Request.Context(), a, c.PostForm("employeeId"), c.PostForm("position"))
	if err != nil {
		return nil, err
	}
	return h.fragment("permission_edit", form, "#modal-body", nil)
}

func (h *ActionHandler) permissionSave(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.PermissionSaveRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	res, err := h.svc.Permission.Save(c.Request.Context(), a, &req)
	if err != nil {
		return nil, err
	}
	// 只替换被修改的卡片，模态框随成功提示关闭
	result, err := h.fragment("user_card", res.Card, "#user-card-"+res.Card.EmployeeID, response.Success("Đã cập nhật quyền"))
	if err != nil {
		return nil, err
	}
	result.KeepOpen = false
	return result, nil
}

// ═══════════════════════════════════════════════════════════
// 个人信息
// ═══════════════════════════════════════════════════════════

func (h *ActionHandler) personalUpdate(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.PersonalUpdateRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	if _, err := h.svc.Personal.Update(c.Request.Context(), a, &req); err != nil {
		return nil, err
	}
	return &response.ActionResult{Notice: response.Success("Đã cập nhật thông tin"), View: permission.ViewPersonalInfo}, nil
}

func (h *ActionHandler) personalChangeRequest(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	var req dto.ChangeRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	if _, err := h.svc.Personal.RequestChange(c.Request.Context(), a, &req); err != nil {
		return nil, err
	}
	return &response.ActionResult{Notice: response.Success("Đã gửi yêu cầu thay đổi thông tin")}, nil
}

func (h *ActionHandler) sessionRefresh(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	if _, err := h.svc.Auth.Refresh(c.Request.Context(), a); err != nil {
		return nil, err
	}
	return &response.ActionResult{Notice: response.Success("Đã cập nhật thông tin tài khoản"), Redirect: "/app/" + permission.ViewHome}, nil
}

// ═══════════════════════════════════════════════════════════
// 导出
// ═══════════════════════════════════════════════════════════

func (h *ActionHandler) emailTimesheet(c *gin.Context, a *service.Actor) (*response.ActionResult, error) {
	if !h.svc.Mail.Enabled() {
		return nil, service.ErrMailDisabled
	}
	var q dto.TimesheetQuery
	if err := bind(c, &q); err != nil {
		return nil, err
	}
	ts, err := h.svc.Attendance.Timesheet(c.Request.Context(), a, q)
	if err != nil {
		return nil, err
	}
	buf, filename, err := h.svc.Export.Timesheet(ts.Employee, &ts.Timesheet)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Mail.SendTimesheet(c.Request.Context(), a, ts.Month, filename, buf); err != nil {
		if errors.Is(err, service.ErrNoEmail) || errors.Is(err, service.ErrMailDisabled) {
			return nil, err
		}
		h.logger.Error("发送考勤表邮件失败", zap.String("employee_id", a.User.EmployeeID), zap.Error(err))
		return &response.ActionResult{Notice: response.Failure("Không thể gửi email, vui lòng thử lại")}, nil
	}
	return &response.ActionResult{Notice: response.Success("Đã gửi bảng công tới " + a.User.Email)}, nil
}
