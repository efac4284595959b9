package handler

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/service"
	"tocotoco-hr/portal/internal/view"
)

// viewLoader 准备视图模型；查询参数从 c 读取
type viewLoader func(c *gin.Context, a *service.Actor) (interface{}, error)

// ViewHandler 视图分发：权限检查 → 加载数据 → 渲染片段
type ViewHandler struct {
	svc     *service.Service
	r       *view.Renderer
	loaders map[string]viewLoader
	logger  *zap.Logger
}

// NewViewHandler 创建 ViewHandler
func NewViewHandler(svc *service.Service, r *view.Renderer, logger *zap.Logger) *ViewHandler {
	h := &ViewHandler{svc: svc, r: r, logger: logger}
	h.loaders = map[string]viewLoader{
		permission.ViewHome:                 h.home,
		permission.ViewAnalytics:            h.analytics,
		permission.ViewTimesheet:            h.timesheet,
		permission.ViewWorkShifts:           h.workShifts,
		permission.ViewShiftAssignment:      h.shiftAssignment,
		permission.ViewAttendance:           h.attendance,
		permission.ViewAttendanceRequest:    h.attendanceRequest,
		permission.ViewPersonnelApproval:    h.requests(model.KindAttendance),
		permission.ViewShiftRequests:        h.requests(model.KindShift),
		permission.ViewPermission:           h.permissions,
		permission.ViewTaskAssignment:       h.taskForm,
		permission.ViewTaskList:             h.tasks(permission.ViewTaskList),
		permission.ViewTaskApproval:         h.tasks(permission.ViewTaskApproval),
		permission.ViewRegistrationApproval: h.registrations,
		permission.ViewPersonalInfo:         h.personal,
	}
	return h
}

// Root 根路径跳转首页
// GET /
func (h *ViewHandler) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, "/app/"+permission.ViewHome)
}

// Page 整页渲染（外壳 + 视图片段），用于直接打开或刷新
// GET /app/:view
func (h *ViewHandler) Page(c *gin.Context) {
	a, ok := MustGetActor(c)
	if !ok {
		return
	}
	name := c.Param("view")
	html, status := h.render(c, a, name)
	if status == http.StatusUnauthorized {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	shell := view.NewShell(a.User, name, c.Request.URL.RawQuery, html)
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.r.Page(c.Writer, shell); err != nil {
		c.Error(err)
	}
}

// Fragment 只返回视图片段，由脚本注入 #content
// GET /views/:view
func (h *ViewHandler) Fragment(c *gin.Context) {
	a, ok := MustGetActor(c)
	if !ok {
		return
	}
	html, status := h.render(c, a, c.Param("view"))
	if status == http.StatusUnauthorized {
		c.JSON(status, gin.H{"code": 10002, "message": service.ErrSessionExpired.Error()})
		return
	}
	c.Data(status, "text/html; charset=utf-8", []byte(html))
}

// render 权限检查先于任何远端调用；失败时返回无权限或重试面板
func (h *ViewHandler) render(c *gin.Context, a *service.Actor, name string) (template.HTML, int) {
	load, known := h.loaders[name]
	if !known || !permission.CanView(a.User.Position, name) {
		h.logger.Warn("拒绝访问视图",
			zap.String("view", name),
			zap.String("employee_id", a.User.EmployeeID),
			zap.String("role", a.Role()),
		)
		return h.shared(view.AccessDenied, nil), http.StatusForbidden
	}

	data, err := load(c, a)
	if err != nil {
		switch {
		case sessionLost(err):
			return "", http.StatusUnauthorized
		case errors.Is(err, service.ErrAccessDenied):
			return h.shared(view.AccessDenied, nil), http.StatusForbidden
		case errors.Is(err, service.ErrRegistrationBusy):
			// 同一会话的重叠加载直接丢弃，脚本稍后重试
			return "", http.StatusConflict
		}
		h.logger.Error("加载视图失败", zap.String("view", name), zap.Error(err))
		retry := &view.Retry{View: name, Query: c.Request.URL.RawQuery, Message: retryMessage(err)}
		return h.shared(view.ErrorRetry, retry), http.StatusOK
	}

	html, err := h.r.Fragment(view.TemplateFor(name), data)
	if err != nil {
		c.Error(err)
		retry := &view.Retry{View: name, Query: c.Request.URL.RawQuery, Message: msgLoadFailed}
		return h.shared(view.ErrorRetry, retry), http.StatusInternalServerError
	}
	return html, http.StatusOK
}

func (h *ViewHandler) shared(name string, data interface{}) template.HTML {
	html, err := h.r.Fragment(name, data)
	if err != nil {
		return template.HTML(msgLoadFailed)
	}
	return html
}

// ── 视图数据 ──

func (h *ViewHandler) home(c *gin.Context, a *service.Actor) (interface{}, error) {
	return h.svc.Analytics.Dashboard(c.Request.Context(), a)
}

func (h *ViewHandler) analytics(c *gin.Context, a *service.Actor) (interface{}, error) {
	return h.svc.Analytics.Analytics(c.Request.Context(), a)
}

func (h *ViewHandler) timesheet(c *gin.Context, a *service.Actor) (interface{}, error) {
	var q dto.TimesheetQuery
	_ = c.ShouldBindQuery(&q)
	return h.svc.Attendance.Timesheet(c.Request.Context(), a, q)
}

func (h *ViewHandler) workShifts(c *gin.Context, a *service.Actor) (interface{}, error) {
	return h.svc.Shift.WeeklyShifts(c.Request.Context(), a, c.Query("week"))
}

func (h *ViewHandler) shiftAssignment(c *gin.Context, a *service.Actor) (interface{}, error) {
	var q dto.ShiftQuery
	_ = c.ShouldBindQuery(&q)
	return h.svc.Shift.LoadAssignments(c.Request.Context(), a, q)
}

func (h *ViewHandler) attendance(c *gin.Context, a *service.Actor) (interface{}, error) {
	return h.svc.Attendance.View(c.Request.Context(), a)
}

func (h *ViewHandler) attendanceRequest(c *gin.Context, a *service.Actor) (interface{}, error) {
	return h.svc.Attendance.RequestForm(c.Request.Context(), a)
}

func (h *ViewHandler) requests(kind string) viewLoader {
	return func(c *gin.Context, a *service.Actor) (interface{}, error) {
		var q dto.RequestQuery
		_ = c.ShouldBindQuery(&q)
		return h.svc.Request.List(c.Request.Context(), a, kind, q)
	}
}

func (h *ViewHandler) permissions(c *gin.Context, a *service.Actor) (interface{}, error) {
	var q dto.PermissionQuery
	_ = c.ShouldBindQuery(&q)
	return h.svc.Permission.List(c.Request.Context(), a, q)
}

func (h *ViewHandler) taskForm(c *gin.Context, a *service.Actor) (interface{}, error) {
	return h.svc.Task.Form(c.Request.Context(), a)
}

func (h *ViewHandler) tasks(name string) viewLoader {
	return func(c *gin.Context, a *service.Actor) (interface{}, error) {
		var q dto.TaskQuery
		_ = c.ShouldBindQuery(&q)
		return h.svc.Task.List(c.Request.Context(), a, name, q)
	}
}

func (h *ViewHandler) registrations(c *gin.Context, a *service.Actor) (interface{}, error) {
	var q dto.RegistrationQuery
	_ = c.ShouldBindQuery(&q)
	return h.svc.Registration.Load(c.Request.Context(), a, q)
}

func (h *ViewHandler) personal(c *gin.Context, a *service.Actor) (interface{}, error) {
	return h.svc.Personal.View(c.Request.Context(), a)
}
