// Package permission 集中维护角色 → 视图/动作的权限表
//
// 权限检查只影响界面可见性，远端接口仍会做鉴权
package permission

import (
	"strings"

	"tocotoco-hr/portal/internal/model"
)

// 视图名称
const (
	ViewHome                 = "home"
	ViewTimesheet            = "timesheet"
	ViewWorkShifts           = "work_shifts"
	ViewShiftAssignment      = "shift_assignment"
	ViewAttendance           = "attendance"
	ViewAttendanceRequest    = "attendance_request"
	ViewAnalytics            = "analytics"
	ViewPersonnelApproval    = "personnel_approval"
	ViewShiftRequests        = "shift_requests"
	ViewPermission           = "permission"
	ViewTaskAssignment       = "task_assignment"
	ViewTaskList             = "task_list"
	ViewTaskApproval         = "task_approval"
	ViewRegistrationApproval = "registration_approval"
	ViewPersonalInfo         = "personal_info"
)

var everyone = model.Roles

// View 导航项
type View struct {
	Name  string
	Title string
	Icon  string
	Group string
	Roles []string
}

// 导航顺序即表内顺序
var views = []View{
	{ViewHome, "Trang chủ", "🏠", "", everyone},
	{ViewTimesheet, "Bảng công", "📊", "Chấm công", everyone},
	{ViewWorkShifts, "Lịch làm việc", "📅", "Chấm công", everyone},
	{ViewAttendance, "Chấm công GPS", "📍", "Chấm công", everyone},
	{ViewAttendanceRequest, "Gửi yêu cầu", "📝", "Chấm công", everyone},
	{ViewShiftAssignment, "Phân ca", "🗓️", "Quản lý", []string{model.RoleAdmin, model.RoleArea, model.RoleManager}},
	{ViewShiftRequests, "Yêu cầu đổi ca", "🔄", "Quản lý", []string{model.RoleAdmin, model.RoleArea}},
	{ViewPersonnelApproval, "Duyệt nhân sự", "✅", "Quản lý", []string{model.RoleAdmin, model.RoleManager}},
	{ViewRegistrationApproval, "Duyệt đăng ký", "🆕", "Quản lý", []string{model.RoleAdmin, model.RoleManager}},
	{ViewAnalytics, "Thống kê", "📈", "Quản lý", []string{model.RoleAdmin, model.RoleArea, model.RoleManager}},
	{ViewPermission, "Phân quyền", "🔐", "Quản trị", []string{model.RoleAdmin}},
	{ViewTaskAssignment, "Giao việc", "📌", "Công việc", everyone},
	{ViewTaskList, "Công việc của tôi", "📋", "Công việc", everyone},
	{ViewTaskApproval, "Duyệt công việc", "🧾", "Công việc", []string{model.RoleAdmin, model.RoleManager}},
	{ViewPersonalInfo, "Thông tin cá nhân", "👤", "", everyone},
}

// actions 单独列出的动作；未列出的动作继承所属视图的权限
var actions = map[string][]string{
	"task.final_approve": {model.RoleAdmin},
	"task.final_reject":  {model.RoleAdmin},
	"reward.add":         {model.RoleAdmin, model.RoleManager},
}

var byName = func() map[string]View {
	m := make(map[string]View, len(views))
	for _, v := range views {
		m[v.Name] = v
	}
	return m
}()

func normalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Lookup 查找视图定义
func Lookup(view string) (View, bool) {
	v, ok := byName[view]
	return v, ok
}

// CanView 角色是否可打开视图；未知视图一律拒绝
func CanView(role, view string) bool {
	v, ok := byName[view]
	if !ok {
		return false
	}
	return contains(v.Roles, normalizeRole(role))
}

// CanAct 角色是否可执行动作；action 未单独列出时按 view 判断
func CanAct(role, view, action string) bool {
	if roles, ok := actions[action]; ok {
		return contains(roles, normalizeRole(role))
	}
	return CanView(role, view)
}

// Navigation 角色可见的导航项
func Navigation(role string) []View {
	out := make([]View, 0, len(views))
	for _, v := range views {
		if CanView(role, v.Name) {
			out = append(out, v)
		}
	}
	return out
}

// RoleName 角色显示名称
func RoleName(role string) string {
	switch normalizeRole(role) {
	case model.RoleAdmin:
		return "Quản trị viên"
	case model.RoleManager:
		return "Quản lý cửa hàng"
	case model.RoleArea:
		return "Quản lý khu vực"
	case model.RoleEmployee:
		return "Nhân viên"
	}
	return role
}

// Capabilities 角色权限说明（编辑权限时的预览）
func Capabilities(role string) []string {
	switch normalizeRole(role) {
	case model.RoleAdmin:
		return []string{
			"Toàn quyền quản lý hệ thống",
			"Phân quyền và chỉnh sửa nhân viên",
			"Duyệt đăng ký, yêu cầu và công việc",
			"Xem thống kê toàn hệ thống",
		}
	case model.RoleArea:
		return []string{
			"Quản lý các cửa hàng trong khu vực",
			"Phân ca và duyệt yêu cầu đổi ca",
			"Xem thống kê khu vực",
		}
	case model.RoleManager:
		return []string{
			"Quản lý cửa hàng được giao",
			"Phân ca cho nhân viên cửa hàng",
			"Duyệt nhân sự và công việc",
		}
	case model.RoleEmployee:
		return []string{
			"Chấm công và xem bảng công",
			"Gửi yêu cầu nghỉ phép, đổi ca",
			"Nhận và thực hiện công việc",
		}
	}
	return nil
}

// AssignmentScope 编辑权限时的门店分配控件类型
const (
	ScopeRegion      = "region"
	ScopeMultiStore  = "multi_store"
	ScopeSingleStore = "single_store"
)

// Scope AM 按区域，QL 可多门店，其余单门店
func Scope(role string) string {
	switch normalizeRole(role) {
	case model.RoleArea:
		return ScopeRegion
	case model.RoleManager:
		return ScopeMultiStore
	}
	return ScopeSingleStore
}
