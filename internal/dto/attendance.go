package dto

import "tocotoco-hr/portal/internal/model"

// ── 考勤模块 DTO ──

// 定位状态
const (
	LocateSearching = "searching"
	LocateSuccess   = "success"
	LocateWarning   = "warning"
	LocateError     = "error"
)

// LocateRequest 浏览器上报的定位结果；Error 非空表示定位失败
type LocateRequest struct {
	Latitude  float64 `form:"lat"   validate:"latitude"`
	Longitude float64 `form:"lng"   validate:"longitude"`
	Accuracy  float64 `form:"accuracy"`
	Error     string  `form:"error"`
}

// LocateResult 定位状态机的当前状态
type LocateResult struct {
	State     string
	Message   string
	Store     *model.Store
	Distance  float64
	Radius    float64
	CanPunch  bool
	Latitude  float64
	Longitude float64
}

// AttendanceView GPS 打卡视图模型
type AttendanceView struct {
	Locate     LocateResult
	History    []model.AttendanceRecord
	Current    *model.CurrentShift
	GeoTimeout int64 // 毫秒
	GeoMaxAge  int64 // 毫秒
}

// TimesheetQuery 考勤表参数
type TimesheetQuery struct {
	Month      string `form:"month"`
	EmployeeID string `form:"employeeId"`
}

// TimesheetView 考勤表视图模型
type TimesheetView struct {
	Month     string
	PrevMonth string
	NextMonth string
	Employee  model.User
	Employees []model.User
	Timesheet model.Timesheet
}

// AttendanceRequestForm 考勤/调班/请假申请
type AttendanceRequestForm struct {
	Type           string `form:"type"           validate:"required,oneof=attendance forgot_checkin shift_change leave"`
	TargetDate     string `form:"targetDate"     validate:"required,datetime=2006-01-02"`
	TargetTime     string `form:"targetTime"     validate:"omitempty,datetime=15:04"`
	CurrentShift   string `form:"currentShift"`
	RequestedShift string `form:"requestedShift" validate:"required_if=Type shift_change"`
	Reason         string `form:"reason"         validate:"required,max=500"`
}

// AttendanceRequestView 申请页视图模型
type AttendanceRequestView struct {
	Types    []Option
	Requests []model.Request
}

// Option 下拉选项
type Option struct {
	Value    string
	Label    string
	Selected bool
}
