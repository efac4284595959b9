package dto

import "tocotoco-hr/portal/internal/model"

// ── 排班模块 DTO ──

// ShiftQuery 排班视图参数
type ShiftQuery struct {
	Store string `form:"store"`
	Week  string `form:"week"`
	// Selected 已选员工（CSV，跨片段重绘保留）
	Selected string `form:"selected"`
}

// BulkAssignRequest 批量排班
type BulkAssignRequest struct {
	Store     string   `form:"store"     validate:"required"`
	Week      string   `form:"week"      validate:"required"`
	Employees string   `form:"selected"`
	Days      []string `form:"days"`
	StartTime string   `form:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime   string   `form:"endTime"   validate:"omitempty,datetime=15:04"`
	// Recurrence 可选 RRULE，提供时覆盖 Days
	Recurrence string `form:"recurrence"`
}

// ShiftCell 排班表格子
type ShiftCell struct {
	Date       string
	StartTime  string
	EndTime    string
	Status     string
	StatusText string
}

// ShiftRow 一名员工一周的排班
type ShiftRow struct {
	EmployeeID   string
	EmployeeName string
	Selected     bool
	Cells        []ShiftCell
	WorkingDays  int
}

// ShiftDay 表头
type ShiftDay struct {
	Date    string
	Weekday string
	IsToday bool
}

// ShiftGridView 排班视图模型
type ShiftGridView struct {
	Stores   []model.Store
	Store    string
	Week     string
	PrevWeek string
	NextWeek string
	Days     []ShiftDay
	Rows     []ShiftRow
	Selected string
	// SelectedNames 已选员工摘要，始终由 Selected 推导
	SelectedNames []string
}

// WeeklyShiftsView 员工本周排班
type WeeklyShiftsView struct {
	Week     string
	PrevWeek string
	NextWeek string
	Shifts   []model.ShiftAssignment
	Current  *model.CurrentShift
}
