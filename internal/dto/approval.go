package dto

import "tocotoco-hr/portal/internal/model"

// ── 请求审批 / 注册审批 DTO ──

// RequestQuery 请求列表筛选
type RequestQuery struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Page   int    `form:"page"`
}

// RequestDecision 审批请求；拒绝时 Reason 必填，批准时 Note 可空
type RequestDecision struct {
	RequestID string `form:"requestId" validate:"required"`
	Note      string `form:"note"`
	Reason    string `form:"reason"`
}

// RequestListView 请求列表视图模型
type RequestListView struct {
	Kind     string
	Title    string
	Query    RequestQuery
	Statuses []Option
	Items    []model.Request
	Page     int
	Pages    []int
	Total    int
	Pending  int
}

// RegistrationQuery 注册审批筛选
type RegistrationQuery struct {
	Store    string `form:"store"`
	Status   string `form:"status"`
	Search   string `form:"search"`
	Window   string `form:"window"`
	Page     int    `form:"page"`
	Selected string `form:"selected"`
}

// RegistrationAction 单个或批量审批；批量时使用 Selected
type RegistrationAction struct {
	EmployeeID string `form:"employeeId"`
	Selected   string `form:"selected"`
}

// RegistrationListView 注册审批视图模型
type RegistrationListView struct {
	Query    RegistrationQuery
	Stores   []model.Store
	Statuses []Option
	Windows  []Option
	Items    []model.Registration
	Page     int
	Pages    []int
	Total    int
	HasPrev  bool
	HasNext  bool
	// Selected 的 CSV 与数量
	Selected      string
	SelectedCount int
	IsSelected    map[string]bool
	Busy          bool
	Detail        *model.Registration
}

// BulkResult 批量操作结果
type BulkResult struct {
	Done   []string
	Failed map[string]string
}
