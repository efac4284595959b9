package dto

import (
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/richtext"
)

// ── 任务模块 DTO ──

// TaskCreateRequest 创建任务；三个人员列表为 CSV
type TaskCreateRequest struct {
	Title        string `form:"title"        validate:"required,max=200"`
	Description  string `form:"description"`
	Priority     string `form:"priority"     validate:"required,oneof=low medium high urgent"`
	Deadline     string `form:"deadline"     validate:"required,datetime=2006-01-02"`
	Participants string `form:"participants" validate:"required"`
	Supporters   string `form:"supporters"`
	Assigners    string `form:"assigners"`
}

// TaskDecision 审批任务；拒绝时 Reason 必填
type TaskDecision struct {
	TaskID string `form:"taskId" validate:"required"`
	Note   string `form:"note"`
	Reason string `form:"reason"`
}

// CommentRequest 评论或回复（CommentID 非空时为回复）
type CommentRequest struct {
	TaskID    string `form:"taskId"    validate:"required"`
	CommentID string `form:"commentId"`
	Content   string `form:"content"   validate:"required,max=2000"`
}

// TaskPickerRequest 人员选择器切换
type TaskPickerRequest struct {
	Role     string `form:"role"     validate:"required,oneof=participants supporters assigners"`
	Selected string `form:"selected"`
	Toggle   string `form:"toggle"`
	Search   string `form:"search"`
}

// TaskQuery 任务列表参数
type TaskQuery struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Page   int    `form:"page"`
}

// TaskCard 任务卡片
type TaskCard struct {
	model.Task
	Excerpt      string
	PriorityText string
	StatusText   string
	Overdue      bool
	CanApprove   bool
	CanFinal     bool
}

// TaskListView 任务列表视图模型
type TaskListView struct {
	View   string
	Title  string
	Query  TaskQuery
	Cards  []TaskCard
	Page   int
	Pages  []int
	Total  int
	Detail *TaskCard
}

// PickerView 人员选择器
type PickerView struct {
	Role      string
	Selected  string
	Chosen    []model.User
	Options   []model.User
	Search    string
	IsChecked map[string]bool
}

// TaskFormView 创建任务视图模型
type TaskFormView struct {
	Priorities []Option
	Pickers    []PickerView
	Toolbar    [][]richtext.Command
}

// RewardRequest 奖惩
type RewardRequest struct {
	EmployeeID string  `form:"employeeId" validate:"required"`
	Type       string  `form:"type"       validate:"required,oneof=reward penalty"`
	Amount     float64 `form:"amount"     validate:"required,gt=0"`
	Reason     string  `form:"reason"     validate:"required,max=500"`
}
