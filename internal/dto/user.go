package dto

import "tocotoco-hr/portal/internal/model"

// ── 权限管理 / 个人信息 DTO ──

// PermissionQuery 用户列表筛选
type PermissionQuery struct {
	Search string `form:"search"`
	Role   string `form:"role"`
	Page   int    `form:"page"`
}

// RoleCount 角色统计
type RoleCount struct {
	Role  string
	Name  string
	Count int
}

// UserCard 用户卡片
type UserCard struct {
	model.User
	RoleName string
}

// PermissionListView 权限管理视图模型
type PermissionListView struct {
	Query  PermissionQuery
	Counts []RoleCount
	Roles  []Option
	Cards  []UserCard
	Page   int
	Pages  []int
	Total  int
}

// PermissionEditForm 权限编辑表单（模态框）
type PermissionEditForm struct {
	User         model.User
	Roles        []Option
	Scope        string
	Regions      []Option
	Stores       []Option
	Capabilities []string
	History      []model.HistoryEntry
}

// PermissionSaveRequest 保存权限；Stores 为 QL 的多选门店
type PermissionSaveRequest struct {
	EmployeeID string   `form:"employeeId" validate:"required"`
	FullName   string   `form:"fullName"   validate:"required,max=100"`
	Position   string   `form:"position"   validate:"required,oneof=AD QL AM NV"`
	Store      string   `form:"store"`
	Stores     []string `form:"stores"`
	Region     string   `form:"region"`
	Phone      string   `form:"phone"      validate:"omitempty,max=20"`
	Email      string   `form:"email"      validate:"omitempty,email"`
	Reason     string   `form:"reason"`
}

// FieldChange 单字段变更
type FieldChange struct {
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// PermissionSaveResult 保存结果：更新后的卡片与字段变化
type PermissionSaveResult struct {
	Card    UserCard
	Changes map[string]FieldChange
}

// PersonalView 个人信息视图模型
type PersonalView struct {
	User     model.User
	RoleName string
	Stats    *model.PersonalStats
	History  []model.HistoryEntry
	Rewards  []model.Reward
}

// PersonalUpdateRequest 修改邮箱/电话，需要密码确认
type PersonalUpdateRequest struct {
	Email    string `form:"email"    validate:"omitempty,email"`
	Phone    string `form:"phone"    validate:"omitempty,max=20"`
	Password string `form:"password" validate:"required"`
}

// ChangeRequest 锁定字段的变更申请（生成 personal_info_change 任务）
type ChangeRequest struct {
	Field    string `form:"field"    validate:"required,oneof=fullName position storeName joinDate employeeId"`
	NewValue string `form:"newValue" validate:"required,max=200"`
	Reason   string `form:"reason"   validate:"required,max=500"`
}

// DashboardView 概览视图模型
type DashboardView struct {
	User     model.User
	RoleName string
	Stats    *model.DashboardStats
	Personal *model.PersonalStats
	Cards    []StatCard
	Nav      []NavItem
}

// StatCard 统计卡片
type StatCard struct {
	Label string
	Value string
	Icon  string
}

// NavItem 快捷入口
type NavItem struct {
	View  string
	Title string
	Icon  string
}
