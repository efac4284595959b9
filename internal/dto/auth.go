package dto

import "tocotoco-hr/portal/internal/model"

// ── 认证模块 DTO ──

// LoginRequest 登录表单
type LoginRequest struct {
	EmployeeID string `form:"employeeId" json:"employeeId" validate:"required,max=32"`
	Password   string `form:"password"   json:"password"   validate:"required"`
	RememberMe bool   `form:"remember"   json:"remember"`
}

// LoginResult 登录成功后交给 Handler 写 Cookie
type LoginResult struct {
	Token     string
	MaxAge    int // 秒
	User      model.User
	SessionID string
}

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page int `form:"page" validate:"omitempty,min=1"`
}

// GetPage 获取页码（含默认值）
func (p PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}
