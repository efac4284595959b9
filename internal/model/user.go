package model

import "strings"

// 角色代码
const (
	RoleAdmin    = "AD" // Quản trị viên
	RoleManager  = "QL" // Quản lý cửa hàng
	RoleArea     = "AM" // Quản lý khu vực
	RoleEmployee = "NV" // Nhân viên
)

// Roles 全部角色，按权限从高到低
var Roles = []string{RoleAdmin, RoleManager, RoleArea, RoleEmployee}

// User 员工资料（远端 getUser / getUsers 返回）
type User struct {
	EmployeeID string `json:"employeeId"`
	FullName   string `json:"fullName"`
	Position   string `json:"position"`
	StoreID    string `json:"storeId,omitempty"`
	StoreName  string `json:"storeName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	JoinDate   string `json:"joinDate"`
	Region     string `json:"region,omitempty"`
	Department string `json:"department,omitempty"`
}

// HasRole 判断用户角色（忽略大小写与空白）
func (u User) HasRole(roles ...string) bool {
	p := strings.ToUpper(strings.TrimSpace(u.Position))
	for _, r := range roles {
		if p == r {
			return true
		}
	}
	return false
}

// DisplayName 优先显示姓名，缺失时显示工号
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.EmployeeID
}

// ManagedStores 解析 QL 的 storeName 字段（逗号分隔的门店 ID 或名称）
func (u User) ManagedStores() []string {
	return SplitCSV(u.StoreName)
}

// SplitCSV 按逗号拆分并去除空白与空项
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
