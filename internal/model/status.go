package model

import "strings"

// 审批状态（统一词汇）
// 远端注册接口使用 Wait/Approved/Rejected，其余请求使用 pending/approved/rejected，
// 解码时统一映射为下面三个值
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusAll      = "all"
)

// 远端注册状态原始值
const (
	RawWait     = "Wait"
	RawApproved = "Approved"
	RawRejected = "Rejected"
)

// NormalizeStatus 将任意一种状态词汇映射为统一值；无法识别时原样返回小写
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "wait", "waiting", "pending", "":
		return StatusPending
	case "approved", "approve":
		return StatusApproved
	case "rejected", "reject", "cancelled", "canceled":
		return StatusRejected
	}
	return s
}

// RawRegistrationStatus 统一状态对应的远端注册状态
func RawRegistrationStatus(status string) string {
	switch NormalizeStatus(status) {
	case StatusApproved:
		return RawApproved
	case StatusRejected:
		return RawRejected
	default:
		return RawWait
	}
}

// StatusText 审批状态显示文本
func StatusText(status string) string {
	switch NormalizeStatus(status) {
	case StatusPending:
		return "⏳ Chờ duyệt"
	case StatusApproved:
		return "✅ Đã duyệt"
	case StatusRejected:
		return "❌ Đã hủy"
	}
	return status
}

// MatchStatus 状态筛选；filter 为空或 all 时全部匹配，filter 可为任一词汇
func MatchStatus(status, filter string) bool {
	if filter == "" || strings.EqualFold(filter, StatusAll) {
		return true
	}
	return NormalizeStatus(status) == NormalizeStatus(filter)
}
