package model

import (
	"encoding/json"
	"fmt"
)

// 历史记录动作类型
const (
	ActionPermissionChange = "permission_change"
	ActionUserDataChange   = "user_data_change"
	ActionApproval         = "approval_action"
)

// HistoryEntry 用户变更历史（getUserHistory）
type HistoryEntry struct {
	ID               string `json:"id,omitempty"`
	TargetEmployeeID string `json:"target_employee_id"`
	ActionType       string `json:"action_type"`
	FieldName        string `json:"field_name,omitempty"`
	OldValue         string `json:"old_value,omitempty"`
	NewValue         string `json:"new_value,omitempty"`
	Reason           string `json:"reason,omitempty"`
	ChangedBy        string `json:"changed_by,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
}

// UnmarshalJSON 远端同时存在 target_employee_id / employeeId / employee_id 三种键
func (h *HistoryEntry) UnmarshalJSON(b []byte) error {
	type alias HistoryEntry
	aux := struct {
		alias
		EmployeeID  string `json:"employeeId"`
		EmployeeID2 string `json:"employee_id"`
		ActionType2 string `json:"actionType"`
		CreatedAt   string `json:"created_at"`
	}{}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*h = HistoryEntry(aux.alias)
	if h.TargetEmployeeID == "" {
		h.TargetEmployeeID = aux.EmployeeID
	}
	if h.TargetEmployeeID == "" {
		h.TargetEmployeeID = aux.EmployeeID2
	}
	if h.ActionType == "" {
		h.ActionType = aux.ActionType2
	}
	if h.Timestamp == "" {
		h.Timestamp = aux.CreatedAt
	}
	return nil
}

// ActionText 历史记录的可读描述
func (h HistoryEntry) ActionText() string {
	switch h.ActionType {
	case ActionPermissionChange:
		return fmt.Sprintf("Thay đổi quyền: %s → %s", orDash(h.OldValue), orDash(h.NewValue))
	case ActionUserDataChange:
		return fmt.Sprintf("Cập nhật %s: %s → %s", FieldLabel(h.FieldName), orDash(h.OldValue), orDash(h.NewValue))
	case ActionApproval:
		return fmt.Sprintf("Phê duyệt: %s", orDash(h.NewValue))
	}
	return h.ActionType
}

// FieldLabel 用户字段显示名
func FieldLabel(field string) string {
	switch field {
	case "employeeId":
		return "Mã nhân viên"
	case "fullName":
		return "Họ tên"
	case "storeName":
		return "Cửa hàng"
	case "position":
		return "Chức vụ"
	case "phone":
		return "Số điện thoại"
	case "email":
		return "Email"
	case "joinDate":
		return "Ngày vào làm"
	}
	return field
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
