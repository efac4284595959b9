package model

import "encoding/json"

// 请求大类（决定审批时调用的远端动作）
const (
	KindAttendance = "attendance"
	KindShift      = "shift"
)

// 请求类型
const (
	RequestAttendance  = "attendance"
	RequestShiftChange = "shift_change"
	RequestLeave       = "leave"
	RequestForgotPunch = "forgot_checkin"
)

// Request 考勤/调班/请假请求
type Request struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName,omitempty"`
	StoreName    string `json:"storeName,omitempty"`
	TargetDate   string `json:"targetDate"`
	TargetTime   string `json:"targetTime,omitempty"`
	CurrentShift string `json:"currentShift,omitempty"`
	RequestShift string `json:"requestedShift,omitempty"`
	Reason       string `json:"reason"`
	ApproverID   string `json:"approverId,omitempty"`
	ApproverName string `json:"approverName,omitempty"`
	ApproverNote string `json:"approverNote,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// UnmarshalJSON 解码时统一状态词汇
func (r *Request) UnmarshalJSON(b []byte) error {
	type alias Request
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	a.Status = NormalizeStatus(a.Status)
	*r = Request(a)
	return nil
}

// RequestTypeText 请求类型显示文本
func RequestTypeText(t string) string {
	switch t {
	case RequestAttendance:
		return "Bổ sung chấm công"
	case RequestForgotPunch:
		return "Quên chấm công"
	case RequestShiftChange:
		return "Đổi ca"
	case RequestLeave:
		return "Nghỉ phép"
	}
	return t
}
