package model

// 排班格子状态（仅由上下班时间是否存在推导）
const (
	ShiftWorking    = "working"
	ShiftIncomplete = "incomplete"
	ShiftOff        = "off"
)

// ShiftAssignment 排班记录（getShiftAssignments / getWeeklyShifts）
type ShiftAssignment struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName,omitempty"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	StoreID      string `json:"storeId,omitempty"`
	StoreName    string `json:"storeName,omitempty"`
	ShiftName    string `json:"shiftName,omitempty"`
	// Status 远端的班次进度（assigned/confirmed/...），与 DerivedStatus 无关
	Status string `json:"status,omitempty"`
}

// DerivedStatus 根据上下班时间推导格子状态
func (a ShiftAssignment) DerivedStatus() string {
	hasStart := a.StartTime != ""
	hasEnd := a.EndTime != ""
	switch {
	case hasStart && hasEnd:
		return ShiftWorking
	case hasStart || hasEnd:
		return ShiftIncomplete
	default:
		return ShiftOff
	}
}

// CurrentShift 当天班次（getCurrentShift）
type CurrentShift struct {
	ShiftAssignment
	CheckedIn  bool `json:"checkedIn"`
	CheckedOut bool `json:"checkedOut"`
}

// ShiftStatusText 班次进度的显示文本
func ShiftStatusText(status string) string {
	switch status {
	case "assigned":
		return "Đã phân công"
	case "confirmed":
		return "Đã xác nhận"
	case "in_progress":
		return "Đang làm"
	case "completed":
		return "Hoàn thành"
	case "absent":
		return "Vắng mặt"
	case ShiftWorking:
		return "Làm việc"
	case ShiftIncomplete:
		return "Chưa đủ giờ"
	case ShiftOff:
		return "Nghỉ"
	}
	return status
}
