package model

// 打卡类型
const (
	PunchCheckIn  = "check_in"
	PunchCheckOut = "check_out"
)

// AttendanceRecord 打卡记录（getAttendanceHistory）
type AttendanceRecord struct {
	ID           string `json:"id,omitempty"`
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName,omitempty"`
	Type         string `json:"type"`
	Timestamp    string `json:"timestamp"`
	StoreName    string `json:"storeName,omitempty"`
	Latitude     Float  `json:"latitude"`
	Longitude    Float  `json:"longitude"`
}

// PunchTypeText 打卡类型显示文本
func PunchTypeText(t string) string {
	switch t {
	case PunchCheckIn:
		return "Vào ca"
	case PunchCheckOut:
		return "Tan ca"
	}
	return t
}

// TimesheetRow 考勤表一行（getTimesheet / getAttendanceData）
type TimesheetRow struct {
	Date         string `json:"date"`
	EmployeeID   string `json:"employeeId,omitempty"`
	EmployeeName string `json:"employeeName,omitempty"`
	ShiftName    string `json:"shiftName,omitempty"`
	CheckIn      string `json:"checkIn"`
	CheckOut     string `json:"checkOut"`
	TotalHours   Float  `json:"totalHours"`
	Status       string `json:"status"`
}

// TimesheetSummary 月度汇总
type TimesheetSummary struct {
	TotalHours  float64 `json:"totalHours"`
	WorkDays    int     `json:"workDays"`
	LateCount   int     `json:"lateCount"`
	AbsentCount int     `json:"absentCount"`
}

// Timesheet 月度考勤表
type Timesheet struct {
	EmployeeID string           `json:"employeeId"`
	Month      string           `json:"month"`
	Records    []TimesheetRow   `json:"records"`
	Summary    TimesheetSummary `json:"summary"`
}

// AttendanceStatusText 考勤状态显示文本
func AttendanceStatusText(status string) string {
	switch status {
	case "present":
		return "Có mặt"
	case "late":
		return "Muộn"
	case "absent":
		return "Vắng"
	case "early_leave":
		return "Về sớm"
	case "overtime":
		return "Tăng ca"
	}
	return status
}

// PunchResult processAttendance 返回
type PunchResult struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Type      string  `json:"type"`
	StoreName string  `json:"storeName,omitempty"`
	Distance  float64 `json:"distance,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}
