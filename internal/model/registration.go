package model

import (
	"encoding/json"
	"time"
)

// Registration 待审批的员工注册
type Registration struct {
	EmployeeID string `json:"employeeId"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Position   string `json:"position"`
	StoreID    string `json:"storeId,omitempty"`
	StoreName  string `json:"storeName"`
	JoinDate   string `json:"joinDate,omitempty"`
	// Status 统一状态值；RawStatus 保留远端原值
	Status    string `json:"status"`
	RawStatus string `json:"-"`
	CreatedAt string `json:"createdAt"`
}

// UnmarshalJSON 解码时把 Wait/Approved/Rejected 映射为统一状态
func (r *Registration) UnmarshalJSON(b []byte) error {
	type alias Registration
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	a.RawStatus = a.Status
	a.Status = NormalizeStatus(a.Status)
	*r = Registration(a)
	return nil
}

// CreatedTime 解析 createdAt；支持 RFC3339 与 2006-01-02 两种格式
func (r Registration) CreatedTime() (time.Time, bool) {
	return ParseTime(r.CreatedAt)
}

// ParseTime 解析远端时间字符串
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
