package model

// DashboardStats 概览统计（getDashboardStats）
type DashboardStats struct {
	TotalEmployees  int          `json:"totalEmployees"`
	TodaySchedules  int          `json:"todaySchedules"`
	PendingRequests int          `json:"pendingRequests"`
	RecentMessages  int          `json:"recentMessages"`
	WeeklyProcessed int          `json:"weeklyProcessed"`
	CurrentDay      string       `json:"currentDay,omitempty"`
	Stores          []StoreStats `json:"stores,omitempty"`
}

// StoreStats 门店维度统计
type StoreStats struct {
	StoreID       string `json:"storeId"`
	StoreName     string `json:"storeName"`
	Employees     int    `json:"employees"`
	TodayPresent  int    `json:"todayPresent"`
	PendingReview int    `json:"pendingReview"`
}

// PersonalStats 个人统计（getPersonalStats）
type PersonalStats struct {
	WorkDaysThisMonth   int     `json:"workDaysThisMonth"`
	TotalHoursThisMonth float64 `json:"totalHoursThisMonth"`
	AttendanceRate      float64 `json:"attendanceRate"`
	RewardsCount        int     `json:"rewardsCount"`
}
