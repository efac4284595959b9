package model

// 任务优先级
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// 任务状态
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskRejected   = "rejected"
)

// Task 任务
type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Type         string    `json:"type,omitempty"`
	Description  string    `json:"description"`
	Priority     string    `json:"priority"`
	Status       string    `json:"status"`
	EmployeeID   string    `json:"employeeId,omitempty"`
	EmployeeName string    `json:"employeeName,omitempty"`
	Participants []string  `json:"participants"`
	Supporters   []string  `json:"supporters"`
	Assigners    []string  `json:"assigners"`
	Deadline     string    `json:"deadline"`
	CreatedAt    string    `json:"createdAt,omitempty"`
	Comments     []Comment `json:"comments,omitempty"`
}

// Comment 任务评论，Replies 为嵌套回复
type Comment struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  string    `json:"createdAt"`
	Replies    []Comment `json:"replies,omitempty"`
}

// Involves 员工是否参与该任务（任一角色）
func (t Task) Involves(employeeID string) bool {
	for _, list := range [][]string{t.Participants, t.Supporters, t.Assigners} {
		for _, id := range list {
			if id == employeeID {
				return true
			}
		}
	}
	return t.EmployeeID == employeeID
}

// PriorityText 优先级显示文本
func PriorityText(p string) string {
	switch p {
	case PriorityLow:
		return "Thấp"
	case PriorityMedium:
		return "Trung bình"
	case PriorityHigh:
		return "Cao"
	case PriorityUrgent:
		return "Khẩn cấp"
	}
	return p
}

// TaskStatusText 任务状态显示文本
func TaskStatusText(s string) string {
	switch s {
	case TaskPending:
		return "Chờ xử lý"
	case TaskInProgress:
		return "Đang thực hiện"
	case TaskCompleted:
		return "Hoàn thành"
	case TaskRejected:
		return "Từ chối"
	}
	return s
}

// Reward 奖惩记录（getRewards / addReward）
type Reward struct {
	ID           string  `json:"id,omitempty"`
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName,omitempty"`
	Type         string  `json:"type"` // reward | penalty
	Amount       float64 `json:"amount"`
	Reason       string  `json:"reason"`
	CreatedAt    string  `json:"createdAt,omitempty"`
}
