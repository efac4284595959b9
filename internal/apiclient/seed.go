package apiclient

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tocotoco-hr/portal/internal/calendar"
	"tocotoco-hr/portal/internal/model"
)

// DemoPassword 演示账号的统一密码
const DemoPassword = "123456"

// SeedUsers 内置演示员工；远端用户列表不可用时作为兜底
func SeedUsers() []model.User {
	return []model.User{
		{EmployeeID: "E001", FullName: "Nguyễn Văn Admin", Position: model.RoleAdmin, StoreID: "ST001", StoreName: "Tocotoco Nguyễn Huệ", Email: "admin@company.com", Phone: "0901234567", JoinDate: "2020-01-01", Region: "Miền Nam"},
		{EmployeeID: "E002", FullName: "Trần Thị Quản Lý", Position: model.RoleManager, StoreID: "ST001", StoreName: "ST001,ST002", Email: "quanly@company.com", Phone: "0902345678", JoinDate: "2020-02-01", Region: "Miền Nam"},
		{EmployeeID: "E003", FullName: "Lê Văn Khu Vực", Position: model.RoleArea, StoreID: "ST002", StoreName: "Tocotoco Lê Lợi", Email: "khuvuc@company.com", Phone: "0903456789", JoinDate: "2020-03-01", Region: "Miền Nam"},
		{EmployeeID: "E004", FullName: "Phạm Thị Hoa", Position: model.RoleEmployee, StoreID: "ST001", StoreName: "Tocotoco Nguyễn Huệ", Email: "hoa@company.com", Phone: "0904567890", JoinDate: "2023-04-01", Region: "Miền Nam"},
		{EmployeeID: "E005", FullName: "Hoàng Văn Nam", Position: model.RoleEmployee, StoreID: "ST002", StoreName: "Tocotoco Lê Lợi", Email: "nam@company.com", Phone: "0905678901", JoinDate: "2023-05-01", Region: "Miền Nam"},
		{EmployeeID: "E006", FullName: "Đỗ Thị Lan", Position: model.RoleEmployee, StoreID: "ST003", StoreName: "Tocotoco Hoàn Kiếm", Email: "lan@company.com", Phone: "0906789012", JoinDate: "2024-01-15", Region: "Miền Bắc"},
	}
}

// SeedStores 内置演示门店；ST004 没有坐标
func SeedStores() []model.Store {
	return []model.Store{
		{StoreID: "ST001", StoreName: "Tocotoco Nguyễn Huệ", Region: "Miền Nam", Address: "12 Nguyễn Huệ, Quận 1", Latitude: model.NewFloat(10.7769), Longitude: model.NewFloat(106.7009)},
		{StoreID: "ST002", StoreName: "Tocotoco Lê Lợi", Region: "Miền Nam", Address: "45 Lê Lợi, Quận 1", Latitude: model.NewFloat(10.7725), Longitude: model.NewFloat(106.6980)},
		{StoreID: "ST003", StoreName: "Tocotoco Hoàn Kiếm", Region: "Miền Bắc", Address: "8 Hàng Bài, Hoàn Kiếm", Latitude: model.NewFloat(21.0285), Longitude: model.NewFloat(105.8542)},
		{StoreID: "ST004", StoreName: "Tocotoco Thủ Đức", Region: "Miền Nam", Address: "Võ Văn Ngân, Thủ Đức"},
	}
}

func hashPassword(pw string) []byte {
	// MinCost 仅用于演示数据
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}

// seed 以 now 为基准生成前两周到下一周的排班与打卡
func (d *Demo) seed(now time.Time) {
	hash := hashPassword(DemoPassword)
	for _, u := range SeedUsers() {
		d.users = append(d.users, &demoUser{User: u, PasswordHash: hash})
	}
	d.stores = SeedStores()

	today := calendar.StartOfDay(now)
	monday := calendar.WeekStart(today.ISOWeek())
	start := monday.AddDate(0, 0, -14)
	end := monday.AddDate(0, 0, 14)

	storeName := map[string]string{}
	for _, s := range d.stores {
		storeName[s.StoreID] = s.StoreName
	}

	for _, u := range d.users {
		if u.Position != model.RoleEmployee {
			continue
		}
		for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
			if day.Weekday() == time.Sunday {
				continue
			}
			shift := model.ShiftAssignment{
				EmployeeID:   u.EmployeeID,
				EmployeeName: u.FullName,
				Date:         calendar.DateKey(day),
				StoreID:      u.StoreID,
				StoreName:    storeName[u.StoreID],
				StartTime:    "08:00",
				EndTime:      "17:00",
				ShiftName:    "Ca 8 Tiếng 8-17",
			}
			if day.Weekday() == time.Saturday {
				shift.StartTime, shift.EndTime, shift.ShiftName = "13:00", "22:00", "Ca 8 Tiếng 13-22"
			}
			d.shifts = append(d.shifts, shift)

			if !day.Before(today) || day.Day() == 3 {
				// 今天及以后不生成打卡；每月 3 号模拟缺勤
				continue
			}
			in := "07:58"
			if day.Weekday() == time.Wednesday {
				in = "08:12"
			}
			if shift.StartTime == "13:00" {
				in = "12:55"
			}
			out := "17:03"
			if shift.EndTime == "22:00" {
				out = "22:01"
			}
			d.punches = append(d.punches,
				model.AttendanceRecord{ID: d.nextID("ATT"), EmployeeID: u.EmployeeID, EmployeeName: u.FullName, Type: model.PunchCheckIn, Timestamp: shift.Date + "T" + in + ":00", StoreName: shift.StoreName},
				model.AttendanceRecord{ID: d.nextID("ATT"), EmployeeID: u.EmployeeID, EmployeeName: u.FullName, Type: model.PunchCheckOut, Timestamp: shift.Date + "T" + out + ":00", StoreName: shift.StoreName},
			)
		}
	}

	yesterday := calendar.DateKey(today.AddDate(0, 0, -1))
	d.requests = []*demoRequest{
		{Kind: model.KindAttendance, Request: model.Request{ID: d.nextID("REQ"), Type: model.RequestForgotPunch, Status: model.StatusPending, EmployeeID: "E004", EmployeeName: "Phạm Thị Hoa", StoreName: "Tocotoco Nguyễn Huệ", TargetDate: yesterday, TargetTime: "08:00", Reason: "Quên chấm công vào ca", CreatedAt: now.Format(time.RFC3339)}},
		{Kind: model.KindAttendance, Request: model.Request{ID: d.nextID("REQ"), Type: model.RequestLeave, Status: model.StatusApproved, EmployeeID: "E005", EmployeeName: "Hoàng Văn Nam", StoreName: "Tocotoco Lê Lợi", TargetDate: yesterday, Reason: "Nghỉ ốm", ApproverID: "E002", ApproverName: "Trần Thị Quản Lý", CreatedAt: now.AddDate(0, 0, -2).Format(time.RFC3339)}},
		{Kind: model.KindShift, Request: model.Request{ID: d.nextID("REQ"), Type: model.RequestShiftChange, Status: model.StatusPending, EmployeeID: "E005", EmployeeName: "Hoàng Văn Nam", StoreName: "Tocotoco Lê Lợi", TargetDate: calendar.DateKey(today.AddDate(0, 0, 2)), CurrentShift: "08:00-17:00", RequestShift: "13:00-22:00", Reason: "Có lịch học buổi sáng", CreatedAt: now.Format(time.RFC3339)}},
	}

	d.registrations = []*model.Registration{
		{EmployeeID: "E101", FullName: "Vũ Minh Tuấn", Email: "tuan@gmail.com", Phone: "0911000001", Position: model.RoleEmployee, StoreID: "ST001", StoreName: "Tocotoco Nguyễn Huệ", Status: model.RawWait, CreatedAt: now.Format(time.RFC3339)},
		{EmployeeID: "E102", FullName: "Ngô Thị Mai", Email: "mai@gmail.com", Phone: "0911000002", Position: model.RoleEmployee, StoreID: "ST002", StoreName: "Tocotoco Lê Lợi", Status: model.RawWait, CreatedAt: now.AddDate(0, 0, -1).Format(time.RFC3339)},
		{EmployeeID: "E103", FullName: "Bùi Quang Huy", Email: "huy@gmail.com", Phone: "0911000003", Position: model.RoleEmployee, StoreID: "ST003", StoreName: "Tocotoco Hoàn Kiếm", Status: model.RawWait, CreatedAt: now.AddDate(0, 0, -5).Format(time.RFC3339)},
		{EmployeeID: "E104", FullName: "Trịnh Văn Long", Email: "long@gmail.com", Phone: "0911000004", Position: model.RoleEmployee, StoreID: "ST001", StoreName: "Tocotoco Nguyễn Huệ", Status: model.RawApproved, CreatedAt: now.AddDate(0, 0, -20).Format(time.RFC3339)},
		{EmployeeID: "E105", FullName: "Lý Thu Trang", Email: "trang@gmail.com", Phone: "0911000005", Position: model.RoleEmployee, StoreID: "ST002", StoreName: "Tocotoco Lê Lợi", Status: model.RawRejected, CreatedAt: now.AddDate(0, 0, -40).Format(time.RFC3339)},
	}

	d.tasks = []*model.Task{
		{ID: d.nextID("TASK"), Title: "Kiểm kê nguyên liệu cuối tuần", Type: "store", Description: "<p>Kiểm kê <b>trân châu</b> và sữa tươi.</p>", Priority: model.PriorityHigh, Status: model.TaskPending, EmployeeID: "E002", EmployeeName: "Trần Thị Quản Lý", Participants: []string{"E004"}, Supporters: []string{"E005"}, Assigners: []string{"E002"}, Deadline: calendar.DateKey(today.AddDate(0, 0, 3)), CreatedAt: now.Format(time.RFC3339)},
		{ID: d.nextID("TASK"), Title: "Đào tạo nhân viên mới", Type: "personnel", Description: "<p>Hướng dẫn quy trình pha chế.</p>", Priority: model.PriorityMedium, Status: model.TaskInProgress, EmployeeID: "E003", EmployeeName: "Lê Văn Khu Vực", Participants: []string{"E005", "E006"}, Assigners: []string{"E003"}, Deadline: calendar.DateKey(today.AddDate(0, 0, 7)), CreatedAt: now.AddDate(0, 0, -1).Format(time.RFC3339),
			Comments: []model.Comment{{ID: "C001", AuthorID: "E005", AuthorName: "Hoàng Văn Nam", Content: "Em sẽ chuẩn bị tài liệu.", CreatedAt: now.Format(time.RFC3339)}}},
	}

	d.rewards = []model.Reward{
		{ID: d.nextID("RW"), EmployeeID: "E004", EmployeeName: "Phạm Thị Hoa", Type: "reward", Amount: 500000, Reason: "Nhân viên xuất sắc tháng", CreatedAt: now.AddDate(0, 0, -10).Format(time.RFC3339)},
	}

	d.history = []model.HistoryEntry{
		{ID: d.nextID("H"), TargetEmployeeID: "E003", ActionType: model.ActionPermissionChange, FieldName: "position", OldValue: model.RoleEmployee, NewValue: model.RoleArea, Reason: "Thăng chức", ChangedBy: "E001", Timestamp: now.AddDate(0, -2, 0).Format(time.RFC3339)},
		{ID: d.nextID("H"), TargetEmployeeID: "E004", ActionType: model.ActionUserDataChange, FieldName: "phone", OldValue: "0900000000", NewValue: "0904567890", Reason: "Cập nhật số mới", ChangedBy: "E001", Timestamp: now.AddDate(0, -1, 0).Format(time.RFC3339)},
	}
}

func (d *Demo) nextID(prefix string) string {
	d.seq++
	return fmt.Sprintf("%s%03d", prefix, d.seq)
}
