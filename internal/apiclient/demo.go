package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tocotoco-hr/portal/internal/calendar"
	"tocotoco-hr/portal/internal/model"
	pkgerrors "tocotoco-hr/portal/pkg/errors"
	"tocotoco-hr/portal/pkg/geo"
)

// Demo 进程内的远端接口实现（feature.demo_mode）
// 列表接口故意返回不同形状（数组、数字键对象、results、data），与真实远端一致
type Demo struct {
	mu            sync.Mutex
	users         []*demoUser
	stores        []model.Store
	shifts        []model.ShiftAssignment
	punches       []model.AttendanceRecord
	requests      []*demoRequest
	registrations []*model.Registration
	tasks         []*model.Task
	rewards       []model.Reward
	history       []model.HistoryEntry
	tokens        map[string]string
	radius        float64
	now           func() time.Time
	seq           int
	logger        *zap.Logger
}

type demoUser struct {
	model.User
	PasswordHash []byte `json:"-"`
}

type demoRequest struct {
	model.Request
	Kind string `json:"-"`
}

// NewDemo 创建演示后端；radiusMeters 为打卡允许半径
func NewDemo(radiusMeters float64, logger *zap.Logger) *Demo {
	return newDemoAt(radiusMeters, time.Now, logger)
}

func newDemoAt(radiusMeters float64, now func() time.Time, logger *zap.Logger) *Demo {
	d := &Demo{
		tokens: make(map[string]string),
		radius: radiusMeters,
		now:    now,
		logger: logger,
	}
	d.seed(now())
	return d
}

// ── 响应辅助 ──

func demoJSON(v interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func demoDone(msg string) (json.RawMessage, error) {
	return demoJSON(map[string]interface{}{"success": true, "message": msg})
}

func demoFail(action string, status int, msg string) error {
	sentinel := pkgerrors.ErrUpstreamRejected
	if status == http.StatusUnauthorized {
		sentinel = pkgerrors.ErrUnauthorized
	}
	return &pkgerrors.UpstreamError{Action: action, Status: status, Message: msg, Err: sentinel}
}

// numericObject 生成 {"0": ..., "1": ..., "timestamp": ..., "status": ...} 形状
func numericObject[T any](items []T, ts time.Time) map[string]interface{} {
	obj := make(map[string]interface{}, len(items)+2)
	for i, it := range items {
		obj[strconv.Itoa(i)] = it
	}
	obj["timestamp"] = ts.Unix()
	obj["status"] = "success"
	return obj
}

func decodeInto(body interface{}, dst interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func (d *Demo) caller(action, token string) (*demoUser, error) {
	id, ok := d.tokens[token]
	if !ok || token == "" {
		return nil, demoFail(action, http.StatusUnauthorized, "Token không hợp lệ hoặc đã hết hạn!")
	}
	u := d.findUser(id)
	if u == nil {
		return nil, demoFail(action, http.StatusUnauthorized, "Người dùng không tồn tại!")
	}
	return u, nil
}

func (d *Demo) findUser(id string) *demoUser {
	for _, u := range d.users {
		if u.EmployeeID == id {
			return u
		}
	}
	return nil
}

func (d *Demo) storeByKey(key string) *model.Store {
	for i := range d.stores {
		if d.stores[i].StoreID == key || d.stores[i].StoreName == key {
			return &d.stores[i]
		}
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 读接口
// ════════════════════════════════════════════════════════════

func (d *Demo) Fetch(ctx context.Context, action, token string, q url.Values) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, &pkgerrors.UpstreamError{Action: action, Err: pkgerrors.ErrUpstreamUnavailable}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.caller(action, token); err != nil {
		return nil, err
	}
	now := d.now()

	switch action {
	case ActionGetUser:
		u := d.findUser(q.Get("employeeId"))
		if u == nil {
			return nil, demoFail(action, http.StatusNotFound, "Người dùng không tồn tại!")
		}
		return demoJSON(u.User)

	case ActionGetUsers:
		users := make([]model.User, 0, len(d.users))
		for _, u := range d.users {
			users = append(users, u.User)
		}
		return demoJSON(numericObject(users, now))

	case ActionGetStores:
		return demoJSON(d.stores)

	case ActionGetUserHistory:
		return demoJSON(map[string]interface{}{"data": d.history})

	case ActionGetPendingRegistrations:
		return demoJSON(numericObject(d.filterRegistrations(q.Get("store"), q.Get("status")), now))

	case ActionGetShiftAssignments:
		dates, err := calendar.WeekDates(q.Get("week"))
		if err != nil {
			return nil, demoFail(action, http.StatusBadRequest, "Tuần không hợp lệ")
		}
		return demoJSON(map[string]interface{}{"results": d.shiftsIn(q.Get("store"), "", dates)})

	case ActionGetWeeklyShifts:
		week := q.Get("week")
		if week == "" {
			week = calendar.CurrentWeek(now)
		}
		dates, err := calendar.WeekDates(week)
		if err != nil {
			return nil, demoFail(action, http.StatusBadRequest, "Tuần không hợp lệ")
		}
		shifts := d.shiftsIn("", q.Get("employeeId"), dates)
		today := calendar.DateKey(now)
		for i := range shifts {
			switch {
			case shifts[i].Date < today:
				shifts[i].Status = "completed"
			case shifts[i].Date == today:
				shifts[i].Status = "in_progress"
			default:
				shifts[i].Status = "assigned"
			}
		}
		return demoJSON(map[string]interface{}{"shifts": shifts})

	case ActionGetCurrentShift:
		return demoJSON(map[string]interface{}{"currentShift": d.currentShift(q.Get("employeeId"), now)})

	case ActionGetAttendanceData:
		rows := d.timesheetRows(q.Get("employeeId"), q.Get("month"), now)
		return demoJSON(map[string]interface{}{"records": rows, "summary": summarize(rows)})

	case ActionGetTimesheet:
		rows := d.timesheetRows(q.Get("employeeId"), q.Get("month"), now)
		return demoJSON(map[string]interface{}{"records": rows})

	case ActionGetAttendanceHistory:
		date := q.Get("date")
		if date == "" {
			date = calendar.DateKey(now)
		}
		out := []model.AttendanceRecord{}
		for _, p := range d.punches {
			if p.EmployeeID == q.Get("employeeId") && strings.HasPrefix(p.Timestamp, date) {
				out = append(out, p)
			}
		}
		return demoJSON(out)

	case ActionGetAttendanceRequests:
		return demoJSON(d.filterRequests(model.KindAttendance, q.Get("employeeId"), q.Get("status")))

	case ActionGetShiftRequests:
		return demoJSON(d.filterRequests(model.KindShift, q.Get("employeeId"), q.Get("status")))

	case ActionGetTasks:
		out := []model.Task{}
		emp := q.Get("employeeId")
		for _, t := range d.tasks {
			if emp == "" || t.Involves(emp) {
				out = append(out, *t)
			}
		}
		return demoJSON(out)

	case ActionGetApprovalTasks:
		out := []model.Task{}
		for _, t := range d.tasks {
			if t.Status == model.TaskPending || t.Status == model.TaskInProgress {
				out = append(out, *t)
			}
		}
		return demoJSON(map[string]interface{}{"data": numericObject(out, now)})

	case ActionGetRewards:
		return demoJSON(d.rewards)

	case ActionGetDashboardStats:
		return demoJSON(d.dashboard(now))

	case ActionGetPersonalStats:
		return demoJSON(map[string]interface{}{"stats": d.personal(q.Get("employeeId"), now)})
	}

	return nil, demoFail(action, http.StatusBadRequest, "Hành động không hợp lệ")
}

func (d *Demo) filterRegistrations(store, status string) []model.Registration {
	if status == "" {
		status = model.StatusPending
	}
	out := []model.Registration{}
	for _, r := range d.registrations {
		if store != "" && r.StoreID != store && r.StoreName != store {
			continue
		}
		if !model.MatchStatus(r.Status, status) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func (d *Demo) shiftsIn(store, employeeID string, dates []time.Time) []model.ShiftAssignment {
	in := make(map[string]bool, len(dates))
	for _, t := range dates {
		in[calendar.DateKey(t)] = true
	}
	out := []model.ShiftAssignment{}
	for _, s := range d.shifts {
		if !in[s.Date] {
			continue
		}
		if store != "" && s.StoreID != store && s.StoreName != store {
			continue
		}
		if employeeID != "" && s.EmployeeID != employeeID {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (d *Demo) currentShift(employeeID string, now time.Time) *model.CurrentShift {
	today := calendar.DateKey(now)
	for _, s := range d.shifts {
		if s.EmployeeID != employeeID || s.Date != today {
			continue
		}
		cs := &model.CurrentShift{ShiftAssignment: s}
		for _, p := range d.punches {
			if p.EmployeeID == employeeID && strings.HasPrefix(p.Timestamp, today) {
				switch p.Type {
				case model.PunchCheckIn:
					cs.CheckedIn = true
				case model.PunchCheckOut:
					cs.CheckedOut = true
				}
			}
		}
		return cs
	}
	return nil
}

// timesheetRows 由排班与打卡合成月度考勤；employeeID 为空时返回全部员工
func (d *Demo) timesheetRows(employeeID, month string, now time.Time) []model.TimesheetRow {
	if month == "" {
		month = calendar.CurrentMonth(now)
	}
	rows := []model.TimesheetRow{}
	today := calendar.DateKey(now)
	for _, s := range d.shifts {
		if !strings.HasPrefix(s.Date, month) || s.Date > today {
			continue
		}
		if employeeID != "" && s.EmployeeID != employeeID {
			continue
		}
		row := model.TimesheetRow{Date: s.Date, EmployeeID: s.EmployeeID, EmployeeName: s.EmployeeName, ShiftName: s.ShiftName}
		for _, p := range d.punches {
			if p.EmployeeID != s.EmployeeID || !strings.HasPrefix(p.Timestamp, s.Date) {
				continue
			}
			clock := p.Timestamp[len(s.Date)+1:]
			if len(clock) > 5 {
				clock = clock[:5]
			}
			switch p.Type {
			case model.PunchCheckIn:
				if row.CheckIn == "" {
					row.CheckIn = clock
				}
			case model.PunchCheckOut:
				row.CheckOut = clock
			}
		}
		switch {
		case row.CheckIn == "" && s.Date < today:
			row.Status = "absent"
		case row.CheckIn == "":
			row.Status = ""
		case row.CheckIn > addMinutes(s.StartTime, 5):
			row.Status = "late"
		default:
			row.Status = "present"
		}
		if h, ok := hoursBetween(row.CheckIn, row.CheckOut); ok {
			row.TotalHours = model.NewFloat(h)
		}
		rows = append(rows, row)
	}
	return rows
}

func addMinutes(clock string, n int) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	return t.Add(time.Duration(n) * time.Minute).Format("15:04")
}

func hoursBetween(in, out string) (float64, bool) {
	a, err1 := time.Parse("15:04", in)
	b, err2 := time.Parse("15:04", out)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	if !b.After(a) {
		b = b.Add(24 * time.Hour)
	}
	return math.Round(b.Sub(a).Hours()*10) / 10, true
}

func summarize(rows []model.TimesheetRow) model.TimesheetSummary {
	var s model.TimesheetSummary
	for _, r := range rows {
		if r.TotalHours.Valid {
			s.TotalHours += r.TotalHours.Value
		}
		switch r.Status {
		case "present", "late":
			s.WorkDays++
		case "absent":
			s.AbsentCount++
		}
		if r.Status == "late" {
			s.LateCount++
		}
	}
	s.TotalHours = math.Round(s.TotalHours*10) / 10
	return s
}

func (d *Demo) filterRequests(kind, employeeID, status string) []model.Request {
	out := []model.Request{}
	for _, r := range d.requests {
		if r.Kind != kind {
			continue
		}
		if employeeID != "" && r.EmployeeID != employeeID {
			continue
		}
		if !model.MatchStatus(r.Status, status) {
			continue
		}
		out = append(out, r.Request)
	}
	return out
}

func (d *Demo) dashboard(now time.Time) model.DashboardStats {
	today := calendar.DateKey(now)
	stats := model.DashboardStats{
		TotalEmployees: len(d.users),
		CurrentDay:     strconv.Itoa(int(now.Weekday())),
	}
	for _, s := range d.shifts {
		if s.Date == today {
			stats.TodaySchedules++
		}
	}
	for _, r := range d.requests {
		if r.Status == model.StatusPending {
			stats.PendingRequests++
		} else {
			stats.WeeklyProcessed++
		}
	}
	for _, s := range d.stores {
		st := model.StoreStats{StoreID: s.StoreID, StoreName: s.StoreName}
		for _, u := range d.users {
			if u.StoreID == s.StoreID {
				st.Employees++
			}
		}
		for _, p := range d.punches {
			if p.Type == model.PunchCheckIn && p.StoreName == s.StoreName && strings.HasPrefix(p.Timestamp, today) {
				st.TodayPresent++
			}
		}
		for _, r := range d.registrations {
			if r.StoreID == s.StoreID && r.Status == model.RawWait {
				st.PendingReview++
				stats.PendingRequests++
			}
		}
		stats.Stores = append(stats.Stores, st)
	}
	return stats
}

func (d *Demo) personal(employeeID string, now time.Time) model.PersonalStats {
	rows := d.timesheetRows(employeeID, calendar.CurrentMonth(now), now)
	sum := summarize(rows)
	ps := model.PersonalStats{
		WorkDaysThisMonth:   sum.WorkDays,
		TotalHoursThisMonth: sum.TotalHours,
	}
	if scheduled := sum.WorkDays + sum.AbsentCount; scheduled > 0 {
		ps.AttendanceRate = math.Round(float64(sum.WorkDays) / float64(scheduled) * 100)
	}
	for _, r := range d.rewards {
		if r.EmployeeID == employeeID {
			ps.RewardsCount++
		}
	}
	return ps
}

// ════════════════════════════════════════════════════════════
// 写接口
// ════════════════════════════════════════════════════════════

func (d *Demo) Send(ctx context.Context, action, token string, body interface{}) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, &pkgerrors.UpstreamError{Action: action, Err: pkgerrors.ErrUpstreamUnavailable}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if action == ActionLogin {
		return d.login(body)
	}
	caller, err := d.caller(action, token)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("演示后端写操作", zap.String("action", action), zap.String("employee_id", caller.EmployeeID))

	switch action {
	case ActionUpdateUserWithHistory:
		return d.updateUserWithHistory(caller, body)
	case ActionUpdatePersonalInfo:
		return d.updatePersonalInfo(caller, body)
	case ActionApproveRegistration:
		return d.approveRegistration(caller, body)
	case ActionSaveShiftAssignments:
		return d.saveShiftAssignments(body)
	case ActionAssignShift:
		var a model.ShiftAssignment
		if err := decodeInto(body, &a); err != nil || a.EmployeeID == "" || a.Date == "" {
			return nil, demoFail(action, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
		}
		d.upsertShift(a)
		return demoDone("Đã phân ca")
	case ActionProcessAttendance:
		return d.processAttendance(body)
	case ActionCreateAttendanceRequest:
		return d.createRequest(caller, body)
	case ActionApproveAttendanceRequest, ActionRejectAttendanceRequest, ActionApproveShiftRequest, ActionRejectShiftRequest:
		return d.decideRequest(caller, action, body)
	case ActionCreateTask:
		return d.createTask(caller, body)
	case ActionApproveTask, ActionRejectTask, ActionFinalApprove, ActionFinalReject:
		return d.decideTask(action, body)
	case ActionAddComment, ActionReplyToComment:
		return d.comment(caller, action, body)
	case ActionAddReward:
		var r model.Reward
		if err := decodeInto(body, &r); err != nil || r.EmployeeID == "" || r.Amount <= 0 {
			return nil, demoFail(action, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
		}
		if u := d.findUser(r.EmployeeID); u != nil {
			r.EmployeeName = u.FullName
		}
		r.ID = d.nextID("RW")
		r.CreatedAt = d.now().Format(time.RFC3339)
		d.rewards = append(d.rewards, r)
		return demoDone("Đã thêm thưởng/phạt")
	}
	return nil, demoFail(action, http.StatusBadRequest, "Hành động không hợp lệ")
}

func (d *Demo) login(body interface{}) (json.RawMessage, error) {
	var req struct {
		EmployeeID string `json:"employeeId"`
		Password   string `json:"password"`
	}
	if err := decodeInto(body, &req); err != nil || req.EmployeeID == "" || req.Password == "" {
		return nil, demoFail(ActionLogin, http.StatusBadRequest, "Thiếu mã nhân viên hoặc mật khẩu!")
	}
	u := d.findUser(req.EmployeeID)
	if u == nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		return nil, demoFail(ActionLogin, http.StatusUnauthorized, "Mã nhân viên hoặc mật khẩu không đúng!")
	}
	token := "demo-" + uuid.NewString()
	d.tokens[token] = u.EmployeeID
	return demoJSON(map[string]interface{}{
		"success": true,
		"message": "Đăng nhập thành công!",
		"token":   token,
		"userData": map[string]interface{}{
			"employeeId": u.EmployeeID,
			"name":       u.FullName,
			"fullName":   u.FullName,
			"email":      u.Email,
			"position":   u.Position,
			"storeId":    u.StoreID,
			"storeName":  u.StoreName,
			"role_code":  u.Position,
		},
	})
}

type fieldChange struct {
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

func (d *Demo) updateUserWithHistory(caller *demoUser, body interface{}) (json.RawMessage, error) {
	var req struct {
		EmployeeID string                 `json:"employeeId"`
		Changes    map[string]fieldChange `json:"changes"`
		Reason     string                 `json:"reason"`
		ActionBy   string                 `json:"actionBy"`
	}
	if err := decodeInto(body, &req); err != nil {
		return nil, demoFail(ActionUpdateUserWithHistory, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
	}
	if !caller.HasRole(model.RoleAdmin) {
		return nil, demoFail(ActionUpdateUserWithHistory, http.StatusForbidden, "Không có quyền thực hiện!")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, demoFail(ActionUpdateUserWithHistory, http.StatusBadRequest, "Thiếu lý do thay đổi!")
	}
	u := d.findUser(req.EmployeeID)
	if u == nil {
		return nil, demoFail(ActionUpdateUserWithHistory, http.StatusNotFound, "Người dùng không tồn tại!")
	}

	fields := make([]string, 0, len(req.Changes))
	for f := range req.Changes {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		ch := req.Changes[f]
		if !applyField(&u.User, f, ch.NewValue) {
			continue
		}
		kind := model.ActionUserDataChange
		if f == "position" {
			kind = model.ActionPermissionChange
		}
		d.history = append(d.history, model.HistoryEntry{
			ID: d.nextID("H"), TargetEmployeeID: u.EmployeeID, ActionType: kind, FieldName: f,
			OldValue: ch.OldValue, NewValue: ch.NewValue, Reason: req.Reason, ChangedBy: caller.EmployeeID,
			Timestamp: d.now().Format(time.RFC3339),
		})
	}
	return demoJSON(map[string]interface{}{"success": true, "message": "Cập nhật thành công!", "user": u.User})
}

func applyField(u *model.User, field, value string) bool {
	switch field {
	case "employeeId":
		u.EmployeeID = value
	case "fullName":
		u.FullName = value
	case "storeName":
		u.StoreName = value
	case "position":
		u.Position = value
	case "phone":
		u.Phone = value
	case "email":
		u.Email = value
	case "joinDate":
		u.JoinDate = value
	case "region":
		u.Region = value
	default:
		return false
	}
	return true
}

func (d *Demo) updatePersonalInfo(caller *demoUser, body interface{}) (json.RawMessage, error) {
	var req struct {
		EmployeeID string `json:"employeeId"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Password   string `json:"password"`
	}
	if err := decodeInto(body, &req); err != nil || req.EmployeeID != caller.EmployeeID {
		return nil, demoFail(ActionUpdatePersonalInfo, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
	}
	if bcrypt.CompareHashAndPassword(caller.PasswordHash, []byte(req.Password)) != nil {
		return nil, demoFail(ActionUpdatePersonalInfo, http.StatusBadRequest, "Mật khẩu không đúng!")
	}
	updates := []struct{ field, old, value string }{
		{"email", caller.Email, req.Email},
		{"phone", caller.Phone, req.Phone},
	}
	for _, up := range updates {
		field, old, v := up.field, up.old, up.value
		if v == "" || v == old {
			continue
		}
		applyField(&caller.User, field, v)
		d.history = append(d.history, model.HistoryEntry{
			ID: d.nextID("H"), TargetEmployeeID: caller.EmployeeID, ActionType: model.ActionUserDataChange,
			FieldName: field, OldValue: old, NewValue: v, ChangedBy: caller.EmployeeID, Timestamp: d.now().Format(time.RFC3339),
		})
	}
	return demoJSON(map[string]interface{}{"success": true, "message": "Cập nhật thông tin thành công", "user": caller.User})
}

func (d *Demo) approveRegistration(caller *demoUser, body interface{}) (json.RawMessage, error) {
	var req struct {
		EmployeeID string `json:"employeeId"`
		Action     string `json:"action"`
	}
	if err := decodeInto(body, &req); err != nil || req.EmployeeID == "" {
		return nil, demoFail(ActionApproveRegistration, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
	}
	var reg *model.Registration
	for _, r := range d.registrations {
		if r.EmployeeID == req.EmployeeID {
			reg = r
		}
	}
	if reg == nil {
		return nil, demoFail(ActionApproveRegistration, http.StatusNotFound, "Không tìm thấy đăng ký!")
	}
	if reg.Status != model.RawWait {
		return nil, demoFail(ActionApproveRegistration, http.StatusBadRequest, "Đăng ký đã được xử lý!")
	}

	approved := req.Action == "approve"
	if approved {
		reg.Status = model.RawApproved
		d.users = append(d.users, &demoUser{
			User: model.User{
				EmployeeID: reg.EmployeeID, FullName: reg.FullName, Position: reg.Position, StoreID: reg.StoreID,
				StoreName: reg.StoreName, Email: reg.Email, Phone: reg.Phone, JoinDate: calendar.DateKey(d.now()),
			},
			PasswordHash: hashPassword(DemoPassword),
		})
	} else {
		reg.Status = model.RawRejected
	}
	d.history = append(d.history, model.HistoryEntry{
		ID: d.nextID("H"), TargetEmployeeID: reg.EmployeeID, ActionType: model.ActionApproval,
		NewValue: reg.Status, ChangedBy: caller.EmployeeID, Timestamp: d.now().Format(time.RFC3339),
	})
	if approved {
		return demoDone("Đã phê duyệt đăng ký!")
	}
	return demoDone("Đã từ chối đăng ký!")
}

func (d *Demo) saveShiftAssignments(body interface{}) (json.RawMessage, error) {
	var req struct {
		StoreID     string                  `json:"storeId"`
		Week        string                  `json:"week"`
		Assignments []model.ShiftAssignment `json:"assignments"`
	}
	if err := decodeInto(body, &req); err != nil || req.StoreID == "" {
		return nil, demoFail(ActionSaveShiftAssignments, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
	}
	store := d.storeByKey(req.StoreID)
	for _, a := range req.Assignments {
		a.StoreID = req.StoreID
		if store != nil {
			a.StoreName = store.StoreName
		}
		if u := d.findUser(a.EmployeeID); u != nil {
			a.EmployeeName = u.FullName
		}
		d.upsertShift(a)
	}
	return demoJSON(map[string]interface{}{"success": true, "message": "Đã lưu phân ca", "saved": len(req.Assignments)})
}

// upsertShift 按员工+日期覆盖；上下班时间都为空视为休息，删除记录
func (d *Demo) upsertShift(a model.ShiftAssignment) {
	for i, s := range d.shifts {
		if s.EmployeeID == a.EmployeeID && s.Date == a.Date {
			if a.DerivedStatus() == model.ShiftOff {
				d.shifts = append(d.shifts[:i], d.shifts[i+1:]...)
				return
			}
			d.shifts[i] = a
			return
		}
	}
	if a.DerivedStatus() != model.ShiftOff {
		d.shifts = append(d.shifts, a)
	}
}

func (d *Demo) processAttendance(body interface{}) (json.RawMessage, error) {
	var req struct {
		EmployeeID string  `json:"employeeId"`
		Latitude   float64 `json:"latitude"`
		Longitude  float64 `json:"longitude"`
	}
	if err := decodeInto(body, &req); err != nil || req.EmployeeID == "" || !geo.Valid(req.Latitude, req.Longitude) {
		return nil, demoFail(ActionProcessAttendance, http.StatusBadRequest, "Dữ liệu vị trí không hợp lệ!")
	}
	idx, dist := geo.Nearest(geo.Point{Lat: req.Latitude, Lng: req.Longitude}, d.stores)
	if idx < 0 {
		return nil, demoFail(ActionProcessAttendance, http.StatusBadRequest, "Không tìm thấy cửa hàng có tọa độ!")
	}
	store := d.stores[idx]
	if dist > d.radius {
		return nil, demoFail(ActionProcessAttendance, http.StatusBadRequest,
			fmt.Sprintf("Bạn đang cách %s %.0fm, ngoài phạm vi chấm công!", store.StoreName, dist))
	}

	now := d.now()
	today := calendar.DateKey(now)
	// 当天最后一次为上班卡时本次记为下班卡
	typ := model.PunchCheckIn
	if d.lastPunchToday(req.EmployeeID, today) == model.PunchCheckIn {
		typ = model.PunchCheckOut
	}

	rec := model.AttendanceRecord{
		ID: d.nextID("ATT"), EmployeeID: req.EmployeeID, Type: typ,
		Timestamp: now.Format("2006-01-02T15:04:05"), StoreName: store.StoreName,
		Latitude: model.NewFloat(req.Latitude), Longitude: model.NewFloat(req.Longitude),
	}
	if u := d.findUser(req.EmployeeID); u != nil {
		rec.EmployeeName = u.FullName
	}
	d.punches = append(d.punches, rec)

	msg := "Chấm công vào ca thành công!"
	if typ == model.PunchCheckOut {
		msg = "Chấm công tan ca thành công!"
	}
	return demoJSON(model.PunchResult{
		Success: true, Message: msg, Type: typ, StoreName: store.StoreName,
		Distance: math.Round(dist), Timestamp: rec.Timestamp,
	})
}

func (d *Demo) lastPunchToday(employeeID, today string) string {
	last := ""
	for _, p := range d.punches {
		if p.EmployeeID == employeeID && strings.HasPrefix(p.Timestamp, today) {
			last = p.Type
		}
	}
	return last
}

func (d *Demo) createRequest(caller *demoUser, body interface{}) (json.RawMessage, error) {
	var r model.Request
	if err := decodeInto(body, &r); err != nil || r.Type == "" || r.TargetDate == "" || strings.TrimSpace(r.Reason) == "" {
		return nil, demoFail(ActionCreateAttendanceRequest, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
	}
	kind := model.KindAttendance
	if r.Type == model.RequestShiftChange {
		kind = model.KindShift
	}
	r.ID = d.nextID("REQ")
	r.Status = model.StatusPending
	r.EmployeeID = caller.EmployeeID
	r.EmployeeName = caller.FullName
	r.StoreName = caller.StoreName
	r.CreatedAt = d.now().Format(time.RFC3339)
	d.requests = append(d.requests, &demoRequest{Request: r, Kind: kind})
	return demoJSON(map[string]interface{}{"success": true, "message": "Đã gửi yêu cầu", "id": r.ID})
}

func (d *Demo) decideRequest(caller *demoUser, action string, body interface{}) (json.RawMessage, error) {
	var req struct {
		RequestID string `json:"requestId"`
		Note      string `json:"note"`
		Reason    string `json:"reason"`
	}
	if err := decodeInto(body, &req); err != nil || req.RequestID == "" {
		return nil, demoFail(action, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
	}
	kind := model.KindAttendance
	if action == ActionApproveShiftRequest || action == ActionRejectShiftRequest {
		kind = model.KindShift
	}
	reject := action == ActionRejectAttendanceRequest || action == ActionRejectShiftRequest
	if reject && strings.TrimSpace(req.Reason) == "" {
		return nil, demoFail(action, http.StatusBadRequest, "Thiếu lý do từ chối!")
	}
	for _, r := range d.requests {
		if r.ID != req.RequestID || r.Kind != kind {
			continue
		}
		if r.Status != model.StatusPending {
			return nil, demoFail(action, http.StatusBadRequest, "Yêu cầu đã được xử lý!")
		}
		r.ApproverID = caller.EmployeeID
		r.ApproverName = caller.FullName
		if reject {
			r.Status = model.StatusRejected
			r.ApproverNote = req.Reason
			return demoDone("Đã từ chối yêu cầu")
		}
		r.Status = model.StatusApproved
		r.ApproverNote = req.Note
		return demoDone("Đã duyệt yêu cầu")
	}
	return nil, demoFail(action, http.StatusNotFound, "Không tìm thấy yêu cầu!")
}

func (d *Demo) createTask(caller *demoUser, body interface{}) (json.RawMessage, error) {
	var req struct {
		model.Task
		Field        string `json:"field"`
		CurrentValue string `json:"currentValue"`
		NewValue     string `json:"newValue"`
		Reason       string `json:"reason"`
	}
	if err := decodeInto(body, &req); err != nil {
		return nil, demoFail(ActionCreateTask, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
	}
	t := req.Task
	if t.Type == "personal_info_change" {
		t.Title = "Yêu cầu thay đổi " + model.FieldLabel(req.Field)
		t.Description = fmt.Sprintf("%s → %s. Lý do: %s", req.CurrentValue, req.NewValue, req.Reason)
		t.Priority = model.PriorityMedium
		t.Assigners = []string{caller.EmployeeID}
	}
	if strings.TrimSpace(t.Title) == "" {
		return nil, demoFail(ActionCreateTask, http.StatusBadRequest, "Thiếu tiêu đề công việc!")
	}
	t.ID = d.nextID("TASK")
	t.Status = model.TaskPending
	t.EmployeeID = caller.EmployeeID
	t.EmployeeName = caller.FullName
	t.CreatedAt = d.now().Format(time.RFC3339)
	d.tasks = append(d.tasks, &t)
	return demoJSON(map[string]interface{}{"success": true, "message": "Đã tạo công việc", "id": t.ID})
}

func (d *Demo) findTask(id string) *model.Task {
	for _, t := range d.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (d *Demo) decideTask(action string, body interface{}) (json.RawMessage, error) {
	var req struct {
		TaskID string `json:"taskId"`
		Reason string `json:"reason"`
	}
	if err := decodeInto(body, &req); err != nil {
		return nil, demoFail(action, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
	}
	t := d.findTask(req.TaskID)
	if t == nil {
		return nil, demoFail(action, http.StatusNotFound, "Không tìm thấy công việc!")
	}
	switch action {
	case ActionApproveTask:
		t.Status = model.TaskInProgress
	case ActionFinalApprove:
		t.Status = model.TaskCompleted
	case ActionRejectTask, ActionFinalReject:
		if strings.TrimSpace(req.Reason) == "" && action == ActionRejectTask {
			return nil, demoFail(action, http.StatusBadRequest, "Thiếu lý do từ chối!")
		}
		t.Status = model.TaskRejected
	}
	return demoDone("Đã cập nhật công việc")
}

func (d *Demo) comment(caller *demoUser, action string, body interface{}) (json.RawMessage, error) {
	var req struct {
		TaskID    string `json:"taskId"`
		CommentID string `json:"commentId"`
		Content   string `json:"content"`
	}
	if err := decodeInto(body, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		return nil, demoFail(action, http.StatusBadRequest, "Nội dung bình luận trống!")
	}
	t := d.findTask(req.TaskID)
	if t == nil {
		return nil, demoFail(action, http.StatusNotFound, "Không tìm thấy công việc!")
	}
	c := model.Comment{
		ID: d.nextID("C"), AuthorID: caller.EmployeeID, AuthorName: caller.FullName,
		Content: req.Content, CreatedAt: d.now().Format(time.RFC3339),
	}
	if action == ActionAddComment {
		t.Comments = append(t.Comments, c)
		return demoDone("Đã thêm bình luận")
	}
	if !appendReply(t.Comments, req.CommentID, c) {
		return nil, demoFail(action, http.StatusNotFound, "Không tìm thấy bình luận!")
	}
	return demoDone("Đã trả lời bình luận")
}

func appendReply(list []model.Comment, parentID string, c model.Comment) bool {
	for i := range list {
		if list[i].ID == parentID {
			list[i].Replies = append(list[i].Replies, c)
			return true
		}
		if appendReply(list[i].Replies, parentID, c) {
			return true
		}
	}
	return false
}
