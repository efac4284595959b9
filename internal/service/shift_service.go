package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/calendar"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/selection"
)

// ── 排班模块业务错误 ──

var (
	ErrInvalidWeek     = errors.New("Tuần không hợp lệ")
	ErrNoDaysSelected  = errors.New("Vui lòng chọn ngày làm việc")
	ErrStoreOutOfScope = errors.New("Bạn không quản lý cửa hàng này")
	ErrNoShiftsInFile  = errors.New("Tệp lịch không có ca làm việc trong tuần này")
)

// ShiftService 排班业务接口
//
// 设计说明：
//   - 表格状态只由上下班时间推导（working / incomplete / off）
//   - 批量排班的员工选择通过 selection.Set 的 CSV 在请求间传递
//   - 可选 RRULE 决定本周哪些日期排班，未提供时使用勾选的星期
type ShiftService interface {
	LoadAssignments(ctx context.Context, a *Actor, q dto.ShiftQuery) (*dto.ShiftGridView, error)
	BulkAssign(ctx context.Context, a *Actor, req *dto.BulkAssignRequest) (int, error)
	// ImportICS 导入 ICS 中本周的班次给已选员工
	ImportICS(ctx context.Context, a *Actor, store, week, selected string, r io.Reader) (int, error)
	WeeklyShifts(ctx context.Context, a *Actor, week string) (*dto.WeeklyShiftsView, error)
	CurrentShift(ctx context.Context, a *Actor) (*model.CurrentShift, error)
	// ShiftsInRange 员工在 [from, to) 内的排班，用于 ICS 导出
	ShiftsInRange(ctx context.Context, a *Actor, from, to time.Time) ([]model.ShiftAssignment, error)
}

type shiftService struct {
	api    apiclient.API
	dir    DirectoryService
	now    func() time.Time
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(api apiclient.API, dir DirectoryService, now func() time.Time, logger *zap.Logger) ShiftService {
	return &shiftService{api: api, dir: dir, now: now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// LoadAssignments：排班表（员工 × 7 天）
// ═══════════════════════════════════════════════════════════

func (s *shiftService) LoadAssignments(ctx context.Context, a *Actor, q dto.ShiftQuery) (*dto.ShiftGridView, error) {
	if err := authorize(a, permission.ViewShiftAssignment); err != nil {
		return nil, err
	}

	week := q.Week
	if week == "" {
		week = calendar.CurrentWeek(s.now())
	}
	dates, err := calendar.WeekDates(week)
	if err != nil {
		return nil, ErrInvalidWeek
	}

	stores, err := s.dir.StoresForUser(ctx, a)
	if err != nil {
		return nil, err
	}
	view := &dto.ShiftGridView{
		Stores:   stores,
		Store:    q.Store,
		Week:     week,
		PrevWeek: calendar.FormatWeek(dates[0].AddDate(0, 0, -7)),
		NextWeek: calendar.FormatWeek(dates[0].AddDate(0, 0, 7)),
	}
	today := calendar.DateKey(s.now())
	for _, d := range dates {
		key := calendar.DateKey(d)
		view.Days = append(view.Days, dto.ShiftDay{Date: key, Weekday: calendar.Weekday(d), IsToday: key == today})
	}
	if q.Store == "" {
		// 未选门店时只渲染选择器
		return view, nil
	}
	if !storeInScope(stores, q.Store) {
		return nil, ErrStoreOutOfScope
	}

	employees, err := s.dir.EmployeesByStore(ctx, a, q.Store)
	if err != nil {
		return nil, err
	}
	shifts, err := fetchList[model.ShiftAssignment](ctx, s.api, a, apiclient.ActionGetShiftAssignments,
		url.Values{"store": {q.Store}, "week": {week}})
	if err != nil {
		s.logger.Error("获取排班失败", zap.String("store", q.Store), zap.String("week", week), zap.Error(err))
		return nil, err
	}

	byKey := make(map[string]model.ShiftAssignment, len(shifts))
	for _, sh := range shifts {
		byKey[sh.EmployeeID+"|"+sh.Date] = sh
	}
	// 有排班但不在员工列表中的人（如跨店支援）也要显示
	known := make(map[string]bool, len(employees))
	for _, e := range employees {
		known[e.EmployeeID] = true
	}
	for _, sh := range shifts {
		if !known[sh.EmployeeID] {
			known[sh.EmployeeID] = true
			employees = append(employees, model.User{EmployeeID: sh.EmployeeID, FullName: sh.EmployeeName})
		}
	}

	sel := selection.DecodeSet(q.Selected)
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.EmployeeID] = e.DisplayName()
		row := dto.ShiftRow{EmployeeID: e.EmployeeID, EmployeeName: e.DisplayName(), Selected: sel.Has(e.EmployeeID)}
		for _, d := range view.Days {
			sh := byKey[e.EmployeeID+"|"+d.Date]
			status := sh.DerivedStatus()
			row.Cells = append(row.Cells, dto.ShiftCell{
				Date:       d.Date,
				StartTime:  sh.StartTime,
				EndTime:    sh.EndTime,
				Status:     status,
				StatusText: model.ShiftStatusText(status),
			})
			if status == model.ShiftWorking {
				row.WorkingDays++
			}
		}
		view.Rows = append(view.Rows, row)
	}

	view.Selected = sel.Encode()
	for _, id := range sel.IDs() {
		if n, ok := names[id]; ok {
			view.SelectedNames = append(view.SelectedNames, n)
		}
	}
	return view, nil
}

func storeInScope(stores []model.Store, key string) bool {
	for _, st := range stores {
		if st.StoreID == key || st.StoreName == key {
			return true
		}
	}
	return false
}

// ═══════════════════════════════════════════════════════════
// BulkAssign：批量排班
// ═══════════════════════════════════════════════════════════

func (s *shiftService) BulkAssign(ctx context.Context, a *Actor, req *dto.BulkAssignRequest) (int, error) {
	if err := authorize(a, permission.ViewShiftAssignment); err != nil {
		return 0, err
	}
	// 1. 本地校验，全部通过前不发请求
	if strings.TrimSpace(req.Store) == "" {
		return 0, ErrStoreRequired
	}
	employees := selection.DecodeSet(req.Employees)
	if employees.Len() == 0 {
		return 0, ErrNothingSelected
	}
	if err := validateInput(req); err != nil {
		return 0, err
	}
	dates, err := calendar.WeekDates(req.Week)
	if err != nil {
		return 0, ErrInvalidWeek
	}

	// 2. 计算排班日期
	var days []time.Time
	if req.Recurrence != "" {
		days, err = calendar.ExpandRecurrence(req.Recurrence, dates[0], dates[6])
		if err != nil {
			return 0, &ValidationError{Field: "Recurrence", Tag: "rrule", Message: "Quy tắc lặp không hợp lệ"}
		}
	} else {
		days = pickWeekdays(dates, req.Days)
	}
	if len(days) == 0 {
		return 0, ErrNoDaysSelected
	}

	// 3. 组装并提交
	var assignments []model.ShiftAssignment
	for _, id := range employees.IDs() {
		for _, d := range days {
			assignments = append(assignments, model.ShiftAssignment{
				EmployeeID: id,
				Date:       calendar.DateKey(d),
				StartTime:  req.StartTime,
				EndTime:    req.EndTime,
				StoreID:    req.Store,
			})
		}
	}
	_, err = s.api.Send(ctx, apiclient.ActionSaveShiftAssignments, a.Token, map[string]interface{}{
		"storeId":     req.Store,
		"week":        req.Week,
		"assignments": assignments,
	})
	if err != nil {
		s.logger.Error("保存排班失败", zap.String("store", req.Store), zap.Error(err))
		return 0, err
	}

	s.logger.Info("批量排班",
		zap.String("store", req.Store),
		zap.String("week", req.Week),
		zap.Int("employees", employees.Len()),
		zap.Int("assignments", len(assignments)),
	)
	return len(assignments), nil
}

// pickWeekdays 按 MO..SU 从本周日期中挑选
func pickWeekdays(dates []time.Time, days []string) []time.Time {
	want := make(map[time.Weekday]bool)
	codes := map[string]time.Weekday{
		"MO": time.Monday, "TU": time.Tuesday, "WE": time.Wednesday, "TH": time.Thursday,
		"FR": time.Friday, "SA": time.Saturday, "SU": time.Sunday,
	}
	for _, d := range days {
		if wd, ok := codes[strings.ToUpper(strings.TrimSpace(d))]; ok {
			want[wd] = true
		}
	}
	var out []time.Time
	for _, d := range dates {
		if want[d.Weekday()] {
			out = append(out, d)
		}
	}
	return out
}

// ═══════════════════════════════════════════════════════════
// ImportICS：从 ICS 导入本周班次
// ═══════════════════════════════════════════════════════════

func (s *shiftService) ImportICS(ctx context.Context, a *Actor, store, week, selected string, r io.Reader) (int, error) {
	if err := authorize(a, permission.ViewShiftAssignment); err != nil {
		return 0, err
	}
	if store == "" {
		return 0, ErrStoreRequired
	}
	employees := selection.DecodeSet(selected)
	if employees.Len() == 0 {
		return 0, ErrNothingSelected
	}
	dates, err := calendar.WeekDates(week)
	if err != nil {
		return 0, ErrInvalidWeek
	}

	parsed, err := calendar.ParseShiftCalendar(r, dates[0], dates[6].AddDate(0, 0, 1))
	if err != nil {
		return 0, &ValidationError{Field: "File", Tag: "ics", Message: "Tệp lịch không đúng định dạng ICS"}
	}
	if len(parsed) == 0 {
		return 0, ErrNoShiftsInFile
	}

	var assignments []model.ShiftAssignment
	for _, id := range employees.IDs() {
		for _, p := range parsed {
			p.EmployeeID = id
			p.StoreID = store
			assignments = append(assignments, p)
		}
	}
	if _, err := s.api.Send(ctx, apiclient.ActionSaveShiftAssignments, a.Token, map[string]interface{}{
		"storeId":     store,
		"week":        week,
		"assignments": assignments,
	}); err != nil {
		s.logger.Error("导入排班失败", zap.String("store", store), zap.Error(err))
		return 0, err
	}
	return len(assignments), nil
}

// ═══════════════════════════════════════════════════════════
// 员工侧：本周排班 / 当前班次
// ═══════════════════════════════════════════════════════════

func (s *shiftService) WeeklyShifts(ctx context.Context, a *Actor, week string) (*dto.WeeklyShiftsView, error) {
	if err := authorize(a, permission.ViewWorkShifts); err != nil {
		return nil, err
	}
	if week == "" {
		week = calendar.CurrentWeek(s.now())
	}
	dates, err := calendar.WeekDates(week)
	if err != nil {
		return nil, ErrInvalidWeek
	}

	raw, err := s.api.Fetch(ctx, apiclient.ActionGetWeeklyShifts, a.Token,
		url.Values{"employeeId": {a.User.EmployeeID}, "week": {week}})
	if err != nil {
		s.logger.Error("获取本周排班失败", zap.Error(err))
		return nil, err
	}
	// 远端可能返回 {shifts:[...]} 或直接返回列表
	var shifts []model.ShiftAssignment
	if !apiclient.DecodeField(raw, "shifts", &shifts) {
		shifts = apiclient.DecodeList[model.ShiftAssignment](raw)
	}

	view := &dto.WeeklyShiftsView{
		Week:     week,
		PrevWeek: calendar.FormatWeek(dates[0].AddDate(0, 0, -7)),
		NextWeek: calendar.FormatWeek(dates[0].AddDate(0, 0, 7)),
		Shifts:   shifts,
	}
	if week == calendar.CurrentWeek(s.now()) {
		if cur, err := s.CurrentShift(ctx, a); err == nil {
			view.Current = cur
		}
	}
	return view, nil
}

func (s *shiftService) CurrentShift(ctx context.Context, a *Actor) (*model.CurrentShift, error) {
	var cur model.CurrentShift
	ok, err := fetchObject(ctx, s.api, a, apiclient.ActionGetCurrentShift,
		url.Values{"employeeId": {a.User.EmployeeID}}, "currentShift", &cur)
	if err != nil {
		s.logger.Warn("获取当前班次失败", zap.Error(err))
		return nil, err
	}
	if !ok || cur.Date == "" {
		return nil, nil
	}
	return &cur, nil
}

func (s *shiftService) ShiftsInRange(ctx context.Context, a *Actor, from, to time.Time) ([]model.ShiftAssignment, error) {
	if err := authorize(a, permission.ViewWorkShifts); err != nil {
		return nil, err
	}
	var out []model.ShiftAssignment
	for d := calendar.StartOfDay(from); d.Before(to); d = d.AddDate(0, 0, 7) {
		view, err := s.WeeklyShifts(ctx, a, calendar.FormatWeek(d))
		if err != nil {
			return nil, fmt.Errorf("tải lịch tuần %s: %w", calendar.FormatWeek(d), err)
		}
		out = append(out, view.Shifts...)
	}
	return out, nil
}
