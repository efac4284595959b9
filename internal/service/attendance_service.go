package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/calendar"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/pkg/geo"
)

// ── 考勤模块业务错误 ──

var (
	ErrOutOfRange   = errors.New("Bạn đang ở ngoài phạm vi chấm công")
	ErrInvalidMonth = errors.New("Tháng không hợp lệ")
)

// AttendanceService GPS 打卡与考勤表业务接口
//
// 设计说明：
//   - Locate 只做就近门店判断，打卡类型（上班/下班）由远端决定
//   - Punch 之前重新判断距离，超出半径时不发请求
//   - 远端考勤表缺少 summary 时在本地汇总
type AttendanceService interface {
	Locate(ctx context.Context, a *Actor, req dto.LocateRequest) (*dto.LocateResult, error)
	View(ctx context.Context, a *Actor) (*dto.AttendanceView, error)
	Punch(ctx context.Context, a *Actor, req dto.LocateRequest) (*model.PunchResult, []model.AttendanceRecord, error)
	TodayHistory(ctx context.Context, a *Actor) ([]model.AttendanceRecord, error)
	Timesheet(ctx context.Context, a *Actor, q dto.TimesheetQuery) (*dto.TimesheetView, error)
	RequestForm(ctx context.Context, a *Actor) (*dto.AttendanceRequestView, error)
	SubmitRequest(ctx context.Context, a *Actor, form *dto.AttendanceRequestForm) (string, error)
}

type attendanceService struct {
	api    apiclient.API
	dir    DirectoryService
	cfg    *config.AttendanceConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(api apiclient.API, dir DirectoryService, cfg *config.AttendanceConfig, now func() time.Time, logger *zap.Logger) AttendanceService {
	return &attendanceService{api: api, dir: dir, cfg: cfg, now: now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Locate：定位状态机
// ═══════════════════════════════════════════════════════════
//
// searching（初始渲染）→ success / warning / error

func (s *attendanceService) Locate(ctx context.Context, a *Actor, req dto.LocateRequest) (*dto.LocateResult, error) {
	if err := authorize(a, permission.ViewAttendance); err != nil {
		return nil, err
	}
	res := &dto.LocateResult{Radius: s.cfg.RadiusMeters, Latitude: req.Latitude, Longitude: req.Longitude}

	if req.Error != "" {
		res.State = dto.LocateError
		res.Message = geoErrorText(req.Error)
		return res, nil
	}
	if !geo.Valid(req.Latitude, req.Longitude) {
		res.State = dto.LocateError
		res.Message = "Không xác định được vị trí của bạn"
		return res, nil
	}

	stores, err := s.dir.ListStores(ctx, a)
	if err != nil {
		return nil, err
	}
	idx, dist := geo.Nearest(geo.Point{Lat: req.Latitude, Lng: req.Longitude}, stores)
	if idx < 0 {
		res.State = dto.LocateError
		res.Message = "Chưa có cửa hàng nào được cấu hình tọa độ"
		return res, nil
	}

	store := stores[idx]
	res.Store = &store
	res.Distance = math.Round(dist)
	if dist <= s.cfg.RadiusMeters {
		res.State = dto.LocateSuccess
		res.CanPunch = true
		res.Message = fmt.Sprintf("Bạn đang ở %s (cách %.0fm)", store.StoreName, res.Distance)
	} else {
		res.State = dto.LocateWarning
		res.Message = fmt.Sprintf("Bạn cách %s %s, ngoài phạm vi %.0fm", store.StoreName, formatDistance(dist), s.cfg.RadiusMeters)
	}
	return res, nil
}

// geoErrorText 浏览器 GeolocationPositionError 代码
func geoErrorText(code string) string {
	switch code {
	case "1", "denied":
		return "Bạn đã từ chối quyền truy cập vị trí"
	case "2", "unavailable":
		return "Không thể xác định vị trí hiện tại"
	case "3", "timeout":
		return "Hết thời gian lấy vị trí, vui lòng thử lại"
	case "unsupported":
		return "Trình duyệt không hỗ trợ định vị"
	}
	return "Lỗi định vị: " + code
}

func formatDistance(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1fkm", m/1000)
	}
	return fmt.Sprintf("%.0fm", m)
}

func (s *attendanceService) View(ctx context.Context, a *Actor) (*dto.AttendanceView, error) {
	if err := authorize(a, permission.ViewAttendance); err != nil {
		return nil, err
	}
	history, err := s.TodayHistory(ctx, a)
	if err != nil {
		return nil, err
	}
	view := &dto.AttendanceView{
		Locate:     dto.LocateResult{State: dto.LocateSearching, Radius: s.cfg.RadiusMeters, Message: "Đang xác định vị trí..."},
		History:    history,
		GeoTimeout: s.cfg.GeoTimeout.Milliseconds(),
		GeoMaxAge:  s.cfg.GeoMaxAge.Milliseconds(),
	}
	var cur model.CurrentShift
	if ok, err := fetchObject(ctx, s.api, a, apiclient.ActionGetCurrentShift,
		url.Values{"employeeId": {a.User.EmployeeID}}, "currentShift", &cur); err == nil && ok && cur.Date != "" {
		view.Current = &cur
	}
	return view, nil
}

// ═══════════════════════════════════════════════════════════
// Punch：打卡
// ═══════════════════════════════════════════════════════════

func (s *attendanceService) Punch(ctx context.Context, a *Actor, req dto.LocateRequest) (*model.PunchResult, []model.AttendanceRecord, error) {
	loc, err := s.Locate(ctx, a, req)
	if err != nil {
		return nil, nil, err
	}
	switch loc.State {
	case dto.LocateError:
		return nil, nil, &ValidationError{Field: "Latitude", Tag: "geo", Message: loc.Message}
	case dto.LocateWarning:
		return nil, nil, fmt.Errorf("%w: %s", ErrOutOfRange, loc.Message)
	}

	raw, err := s.api.Send(ctx, apiclient.ActionProcessAttendance, a.Token, map[string]interface{}{
		"employeeId": a.User.EmployeeID,
		"latitude":   req.Latitude,
		"longitude":  req.Longitude,
	})
	if err != nil {
		s.logger.Warn("打卡失败", zap.String("employee_id", a.User.EmployeeID), zap.Error(err))
		return nil, nil, err
	}
	var result model.PunchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		result = model.PunchResult{Success: true}
	}
	if result.Message == "" {
		result.Message = "Chấm công thành công!"
	}

	s.logger.Info("打卡成功",
		zap.String("employee_id", a.User.EmployeeID),
		zap.String("type", result.Type),
		zap.String("store", result.StoreName),
	)

	// 打卡后重新拉取当天记录
	history, err := s.TodayHistory(ctx, a)
	if err != nil {
		s.logger.Warn("刷新打卡记录失败", zap.Error(err))
	}
	return &result, history, nil
}

func (s *attendanceService) TodayHistory(ctx context.Context, a *Actor) ([]model.AttendanceRecord, error) {
	records, err := fetchList[model.AttendanceRecord](ctx, s.api, a, apiclient.ActionGetAttendanceHistory,
		url.Values{"employeeId": {a.User.EmployeeID}, "date": {calendar.DateKey(s.now())}})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp > records[j].Timestamp })
	return records, nil
}

// ═══════════════════════════════════════════════════════════
// Timesheet：月度考勤表
// ═══════════════════════════════════════════════════════════

func (s *attendanceService) Timesheet(ctx context.Context, a *Actor, q dto.TimesheetQuery) (*dto.TimesheetView, error) {
	if err := authorize(a, permission.ViewTimesheet); err != nil {
		return nil, err
	}
	month := q.Month
	if month == "" {
		month = calendar.CurrentMonth(s.now())
	}
	start, _, err := calendar.MonthRange(month)
	if err != nil {
		return nil, ErrInvalidMonth
	}

	view := &dto.TimesheetView{
		Month:     month,
		PrevMonth: calendar.CurrentMonth(start.AddDate(0, -1, 0)),
		NextMonth: calendar.CurrentMonth(start.AddDate(0, 1, 0)),
		Employee:  a.User,
	}

	// NV 只能查看自己；管理角色可选择管辖门店内的员工
	target := a.User.EmployeeID
	if !a.User.HasRole(model.RoleEmployee) {
		employees, err := s.dir.ManagedUsers(ctx, a)
		if err != nil {
			return nil, err
		}
		view.Employees = employees
		if q.EmployeeID != "" && q.EmployeeID != target {
			found := false
			for _, e := range employees {
				if e.EmployeeID == q.EmployeeID {
					view.Employee, found = e, true
				}
			}
			if !found {
				return nil, ErrAccessDenied
			}
			target = q.EmployeeID
		}
	}

	ts, err := s.loadTimesheet(ctx, a, target, month)
	if err != nil {
		return nil, err
	}
	view.Timesheet = *ts
	return view, nil
}

// loadTimesheet 拉取考勤表，缺少 summary 时本地汇总
func (s *attendanceService) loadTimesheet(ctx context.Context, a *Actor, employeeID, month string) (*model.Timesheet, error) {
	raw, err := s.api.Fetch(ctx, apiclient.ActionGetTimesheet, a.Token,
		url.Values{"employeeId": {employeeID}, "month": {month}})
	if err != nil {
		s.logger.Error("获取考勤表失败", zap.String("employee_id", employeeID), zap.String("month", month), zap.Error(err))
		return nil, err
	}

	ts := &model.Timesheet{EmployeeID: employeeID, Month: month}
	if !apiclient.DecodeField(raw, "records", &ts.Records) {
		ts.Records = apiclient.DecodeList[model.TimesheetRow](raw)
	}
	sort.SliceStable(ts.Records, func(i, j int) bool { return ts.Records[i].Date < ts.Records[j].Date })

	if !apiclient.DecodeField(raw, "summary", &ts.Summary) {
		ts.Summary = Summarize(ts.Records)
	}
	return ts, nil
}

// Summarize 由考勤明细汇总工时、出勤天数、迟到与缺勤次数
func Summarize(rows []model.TimesheetRow) model.TimesheetSummary {
	var sum model.TimesheetSummary
	for _, r := range rows {
		if r.TotalHours.Valid {
			sum.TotalHours += r.TotalHours.Value
		}
		switch r.Status {
		case "present", "late", "early_leave", "overtime":
			sum.WorkDays++
		case "absent":
			sum.AbsentCount++
		}
		if r.Status == "late" {
			sum.LateCount++
		}
	}
	sum.TotalHours = math.Round(sum.TotalHours*10) / 10
	return sum
}

// ═══════════════════════════════════════════════════════════
// 考勤 / 调班 / 请假申请
// ═══════════════════════════════════════════════════════════

var requestTypes = []string{model.RequestForgotPunch, model.RequestAttendance, model.RequestShiftChange, model.RequestLeave}

func (s *attendanceService) RequestForm(ctx context.Context, a *Actor) (*dto.AttendanceRequestView, error) {
	if err := authorize(a, permission.ViewAttendanceRequest); err != nil {
		return nil, err
	}
	q := url.Values{"employeeId": {a.User.EmployeeID}}
	mine, err := fetchList[model.Request](ctx, s.api, a, apiclient.ActionGetAttendanceRequests, q)
	if err != nil {
		return nil, err
	}
	shifts, err := fetchList[model.Request](ctx, s.api, a, apiclient.ActionGetShiftRequests, q)
	if err != nil {
		return nil, err
	}
	mine = append(mine, shifts...)
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt > mine[j].CreatedAt })

	return &dto.AttendanceRequestView{
		Types:    options(requestTypes, model.RequestTypeText, model.RequestForgotPunch),
		Requests: mine,
	}, nil
}

func (s *attendanceService) SubmitRequest(ctx context.Context, a *Actor, form *dto.AttendanceRequestForm) (string, error) {
	if err := authorize(a, permission.ViewAttendanceRequest); err != nil {
		return "", err
	}
	if err := validateInput(form); err != nil {
		return "", err
	}

	raw, err := s.api.Send(ctx, apiclient.ActionCreateAttendanceRequest, a.Token, map[string]interface{}{
		"employeeId":     a.User.EmployeeID,
		"type":           form.Type,
		"targetDate":     form.TargetDate,
		"targetTime":     form.TargetTime,
		"currentShift":   form.CurrentShift,
		"requestedShift": form.RequestedShift,
		"reason":         form.Reason,
	})
	if err != nil {
		s.logger.Error("提交申请失败", zap.String("type", form.Type), zap.Error(err))
		return "", err
	}
	var id string
	apiclient.DecodeField(raw, "id", &id)
	s.logger.Info("提交申请", zap.String("employee_id", a.User.EmployeeID), zap.String("type", form.Type), zap.String("id", id))
	return id, nil
}
