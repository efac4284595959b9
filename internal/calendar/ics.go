package calendar

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"tocotoco-hr/portal/internal/model"
)

// ── ICS 导入导出 ──────────────────────────────────────────────
//
// 导出：员工的排班 → VEVENT（一班一个事件，UID 由员工+日期构成）
// 导入：管理员上传的 ICS → 排班草稿（仅取 DTSTART/DTEND 的日期与时刻）
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize = 2 * 1024 * 1024
	icsProductID   = "-//Tocotoco HR//Portal//VI"
	clockLayout    = "15:04"
)

// BuildShiftCalendar 将排班转为 ICS 文本；缺少上下班时间的格子被跳过
func BuildShiftCalendar(name string, shifts []model.ShiftAssignment, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetName(name)

	for _, s := range shifts {
		start, end, ok := shiftBounds(s)
		if !ok {
			continue
		}
		evt := cal.AddEvent(fmt.Sprintf("%s-%s@hr-portal", s.EmployeeID, s.Date))
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		summary := s.ShiftName
		if summary == "" {
			summary = fmt.Sprintf("Ca %s-%s", s.StartTime, s.EndTime)
		}
		evt.SetSummary(summary)
		if s.StoreName != "" {
			evt.SetLocation(s.StoreName)
		}
	}
	return cal.Serialize()
}

// shiftBounds 计算班次起止；跨零点的班次结束时间顺延一天
func shiftBounds(s model.ShiftAssignment) (time.Time, time.Time, bool) {
	if s.DerivedStatus() != model.ShiftWorking {
		return time.Time{}, time.Time{}, false
	}
	day, err := time.ParseInLocation(DateLayout, s.Date, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	start, err1 := time.ParseInLocation(clockLayout, s.StartTime, time.Local)
	end, err2 := time.ParseInLocation(clockLayout, s.EndTime, time.Local)
	if err1 != nil || err2 != nil {
		return time.Time{}, time.Time{}, false
	}
	st := day.Add(time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute)
	en := day.Add(time.Duration(end.Hour())*time.Hour + time.Duration(end.Minute())*time.Minute)
	if !en.After(st) {
		en = en.AddDate(0, 0, 1)
	}
	return st, en, true
}

// ParseShiftCalendar 解析 ICS 为排班草稿，按日期升序
// 只保留落在 [from, to) 内的事件；EmployeeID 由调用方填写
func ParseShiftCalendar(r io.Reader, from, to time.Time) ([]model.ShiftAssignment, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	var out []model.ShiftAssignment
	for _, evt := range cal.Events() {
		start, err := evt.GetStartAt()
		if err != nil {
			continue
		}
		end, err := evt.GetEndAt()
		if err != nil {
			continue
		}
		start, end = start.In(time.Local), end.In(time.Local)
		if start.Before(from) || !start.Before(to) {
			continue
		}
		a := model.ShiftAssignment{
			Date:      start.Format(DateLayout),
			StartTime: start.Format(clockLayout),
			EndTime:   end.Format(clockLayout),
		}
		if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil {
			a.ShiftName = strings.TrimSpace(p.Value)
		}
		if p := evt.GetProperty(ics.ComponentPropertyLocation); p != nil {
			a.StoreName = strings.TrimSpace(p.Value)
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}
