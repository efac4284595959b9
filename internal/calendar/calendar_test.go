package calendar

import (
	"strings"
	"testing"
	"time"

	"tocotoco-hr/portal/internal/model"
)

func TestWeekDates_MondayToSunday(t *testing.T) {
	dates, err := WeekDates("2025-W05")
	if err != nil {
		t.Fatalf("WeekDates 失败: %v", err)
	}
	if len(dates) != 7 {
		t.Fatalf("期望 7 天, 实际 %d", len(dates))
	}
	if dates[0].Weekday() != time.Monday || dates[6].Weekday() != time.Sunday {
		t.Errorf("应从周一到周日: %v .. %v", dates[0].Weekday(), dates[6].Weekday())
	}
	for i := 1; i < 7; i++ {
		if d := dates[i].Sub(dates[i-1]); d != 24*time.Hour {
			t.Errorf("日期不连续: %v -> %v", dates[i-1], dates[i])
		}
	}
	if DateKey(dates[0]) != "2025-01-27" {
		t.Errorf("2025-W05 周一应为 2025-01-27, 实际 %s", DateKey(dates[0]))
	}
}

func TestWeekDates_FirstWeekStartsPreviousYear(t *testing.T) {
	dates, err := WeekDates("2025-W01")
	if err != nil {
		t.Fatalf("WeekDates 失败: %v", err)
	}
	if DateKey(dates[0]) != "2024-12-30" {
		t.Errorf("2025-W01 周一应为 2024-12-30, 实际 %s", DateKey(dates[0]))
	}
	if DateKey(dates[6]) != "2025-01-05" {
		t.Errorf("2025-W01 周日应为 2025-01-05, 实际 %s", DateKey(dates[6]))
	}
}

func TestParseWeek(t *testing.T) {
	if y, w, err := ParseWeek("2025-W5"); err != nil || y != 2025 || w != 5 {
		t.Errorf("单数字周次解析失败: %d %d %v", y, w, err)
	}
	for _, bad := range []string{"", "2025", "2025-05", "2025-W00", "2025-W53", "abcd-W01"} {
		if _, _, err := ParseWeek(bad); err == nil {
			t.Errorf("%q 应解析失败", bad)
		}
	}
	// 2026 年有 53 周
	if _, _, err := ParseWeek("2026-W53"); err != nil {
		t.Errorf("2026-W53 应合法: %v", err)
	}
}

func TestFormatWeek_RoundTrip(t *testing.T) {
	d := time.Date(2024, 12, 31, 10, 0, 0, 0, time.Local)
	if got := FormatWeek(d); got != "2025-W01" {
		t.Errorf("2024-12-31 属于 2025-W01, 实际 %s", got)
	}
	dates, _ := WeekDates(FormatWeek(d))
	if DateKey(dates[1]) != "2024-12-31" {
		t.Errorf("往返不一致: %s", DateKey(dates[1]))
	}
}

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("2025-02")
	if err != nil {
		t.Fatalf("MonthRange 失败: %v", err)
	}
	if DateKey(start) != "2025-02-01" || DateKey(end) != "2025-03-01" {
		t.Errorf("范围错误: %s - %s", DateKey(start), DateKey(end))
	}
	if _, _, err := MonthRange("2025/02"); err == nil {
		t.Error("非法月份应报错")
	}
}

func TestExpandRecurrence(t *testing.T) {
	from := time.Date(2025, 1, 27, 0, 0, 0, 0, time.Local) // 周一
	to := from.AddDate(0, 0, 6)

	dates, err := ExpandRecurrence(WeekdayRule([]string{"mo", "we", "fr", "xx"}), from, to)
	if err != nil {
		t.Fatalf("展开失败: %v", err)
	}
	var got []string
	for _, d := range dates {
		got = append(got, DateKey(d))
	}
	want := "2025-01-27,2025-01-29,2025-01-31"
	if strings.Join(got, ",") != want {
		t.Errorf("期望 %s, 实际 %v", want, got)
	}

	if _, err := ExpandRecurrence("", from, to); err == nil {
		t.Error("空规则应报错")
	}
	if _, err := ExpandRecurrence("FREQ=NOPE", from, to); err == nil {
		t.Error("非法规则应报错")
	}
}

func TestShiftCalendar_RoundTrip(t *testing.T) {
	shifts := []model.ShiftAssignment{
		{EmployeeID: "E004", Date: "2025-01-28", StartTime: "13:00", EndTime: "22:00", StoreName: "Tocotoco Lê Lợi"},
		{EmployeeID: "E004", Date: "2025-01-27", StartTime: "08:00", EndTime: "17:00", ShiftName: "Ca 8 Tiếng 8-17"},
		{EmployeeID: "E004", Date: "2025-01-29", StartTime: "08:00"}, // 不完整，跳过
	}
	text := BuildShiftCalendar("Lịch làm việc", shifts, time.Now())
	if !strings.Contains(text, "BEGIN:VCALENDAR") || strings.Count(text, "BEGIN:VEVENT") != 2 {
		t.Fatalf("ICS 内容异常:\n%s", text)
	}

	from := time.Date(2025, 1, 27, 0, 0, 0, 0, time.Local)
	parsed, err := ParseShiftCalendar(strings.NewReader(text), from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("期望 2 个班次, 实际 %d", len(parsed))
	}
	if parsed[0].Date != "2025-01-27" || parsed[0].StartTime != "08:00" || parsed[0].EndTime != "17:00" {
		t.Errorf("第一个班次错误: %+v", parsed[0])
	}
	if parsed[1].StoreName != "Tocotoco Lê Lợi" {
		t.Errorf("地点未保留: %+v", parsed[1])
	}
}

func TestParseShiftCalendar_Invalid(t *testing.T) {
	if _, err := ParseShiftCalendar(strings.NewReader("not ics"), time.Time{}, time.Now()); err == nil {
		t.Error("非法 ICS 应报错")
	}
}
