// Package calendar 周次、月份与重复规则等日期工具
// 周次一律按 ISO 8601：周一为一周首日，包含 1 月 4 日的周为第 1 周
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout 远端接口使用的日期格式
const DateLayout = "2006-01-02"

// MonthLayout 月份格式（<input type="month">）
const MonthLayout = "2006-01"

var ErrInvalidWeek = errors.New("tuần không hợp lệ")
var ErrInvalidMonth = errors.New("tháng không hợp lệ")

// ParseWeek 解析 "2025-W05"（也接受 "2025-W5"）
func ParseWeek(s string) (year, week int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-W", 2)
	if len(parts) != 2 {
		return 0, 0, ErrInvalidWeek
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return 0, 0, ErrInvalidWeek
	}
	week, err = strconv.Atoi(parts[1])
	if err != nil || week < 1 || week > weeksInYear(year) {
		return 0, 0, ErrInvalidWeek
	}
	return year, week, nil
}

// WeekStart ISO 周的周一（本地零点）
func WeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.Local)
	offset := (int(jan4.Weekday()) + 6) % 7 // 周一=0
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (week-1)*7)
}

// WeekDates 返回该周周一至周日共 7 天
func WeekDates(s string) ([]time.Time, error) {
	year, week, err := ParseWeek(s)
	if err != nil {
		return nil, err
	}
	start := WeekStart(year, week)
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates, nil
}

// FormatWeek t 所在 ISO 周，如 "2025-W05"
func FormatWeek(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", y, w)
}

// CurrentWeek 当前 ISO 周
func CurrentWeek(now time.Time) string { return FormatWeek(now) }

// CurrentMonth 当前月份，如 "2025-03"
func CurrentMonth(now time.Time) string { return now.Format(MonthLayout) }

// MonthRange 返回月份首日与下月首日 [start, end)
func MonthRange(month string) (start, end time.Time, err error) {
	t, err := time.ParseInLocation(MonthLayout, strings.TrimSpace(month), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}
	return t, t.AddDate(0, 1, 0), nil
}

// DateKey 日期键 "2006-01-02"
func DateKey(t time.Time) string { return t.Format(DateLayout) }

// Weekday 越南语星期名称
func Weekday(t time.Time) string {
	return weekdayNames[t.Weekday()]
}

var weekdayNames = [...]string{"Chủ nhật", "Thứ 2", "Thứ 3", "Thứ 4", "Thứ 5", "Thứ 6", "Thứ 7"}

// StartOfDay 本地零点
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// 12 月 28 日总在当年最后一个 ISO 周内
func weeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}
