package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ExpandRecurrence 按 RRULE 展开 [from, to] 内的日期
// rule 形如 "FREQ=WEEKLY;BYDAY=MO,WE,FR"，可带 "RRULE:" 前缀；DTSTART 固定为 from
func ExpandRecurrence(rule string, from, to time.Time) ([]time.Time, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return nil, fmt.Errorf("quy tắc lặp trống")
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("quy tắc lặp không hợp lệ: %w", err)
	}
	opt.Dtstart = StartOfDay(from)

	rr, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("quy tắc lặp không hợp lệ: %w", err)
	}

	set := rrule.Set{}
	set.RRule(rr)
	return set.Between(StartOfDay(from), StartOfDay(to).Add(24*time.Hour-time.Nanosecond), true), nil
}

// WeekdayRule 由星期列表生成每周重复规则，days 取值 MO..SU
func WeekdayRule(days []string) string {
	valid := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.ToUpper(strings.TrimSpace(d))
		switch d {
		case "MO", "TU", "WE", "TH", "FR", "SA", "SU":
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		return ""
	}
	return "FREQ=WEEKLY;BYDAY=" + strings.Join(valid, ",")
}
