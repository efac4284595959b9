package selection

import (
	"strings"
	"time"

	"tocotoco-hr/portal/internal/calendar"
)

// Predicate 单个筛选条件
type Predicate[T any] func(T) bool

// All 组合多个条件（交集）；nil 条件被跳过
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(item T) bool {
		for _, p := range preds {
			if p != nil && !p(item) {
				return false
			}
		}
		return true
	}
}

// Apply 按条件过滤，保持原顺序
func Apply[T any](items []T, pred Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if pred == nil || pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// ContainsFold 忽略大小写的子串匹配；query 为空时总是匹配
func ContainsFold(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// 日期窗口
const (
	WindowToday     = "today"
	WindowYesterday = "yesterday"
	WindowWeek      = "week"
	WindowMonth     = "month"
)

// DateWindow 判断 t 是否落在相对 now 的窗口内；未知窗口或空值视为不限
func DateWindow(window string, t, now time.Time) bool {
	today := calendar.StartOfDay(now)
	switch window {
	case WindowToday:
		return !t.Before(today) && t.Before(today.AddDate(0, 0, 1))
	case WindowYesterday:
		return !t.Before(today.AddDate(0, 0, -1)) && t.Before(today)
	case WindowWeek:
		return !t.Before(today.AddDate(0, 0, -7)) && !t.After(now)
	case WindowMonth:
		return !t.Before(today.AddDate(0, -1, 0)) && !t.After(now)
	}
	return true
}
