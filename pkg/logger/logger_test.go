package logger

import (
	"testing"

	"tocotoco-hr/portal/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format}, "hr-portal")
		if err != nil {
			t.Fatalf("format=%s 初始化失败: %v", format, err)
		}
		l.Info("ok")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}, ""); err == nil {
		t.Error("非法日志级别应返回错误")
	}
}
