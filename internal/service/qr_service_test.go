package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestStoreQR(t *testing.T) {
	svc, api := setupDemoService()
	a := loginAs(t, svc, api, "E002")
	ctx := context.Background()

	png, err := svc.QR.StoreQR(ctx, a, "ST001", 0)
	if err != nil {
		t.Fatalf("生成二维码应成功: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("期望 PNG 数据")
	}

	if _, err := svc.QR.StoreQR(ctx, a, "ST003", 256); !errors.Is(err, ErrStoreOutOfScope) {
		t.Errorf("越权门店期望 ErrStoreOutOfScope，实际: %v", err)
	}
}

func TestAttendanceURL(t *testing.T) {
	svc, _ := setupTestService(nil)
	got := svc.QR.AttendanceURL("ST 01")
	if got != "https://hr.example.com/app/attendance?store=ST+01" {
		t.Errorf("打卡链接不符: %s", got)
	}
}
