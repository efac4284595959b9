package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"tocotoco-hr/portal/internal/model"
)

type fakeMailer struct {
	sent []*gomail.Message
	err  error
}

func (m *fakeMailer) DialAndSend(msgs ...*gomail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msgs...)
	return nil
}

func mailActor(email string) *Actor {
	return &Actor{SessionID: "s1", User: model.User{EmployeeID: "E004", FullName: "Phạm Thị Hoa", Email: email}}
}

func TestSendTimesheet_Disabled(t *testing.T) {
	svc := NewMailService(nil, "hr@example.com", zap.NewNop())
	if svc.Enabled() {
		t.Error("未配置 SMTP 时不应启用")
	}
	err := svc.SendTimesheet(context.Background(), mailActor("hoa@company.com"), "2025-01", "a.xlsx", bytes.NewBufferString("x"))
	if !errors.Is(err, ErrMailDisabled) {
		t.Errorf("期望 ErrMailDisabled，实际: %v", err)
	}
}

func TestSendTimesheet_NoEmail(t *testing.T) {
	m := &fakeMailer{}
	svc := NewMailService(m, "hr@example.com", zap.NewNop())
	err := svc.SendTimesheet(context.Background(), mailActor("  "), "2025-01", "a.xlsx", bytes.NewBufferString("x"))
	if !errors.Is(err, ErrNoEmail) {
		t.Errorf("期望 ErrNoEmail，实际: %v", err)
	}
	if len(m.sent) != 0 {
		t.Error("不应发送邮件")
	}
}

func TestSendTimesheet_Success(t *testing.T) {
	m := &fakeMailer{}
	svc := NewMailService(m, "hr@example.com", zap.NewNop())
	err := svc.SendTimesheet(context.Background(), mailActor("hoa@company.com"), "2025-01", "bang-cong_E004_2025-01.xlsx", bytes.NewBufferString("xlsx"))
	if err != nil {
		t.Fatalf("发送应成功: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("期望发送 1 封，实际: %d", len(m.sent))
	}
	msg := m.sent[0]
	if to := msg.GetHeader("To"); len(to) != 1 || to[0] != "hoa@company.com" {
		t.Errorf("收件人不符: %v", to)
	}
	if subj := msg.GetHeader("Subject"); len(subj) != 1 || subj[0] != "Bảng công tháng 2025-01" {
		t.Errorf("主题不符: %v", subj)
	}
}

func TestSendTimesheet_SMTPError(t *testing.T) {
	boom := errors.New("smtp down")
	svc := NewMailService(&fakeMailer{err: boom}, "hr@example.com", zap.NewNop())
	err := svc.SendTimesheet(context.Background(), mailActor("hoa@company.com"), "2025-01", "a.xlsx", bytes.NewBufferString("x"))
	if !errors.Is(err, boom) {
		t.Errorf("期望透传 SMTP 错误，实际: %v", err)
	}
}
