package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"tocotoco-hr/portal/config"
)

var (
	ErrMailDisabled = errors.New("Chức năng gửi email chưa được cấu hình")
	ErrNoEmail      = errors.New("Tài khoản chưa có địa chỉ email")
)

// Mailer SMTP 发送器，由 *gomail.Dialer 实现
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// NewMailer 按配置创建 gomail Dialer；未配置 SMTP 时返回 nil
func NewMailer(cfg *config.MailConfig) Mailer {
	if !cfg.Enabled() {
		return nil
	}
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost}
	return d
}

// MailService 邮件发送（考勤表附件）
type MailService interface {
	Enabled() bool
	// SendTimesheet 把考勤表工作簿发到调用者邮箱
	SendTimesheet(ctx context.Context, a *Actor, month, filename string, workbook *bytes.Buffer) error
}

type mailService struct {
	mailer Mailer
	from   string
	logger *zap.Logger
}

// NewMailService 创建 MailService 实例；mailer 为 nil 时所有发送返回 ErrMailDisabled
func NewMailService(mailer Mailer, from string, logger *zap.Logger) MailService {
	return &mailService{mailer: mailer, from: from, logger: logger}
}

func (s *mailService) Enabled() bool { return s.mailer != nil }

var timesheetMail = template.Must(template.New("timesheet").Parse(
	`<p>Xin chào {{.Name}},</p>
<p>Đính kèm là bảng công tháng <strong>{{.Month}}</strong> của bạn.</p>
<p>Trân trọng,<br>Phòng Nhân sự</p>`))

func (s *mailService) SendTimesheet(ctx context.Context, a *Actor, month, filename string, workbook *bytes.Buffer) error {
	if s.mailer == nil {
		return ErrMailDisabled
	}
	to := strings.TrimSpace(a.User.Email)
	if to == "" {
		return ErrNoEmail
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := timesheetMail.Execute(&body, map[string]string{"Name": a.User.DisplayName(), "Month": month}); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Bảng công tháng %s", month))
	m.SetBody("text/html", body.String())
	data := workbook.Bytes()
	m.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}))

	if err := s.mailer.DialAndSend(m); err != nil {
		s.logger.Error("发送考勤表邮件失败", zap.String("employee_id", a.User.EmployeeID), zap.Error(err))
		return err
	}
	s.logger.Info("已发送考勤表邮件", zap.String("employee_id", a.User.EmployeeID), zap.String("month", month))
	return nil
}
