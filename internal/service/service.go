package service

import (
	"time"

	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/cache"
	"tocotoco-hr/portal/internal/repository"
	"tocotoco-hr/portal/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Directory    DirectoryService
	Shift        ShiftService
	Attendance   AttendanceService
	Task         TaskService
	Request      RequestService
	Registration RegistrationService
	Permission   PermissionService
	Personal     PersonalService
	Analytics    AnalyticsService
	Export       ExportService
	Mail         MailService
	QR           QRService
}

// Deps 构建 Service 所需的外部依赖
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	API       apiclient.API
	Cache     cache.Store
	JWT       *jwt.Manager
	Blacklist TokenBlacklist // Redis 不可用时为 nil
	Mailer    Mailer         // SMTP 未配置时为 nil
	Now       func() time.Time
}

// NewService 创建 Service 聚合
func NewService(d Deps, logger *zap.Logger) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	cfg := d.Config
	pageSize := cfg.UI.PageSize

	dir := NewDirectoryService(d.API, d.Cache, &cfg.Cache, logger)
	export := NewExportService(logger)

	return &Service{
		Auth:         NewAuthService(d.Repo, d.API, d.JWT, d.Blacklist, logger),
		Directory:    dir,
		Shift:        NewShiftService(d.API, dir, d.Now, logger),
		Attendance:   NewAttendanceService(d.API, dir, &cfg.Attendance, d.Now, logger),
		Task:         NewTaskService(d.API, dir, pageSize, d.Now, logger),
		Request:      NewRequestService(d.API, pageSize, logger),
		Registration: NewRegistrationService(d.API, dir, pageSize, d.Now, logger),
		Permission:   NewPermissionService(d.API, dir, d.Repo, pageSize, logger),
		Personal:     NewPersonalService(d.API, dir, d.Repo, logger),
		Analytics:    NewAnalyticsService(d.API, dir, logger),
		Export:       export,
		Mail:         NewMailService(d.Mailer, cfg.Mail.From, logger),
		QR:           NewQRService(dir, cfg.Server.BaseURL, logger),
	}
}
