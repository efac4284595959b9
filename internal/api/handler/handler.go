package handler

import (
	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
	"tocotoco-hr/portal/internal/service"
	"tocotoco-hr/portal/internal/view"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth   *AuthHandler
	View   *ViewHandler
	Action *ActionHandler
	Export *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service, r *view.Renderer, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(svc.Auth, r, &cfg.Auth, logger),
		View:   NewViewHandler(svc, r, logger),
		Action: NewActionHandler(svc, r, logger),
		Export: NewExportHandler(svc, logger),
	}
}
