package service

import (
	"context"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/permission"
)

// QRService 门店打卡二维码
type QRService interface {
	// StoreQR 生成指向 GPS 打卡页的二维码 PNG；只能为可管理的门店生成
	StoreQR(ctx context.Context, a *Actor, storeID string, size int) ([]byte, error)
	AttendanceURL(storeID string) string
}

type qrService struct {
	dir     DirectoryService
	baseURL string
	logger  *zap.Logger
}

// NewQRService 创建 QRService 实例
func NewQRService(dir DirectoryService, baseURL string, logger *zap.Logger) QRService {
	return &qrService{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (s *qrService) AttendanceURL(storeID string) string {
	return s.baseURL + "/app/" + permission.ViewAttendance + "?store=" + url.QueryEscape(storeID)
}

func (s *qrService) StoreQR(ctx context.Context, a *Actor, storeID string, size int) ([]byte, error) {
	if err := authorize(a, permission.ViewShiftAssignment); err != nil {
		return nil, err
	}
	stores, err := s.dir.StoresForUser(ctx, a)
	if err != nil {
		return nil, err
	}
	if !storeInScope(stores, storeID) {
		return nil, ErrStoreOutOfScope
	}
	if size < 128 || size > 1024 {
		size = 256
	}

	png, err := qrcode.Encode(s.AttendanceURL(storeID), qrcode.Medium, size)
	if err != nil {
		s.logger.Error("生成二维码失败", zap.String("store_id", storeID), zap.Error(err))
		return nil, err
	}
	return png, nil
}
