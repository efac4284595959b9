package handler

import (
	"errors"

	"tocotoco-hr/portal/internal/service"
	pkgerrors "tocotoco-hr/portal/pkg/errors"
	"tocotoco-hr/portal/pkg/response"
)

// 面向用户的业务错误，提示文本即错误本身
var businessErrors = []error{
	service.ErrInvalidInput,
	service.ErrReasonRequired,
	service.ErrNothingSelected,
	service.ErrStoreRequired,
	service.ErrNotFound,
	service.ErrOutOfRange,
	service.ErrInvalidMonth,
	service.ErrExportNoRecords,
	service.ErrMailDisabled,
	service.ErrNoEmail,
	service.ErrNoChanges,
	service.ErrWrongPassword,
	service.ErrRegistrationBusy,
	service.ErrRegistrationNotFound,
	service.ErrUnknownRequestKind,
	service.ErrInvalidWeek,
	service.ErrNoDaysSelected,
	service.ErrStoreOutOfScope,
	service.ErrNoShiftsInFile,
	service.ErrTaskNotFound,
}

const (
	msgUpstreamDown = "Không thể kết nối máy chủ, vui lòng thử lại"
	msgLoadFailed   = "Không thể tải dữ liệu"
	msgUnexpected   = "Đã xảy ra lỗi, vui lòng thử lại"
)

func isBusiness(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUpstream(err error) bool {
	return errors.Is(err, pkgerrors.ErrUpstreamUnavailable) || errors.Is(err, pkgerrors.ErrUpstreamRejected)
}

// noticeFor 把动作错误映射为提示
//   - 业务校验 → warning，原文显示
//   - 远端失败 → error，优先使用远端 message
//   - 其他 → error，通用文本
func noticeFor(err error) *response.Notice {
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		return response.Failure(service.ErrAccessDenied.Error())
	case isBusiness(err):
		return response.Warning(err.Error())
	case errors.Is(err, pkgerrors.ErrUpstreamUnavailable):
		return response.Failure(msgUpstreamDown)
	case isUpstream(err):
		return response.Failure(pkgerrors.UserMessage(err, msgUnexpected))
	}
	return response.Failure(msgUnexpected)
}

// retryMessage 视图加载失败面板上的文本
func retryMessage(err error) string {
	switch {
	case isBusiness(err):
		return err.Error()
	case errors.Is(err, pkgerrors.ErrUpstreamUnavailable):
		return msgUpstreamDown
	}
	return pkgerrors.UserMessage(err, msgLoadFailed)
}

// sessionLost 远端 token 失效或本地会话过期，需要重新登录
func sessionLost(err error) bool {
	return errors.Is(err, pkgerrors.ErrUnauthorized) || errors.Is(err, service.ErrSessionExpired)
}
