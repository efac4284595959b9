package errors

import (
	"errors"
	"fmt"
)

// ── 远端接口通用错误 ──

var (
	// ErrUpstreamUnavailable 网络层失败（超时、连接拒绝等），视图渲染为“重试”面板
	ErrUpstreamUnavailable = errors.New("không thể kết nối máy chủ")
	// ErrUpstreamRejected 远端返回非 2xx 或 success=false
	ErrUpstreamRejected = errors.New("máy chủ từ chối yêu cầu")
	// ErrUnauthorized 远端 token 失效，需要重新登录
	ErrUnauthorized = errors.New("phiên đăng nhập đã hết hạn")
)

// UpstreamError 携带远端 message 的错误，Unwrap 到上面的哨兵错误
type UpstreamError struct {
	Action  string
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%s): %s", e.Action, e.Err, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UserMessage 返回可直接展示给用户的提示，优先使用远端 message
func UserMessage(err error, fallback string) string {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}
