package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
)

// ── 通用业务错误 ──

var (
	ErrAccessDenied    = errors.New("Bạn không có quyền truy cập chức năng này")
	ErrInvalidInput    = errors.New("Dữ liệu không hợp lệ")
	ErrReasonRequired  = errors.New("Vui lòng nhập lý do")
	ErrNothingSelected = errors.New("Vui lòng chọn ít nhất một mục")
	ErrStoreRequired   = errors.New("Vui lòng chọn cửa hàng")
	ErrNotFound        = errors.New("Không tìm thấy dữ liệu")
)

// Actor 当前会话的调用者：远端 token 与缓存的用户资料
type Actor struct {
	SessionID string
	Token     string
	User      model.User
}

// Role 角色代码（大写）
func (a *Actor) Role() string {
	return strings.ToUpper(strings.TrimSpace(a.User.Position))
}

// authorize 视图级权限检查，在任何远端调用之前执行
func authorize(a *Actor, view string) error {
	if a == nil || !permission.CanView(a.User.Position, view) {
		return ErrAccessDenied
	}
	return nil
}

// ── 输入校验 ──

var validate = validator.New()

var fieldLabels = map[string]string{
	"EmployeeID":     "mã nhân viên",
	"Password":       "mật khẩu",
	"Title":          "tiêu đề",
	"Priority":       "mức độ ưu tiên",
	"Deadline":       "hạn chót",
	"Participants":   "người thực hiện",
	"Reason":         "lý do",
	"Type":           "loại",
	"TargetDate":     "ngày",
	"TargetTime":     "giờ",
	"RequestedShift": "ca muốn đổi",
	"Store":          "cửa hàng",
	"Week":           "tuần",
	"StartTime":      "giờ bắt đầu",
	"EndTime":        "giờ kết thúc",
	"Email":          "email",
	"Phone":          "số điện thoại",
	"FullName":       "họ tên",
	"Position":       "chức vụ",
	"Content":        "nội dung",
	"Amount":         "số tiền",
	"Field":          "trường thông tin",
	"NewValue":       "giá trị mới",
	"Latitude":       "vĩ độ",
	"Longitude":      "kinh độ",
}

// ValidationError 第一条校验失败的字段，errors.Is(err, ErrInvalidInput) 为 true
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// validateInput 校验 validate 标签；只报告第一个错误
func validateInput(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrInvalidInput
	}
	fe := verrs[0]
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	msg := fmt.Sprintf("Trường %s không hợp lệ", label)
	switch fe.Tag() {
	case "required", "required_if":
		msg = fmt.Sprintf("Vui lòng nhập %s", label)
	case "email":
		msg = "Email không đúng định dạng"
	case "max":
		msg = fmt.Sprintf("%s quá dài (tối đa %s ký tự)", capitalize(label), fe.Param())
	case "datetime":
		msg = fmt.Sprintf("%s không đúng định dạng", capitalize(label))
	case "oneof":
		msg = fmt.Sprintf("Giá trị %s không hợp lệ", label)
	}
	return &ValidationError{Field: fe.Field(), Tag: fe.Tag(), Message: msg}
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// ── 远端调用辅助 ──

// fetchList 读取列表接口并统一形状
func fetchList[T any](ctx context.Context, api apiclient.API, a *Actor, action string, q url.Values) ([]T, error) {
	raw, err := api.Fetch(ctx, action, a.Token, q)
	if err != nil {
		return nil, err
	}
	return apiclient.DecodeList[T](raw), nil
}

// fetchObject 读取对象接口；field 非空时取该字段
func fetchObject(ctx context.Context, api apiclient.API, a *Actor, action string, q url.Values, field string, dst interface{}) (bool, error) {
	raw, err := api.Fetch(ctx, action, a.Token, q)
	if err != nil {
		return false, err
	}
	if field != "" {
		return apiclient.DecodeField(raw, field, dst), nil
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

func pageOf(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func options(values []string, label func(string) string, selected string) []dto.Option {
	out := make([]dto.Option, 0, len(values))
	for _, v := range values {
		out = append(out, dto.Option{Value: v, Label: label(v), Selected: v == selected})
	}
	return out
}
