// Package view 视图渲染：模板嵌入二进制，视图片段注入页面外壳的 #content 容器
//
// 视图模型由 service 层准备，这里只负责渲染
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
	"tocotoco-hr/portal/internal/richtext"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// 共享片段名称
const (
	AccessDenied = "access_denied"
	ErrorRetry   = "error_retry"
	EmptyState   = "empty_state"
	Loading      = "loading"
)

// 共用模板的视图；其余视图的模板名与视图名相同
var shared = map[string]string{
	permission.ViewPersonnelApproval: "requests",
	permission.ViewShiftRequests:     "requests",
	permission.ViewTaskList:          "tasks",
	permission.ViewTaskApproval:      "tasks",
}

// TemplateFor 视图对应的片段模板名
func TemplateFor(view string) string {
	if name, ok := shared[view]; ok {
		return name
	}
	return view
}

// Renderer 模板渲染器
type Renderer struct {
	tmpl   *template.Template
	logger *zap.Logger
}

// New 解析全部嵌入模板
func New(logger *zap.Logger) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return &Renderer{tmpl: tmpl, logger: logger}, nil
}

// Has 是否定义了该模板
func (r *Renderer) Has(name string) bool {
	return r.tmpl.Lookup(name) != nil
}

// Fragment 渲染视图片段；先写入缓冲区，出错时不会输出半截 HTML
func (r *Renderer) Fragment(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("渲染片段失败", zap.String("template", name), zap.Error(err))
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Page 渲染完整页面（外壳 + 已渲染的片段）
func (r *Renderer) Page(w io.Writer, shell *Shell) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "layout", shell); err != nil {
		r.logger.Error("渲染页面失败", zap.String("view", shell.Active), zap.Error(err))
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Login 渲染登录页
func (r *Renderer) Login(w io.Writer, data *LoginPage) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "login", data); err != nil {
		r.logger.Error("渲染登录页失败", zap.Error(err))
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Static 嵌入的脚本与样式
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// ── 页面数据 ──

// NavGroup 侧边栏分组
type NavGroup struct {
	Title string
	Items []NavLink
}

// NavLink 侧边栏链接
type NavLink struct {
	View   string
	Title  string
	Icon   string
	Active bool
}

// Shell 页面外壳
type Shell struct {
	Title    string
	User     model.User
	RoleName string
	Nav      []NavGroup
	Active   string
	Query    string
	Content  template.HTML
}

// LoginPage 登录页
type LoginPage struct {
	EmployeeID string
	Remember   bool
	Error      string
	Next       string
}

// NewShell 按角色过滤导航，同组视图相邻排列
func NewShell(u model.User, active, query string, content template.HTML) *Shell {
	s := &Shell{
		Title:    "Tocotoco HR",
		User:     u,
		RoleName: permission.RoleName(u.Position),
		Active:   active,
		Query:    query,
		Content:  content,
	}
	if v, ok := permission.Lookup(active); ok {
		s.Title = v.Title + " · Tocotoco HR"
	}
	for _, v := range permission.Navigation(u.Position) {
		link := NavLink{View: v.Name, Title: v.Title, Icon: v.Icon, Active: v.Name == active}
		if n := len(s.Nav); n > 0 && s.Nav[n-1].Title == v.Group {
			s.Nav[n-1].Items = append(s.Nav[n-1].Items, link)
			continue
		}
		s.Nav = append(s.Nav, NavGroup{Title: v.Group, Items: []NavLink{link}})
	}
	return s
}

// Retry 加载失败面板：重试按钮重新请求同一视图与查询
type Retry struct {
	View    string
	Query   string
	Message string
}

// Empty 空列表提示
type Empty struct {
	Icon    string
	Message string
}

// ── 模板函数 ──

var funcs = template.FuncMap{
	"statusText":     model.StatusText,
	"requestType":    model.RequestTypeText,
	"priorityText":   model.PriorityText,
	"taskStatus":     model.TaskStatusText,
	"punchType":      model.PunchTypeText,
	"attendanceText": model.AttendanceStatusText,
	"shiftStatus":    model.ShiftStatusText,
	"fieldLabel":     model.FieldLabel,
	"roleName":       permission.RoleName,
	"normStatus":     model.NormalizeStatus,
	"join":           strings.Join,
	"richHTML":       richHTML,
	"hours":          hours,
	"money":          money,
	"clock":          clock,
	"query":          query,
	"dict":           dict,
	"eq2":            func(a, b string) bool { return strings.EqualFold(a, b) },
	"add":            func(a, b int) int { return a + b },
}

// richHTML 任务描述；渲染前再清洗一次
func richHTML(s string) template.HTML {
	return template.HTML(richtext.Sanitize(s))
}

func hours(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// money 以越南盾格式显示（千位用点分隔）
func money(v float64) string {
	n := int64(v)
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprint(n)
	var b strings.Builder
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(ch)
	}
	if neg {
		return "-" + b.String() + " ₫"
	}
	return b.String() + " ₫"
}

// clock 从 RFC3339 时间戳取 HH:MM
func clock(ts string) string {
	if t, ok := model.ParseTime(ts); ok {
		return t.Format("15:04")
	}
	return ts
}

// query 构造查询串：query "store" .Store "week" .Week
// 返回 template.URL，放在 href 的查询部分时不会再次转义 & 与 =
func query(kv ...interface{}) template.URL {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		v := fmt.Sprint(kv[i+1])
		if v != "" && v != "0" {
			q.Set(k, v)
		}
	}
	return template.URL(q.Encode())
}

// dict 在模板中向子模板传多个值
func dict(kv ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return m
}
