// Package richtext 任务描述编辑器的工具栏定义与 HTML 清洗
package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Command 工具栏按钮；Name 为浏览器原生编辑命令名
type Command struct {
	Name   string
	Label  string
	Title  string
	Prompt string // 非空时执行前弹出输入框
}

// Toolbar 按分组排列的命令
var Toolbar = [][]Command{
	{
		{Name: "bold", Label: "B", Title: "In đậm"},
		{Name: "italic", Label: "I", Title: "In nghiêng"},
		{Name: "underline", Label: "U", Title: "Gạch chân"},
		{Name: "strikeThrough", Label: "S", Title: "Gạch ngang"},
	},
	{
		{Name: "insertUnorderedList", Label: "•", Title: "Danh sách"},
		{Name: "insertOrderedList", Label: "1.", Title: "Danh sách số"},
	},
	{
		{Name: "justifyLeft", Label: "⇤", Title: "Căn trái"},
		{Name: "justifyCenter", Label: "⇔", Title: "Căn giữa"},
		{Name: "justifyRight", Label: "⇥", Title: "Căn phải"},
	},
	{
		{Name: "foreColor", Label: "A", Title: "Màu chữ", Prompt: "Nhập mã màu (vd: #e74c3c)"},
		{Name: "fontSize", Label: "Aa", Title: "Cỡ chữ", Prompt: "Cỡ chữ (1-7)"},
		{Name: "createLink", Label: "🔗", Title: "Chèn liên kết", Prompt: "Nhập đường dẫn"},
		{Name: "insertTable", Label: "▦", Title: "Chèn bảng"},
	},
	{
		{Name: "undo", Label: "↶", Title: "Hoàn tác"},
		{Name: "redo", Label: "↷", Title: "Làm lại"},
		{Name: "removeFormat", Label: "⌫", Title: "Xóa định dạng"},
	},
}

var (
	policy   = newPolicy()
	tagStrip = bluemonday.StrictPolicy()
	spaces   = regexp.MustCompile(`\s+`)
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("span", "p", "div", "td", "th", "font")
	p.AllowAttrs("color", "size").OnElements("font")
	p.AllowElements("u", "s", "strike", "font")
	p.AllowStyles("color", "text-align", "font-size", "font-weight", "font-style", "text-decoration").Globally()
	return p
}

// Sanitize 清洗编辑器输出的 HTML，发往远端前调用
func Sanitize(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

// PlainText 去掉全部标签并还原实体，用于摘要、搜索与校验
// 返回值是未转义文本，输出到页面时由模板转义
func PlainText(s string) string {
	text := html.UnescapeString(tagStrip.Sanitize(s))
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}

// Excerpt 截取纯文本摘要
func Excerpt(s string, n int) string {
	r := []rune(PlainText(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
