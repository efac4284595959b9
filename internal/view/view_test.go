package view

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(zap.NewNop())
	if err != nil {
		t.Fatalf("期望模板解析成功，实际: %v", err)
	}
	return r
}

func TestNew_EveryViewHasTemplate(t *testing.T) {
	r := newTestRenderer(t)
	for _, v := range permission.Navigation(model.RoleAdmin) {
		if !r.Has(TemplateFor(v.Name)) {
			t.Errorf("视图 %s 缺少模板 %s", v.Name, TemplateFor(v.Name))
		}
	}
	for _, name := range []string{AccessDenied, ErrorRetry, EmptyState, Loading, "locate_panel", "shift_grid", "picker", "task_detail", "registration_list", "registration_detail", "permission_edit", "user_card", "attendance_history"} {
		if !r.Has(name) {
			t.Errorf("缺少片段模板 %s", name)
		}
	}
}

func TestTemplateFor_SharedViews(t *testing.T) {
	if TemplateFor(permission.ViewShiftRequests) != "requests" || TemplateFor(permission.ViewPersonnelApproval) != "requests" {
		t.Error("期望两类请求审批共用 requests 模板")
	}
	if TemplateFor(permission.ViewTaskApproval) != "tasks" {
		t.Error("期望任务审批使用 tasks 模板")
	}
	if TemplateFor(permission.ViewHome) != "home" {
		t.Error("期望 home 使用同名模板")
	}
}

func TestFragment_EmptyRequests(t *testing.T) {
	r := newTestRenderer(t)
	html, err := r.Fragment("requests", &dto.RequestListView{Kind: model.KindShift, Title: "Yêu cầu đổi ca"})
	if err != nil {
		t.Fatalf("期望渲染成功，实际: %v", err)
	}
	s := string(html)
	if !strings.Contains(s, "empty-state") {
		t.Error("期望空列表渲染 empty-state")
	}
	if !strings.Contains(s, `data-view-form="shift_requests"`) {
		t.Error("期望筛选表单指向 shift_requests")
	}
	if strings.Contains(s, "reward.add") {
		t.Error("期望调班审批不显示奖惩表单")
	}
}

func TestFragment_RequestsPendingActions(t *testing.T) {
	r := newTestRenderer(t)
	html, err := r.Fragment("requests", &dto.RequestListView{
		Kind:  model.KindAttendance,
		Title: "Duyệt nhân sự",
		Items: []model.Request{
			{ID: "R1", Type: model.RequestLeave, Status: model.StatusPending, EmployeeName: "An"},
			{ID: "R2", Type: model.RequestLeave, Status: model.StatusApproved, EmployeeName: "Bình"},
		},
		Page:  1,
		Pages: []int{1, 2},
	})
	if err != nil {
		t.Fatalf("期望渲染成功，实际: %v", err)
	}
	s := string(html)
	if strings.Count(s, `data-action="request.approve"`) != 1 {
		t.Error("期望只有待审批的请求显示审批按钮")
	}
	if !strings.Contains(s, "reward.add") {
		t.Error("期望人事审批显示奖惩表单")
	}
	if !strings.Contains(s, "page=2") {
		t.Error("期望多页时渲染分页")
	}
}

func TestFragment_ShiftGrid(t *testing.T) {
	r := newTestRenderer(t)
	html, err := r.Fragment("shift_grid", &dto.ShiftGridView{
		Store: "ST001",
		Week:  "2025-W05",
		Days:  []dto.ShiftDay{{Date: "2025-01-27", Weekday: "T2"}},
		Rows: []dto.ShiftRow{{
			EmployeeID:   "E004",
			EmployeeName: "Phạm Thị Hoa",
			Selected:     true,
			Cells:        []dto.ShiftCell{{Date: "2025-01-27", StartTime: "08:00", EndTime: "17:00", Status: model.ShiftWorking}},
			WorkingDays:  1,
		}},
		Selected:      "E004",
		SelectedNames: []string{"Phạm Thị Hoa"},
	})
	if err != nil {
		t.Fatalf("期望渲染成功，实际: %v", err)
	}
	s := string(html)
	if !strings.Contains(s, "08:00-17:00") {
		t.Error("期望排班格子显示上下班时间")
	}
	if !strings.Contains(s, "Đã chọn (1): Phạm Thị Hoa") {
		t.Errorf("期望已选摘要与选择集一致，实际: %s", s)
	}
}

func TestFragment_TaskDescriptionSanitized(t *testing.T) {
	r := newTestRenderer(t)
	card := &dto.TaskCard{Task: model.Task{ID: "T1", Title: "Kiểm kho", Description: `<b>gấp</b><script>alert(1)</script>`}}
	html, err := r.Fragment("task_detail", map[string]interface{}{"card": card, "view": permission.ViewTaskList})
	if err != nil {
		t.Fatalf("期望渲染成功，实际: %v", err)
	}
	s := string(html)
	if strings.Contains(s, "<script>") {
		t.Error("期望描述中的脚本被清除")
	}
	if !strings.Contains(s, "<b>gấp</b>") {
		t.Error("期望保留允许的格式标签")
	}
}

func TestFragment_AccessDenied(t *testing.T) {
	r := newTestRenderer(t)
	html, err := r.Fragment(AccessDenied, nil)
	if err != nil {
		t.Fatalf("期望渲染成功，实际: %v", err)
	}
	if !strings.Contains(string(html), "Không có quyền truy cập") {
		t.Error("期望渲染无权限提示")
	}
}

func TestFragment_ErrorRetry(t *testing.T) {
	r := newTestRenderer(t)
	html, err := r.Fragment(ErrorRetry, &Retry{View: "timesheet", Query: "month=2025-01"})
	if err != nil {
		t.Fatalf("期望渲染成功，实际: %v", err)
	}
	s := string(html)
	if !strings.Contains(s, `data-view="timesheet"`) || !strings.Contains(s, `data-query="month=2025-01"`) {
		t.Errorf("期望重试按钮携带原视图与查询，实际: %s", s)
	}
}

func TestPage_RendersShell(t *testing.T) {
	r := newTestRenderer(t)
	u := model.User{EmployeeID: "E004", FullName: "Phạm Thị Hoa", Position: model.RoleEmployee}
	var buf bytes.Buffer
	if err := r.Page(&buf, NewShell(u, permission.ViewHome, "", "<p>xin chào</p>")); err != nil {
		t.Fatalf("期望渲染成功，实际: %v", err)
	}
	s := buf.String()
	if !strings.Contains(s, "<p>xin chào</p>") {
		t.Error("期望页面包含视图片段")
	}
	if strings.Contains(s, `data-view="permission"`) {
		t.Error("期望 NV 导航中不出现权限管理")
	}
}

func TestNewShell_GroupsConsecutive(t *testing.T) {
	u := model.User{EmployeeID: "E004", Position: model.RoleEmployee}
	s := NewShell(u, permission.ViewTimesheet, "month=2025-01", "")

	if s.Title != "Bảng công · Tocotoco HR" {
		t.Errorf("期望标题包含视图名，实际: %s", s.Title)
	}
	if len(s.Nav) != 4 {
		t.Fatalf("期望 4 个导航分组，实际: %d", len(s.Nav))
	}
	if s.Nav[1].Title != "Chấm công" || len(s.Nav[1].Items) != 4 {
		t.Errorf("期望考勤分组包含 4 项，实际: %+v", s.Nav[1])
	}
	if !s.Nav[1].Items[0].Active {
		t.Error("期望当前视图标记为 active")
	}
}

func TestMoney(t *testing.T) {
	cases := map[float64]string{
		0:        "0 ₫",
		500:      "500 ₫",
		1500000:  "1.500.000 ₫",
		-200000:  "-200.000 ₫",
		12345678: "12.345.678 ₫",
	}
	for in, want := range cases {
		if got := money(in); got != want {
			t.Errorf("money(%v) 期望 %q，实际: %q", in, want, got)
		}
	}
}

func TestQuery_SkipsEmpty(t *testing.T) {
	got := string(query("store", "ST001", "week", "", "page", 0, "search", "a b"))
	if got != "search=a+b&store=ST001" {
		t.Errorf("期望跳过空值并编码，实际: %s", got)
	}
}

func TestClock(t *testing.T) {
	if got := clock("2025-01-27T08:05:00+07:00"); got != "08:05" {
		t.Errorf("期望 08:05，实际: %s", got)
	}
	if got := clock("không phải giờ"); got != "không phải giờ" {
		t.Errorf("期望无法解析时原样返回，实际: %s", got)
	}
}
