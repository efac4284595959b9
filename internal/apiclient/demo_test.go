package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/model"
	pkgerrors "tocotoco-hr/portal/pkg/errors"
)

// 2025-01-29 周三
var demoNow = time.Date(2025, 1, 29, 10, 0, 0, 0, time.Local)

func newTestDemo(t *testing.T) (*Demo, string) {
	t.Helper()
	d := newDemoAt(50, func() time.Time { return demoNow }, zap.NewNop())
	return d, demoLogin(t, d, "E001")
}

func demoLogin(t *testing.T, d *Demo, id string) string {
	t.Helper()
	raw, err := d.Send(context.Background(), ActionLogin, "", map[string]string{"employeeId": id, "password": DemoPassword})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	var resp struct {
		Token    string `json:"token"`
		UserData struct {
			RoleCode string `json:"role_code"`
		} `json:"userData"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Token == "" {
		t.Fatalf("登录响应异常: %s", raw)
	}
	return resp.Token
}

func TestDemo_LoginWrongPassword(t *testing.T) {
	d, _ := newTestDemo(t)
	_, err := d.Send(context.Background(), ActionLogin, "", map[string]string{"employeeId": "E001", "password": "sai"})
	if !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("期望 ErrUnauthorized, 实际 %v", err)
	}
	if got := pkgerrors.UserMessage(err, ""); got != "Mã nhân viên hoặc mật khẩu không đúng!" {
		t.Errorf("错误信息不符: %q", got)
	}
}

func TestDemo_RequiresToken(t *testing.T) {
	d, _ := newTestDemo(t)
	if _, err := d.Fetch(context.Background(), ActionGetStores, "bogus", nil); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("无效 token 应返回 ErrUnauthorized, 实际 %v", err)
	}
}

func TestDemo_ListShapesNormalize(t *testing.T) {
	d, token := newTestDemo(t)
	ctx := context.Background()

	raw, err := d.Fetch(ctx, ActionGetUsers, token, nil)
	if err != nil {
		t.Fatalf("getUsers 失败: %v", err)
	}
	users := DecodeList[model.User](raw)
	if len(users) != len(SeedUsers()) {
		t.Fatalf("期望 %d 个用户, 实际 %d", len(SeedUsers()), len(users))
	}
	if users[0].EmployeeID != "E001" {
		t.Errorf("数字键顺序错误: %s", users[0].EmployeeID)
	}

	raw, err = d.Fetch(ctx, ActionGetShiftAssignments, token, url.Values{"store": {"ST001"}, "week": {"2025-W05"}})
	if err != nil {
		t.Fatalf("getShiftAssignments 失败: %v", err)
	}
	shifts := DecodeList[model.ShiftAssignment](raw)
	// E004 在 ST001，周一到周六 6 个班次
	if len(shifts) != 6 {
		t.Errorf("期望 6 个班次, 实际 %d", len(shifts))
	}

	raw, err = d.Fetch(ctx, ActionGetApprovalTasks, token, nil)
	if err != nil {
		t.Fatalf("getApprovalTasks 失败: %v", err)
	}
	if tasks := DecodeList[model.Task](raw); len(tasks) != 2 {
		t.Errorf("期望 2 个待审批任务, 实际 %d", len(tasks))
	}
}

func TestDemo_ProcessAttendanceAlternates(t *testing.T) {
	d, _ := newTestDemo(t)
	token := demoLogin(t, d, "E004")
	ctx := context.Background()
	body := map[string]interface{}{"employeeId": "E004", "latitude": 10.7769, "longitude": 106.7009}

	var first, second model.PunchResult
	raw, err := d.Send(ctx, ActionProcessAttendance, token, body)
	if err != nil {
		t.Fatalf("第一次打卡失败: %v", err)
	}
	_ = json.Unmarshal(raw, &first)
	raw, err = d.Send(ctx, ActionProcessAttendance, token, body)
	if err != nil {
		t.Fatalf("第二次打卡失败: %v", err)
	}
	_ = json.Unmarshal(raw, &second)

	if first.Type != model.PunchCheckIn || second.Type != model.PunchCheckOut {
		t.Errorf("应先上班后下班: %s, %s", first.Type, second.Type)
	}
	if first.StoreName != "Tocotoco Nguyễn Huệ" {
		t.Errorf("最近门店错误: %s", first.StoreName)
	}

	raw, err = d.Fetch(ctx, ActionGetAttendanceHistory, token, url.Values{"employeeId": {"E004"}})
	if err != nil {
		t.Fatalf("getAttendanceHistory 失败: %v", err)
	}
	if recs := DecodeList[model.AttendanceRecord](raw); len(recs) != 2 {
		t.Errorf("今日应有 2 条打卡, 实际 %d", len(recs))
	}
}

func TestDemo_ProcessAttendanceOutOfRange(t *testing.T) {
	d, token := newTestDemo(t)
	// 约 1 km 外
	body := map[string]interface{}{"employeeId": "E001", "latitude": 10.7859, "longitude": 106.7009}
	_, err := d.Send(context.Background(), ActionProcessAttendance, token, body)
	if !errors.Is(err, pkgerrors.ErrUpstreamRejected) {
		t.Fatalf("超出范围应被拒绝, 实际 %v", err)
	}
}

func TestDemo_ApproveRegistrationOnlyOnce(t *testing.T) {
	d, token := newTestDemo(t)
	ctx := context.Background()
	body := map[string]string{"employeeId": "E101", "action": "approve"}

	if _, err := d.Send(ctx, ActionApproveRegistration, token, body); err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	if _, err := d.Send(ctx, ActionApproveRegistration, token, body); err == nil {
		t.Error("重复审批应失败")
	}
	if d.findUser("E101") == nil {
		t.Error("审批通过后应创建用户")
	}

	raw, _ := d.Fetch(ctx, ActionGetPendingRegistrations, token, url.Values{"status": {"Wait"}})
	for _, r := range DecodeList[model.Registration](raw) {
		if r.EmployeeID == "E101" {
			t.Error("已审批的注册不应出现在待审批列表")
		}
	}
}

func TestDemo_TimesheetComputed(t *testing.T) {
	d, token := newTestDemo(t)
	raw, err := d.Fetch(context.Background(), ActionGetAttendanceData, token, url.Values{"employeeId": {"E004"}, "month": {"2025-01"}})
	if err != nil {
		t.Fatalf("getAttendanceData 失败: %v", err)
	}
	var resp struct {
		Summary model.TimesheetSummary `json:"summary"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	// 01-13..01-28 除周日共 14 个工作日，两个周三迟到
	if resp.Summary.WorkDays != 14 || resp.Summary.LateCount != 2 || resp.Summary.AbsentCount != 0 {
		t.Errorf("汇总错误: %+v", resp.Summary)
	}
}

func TestDemo_RejectRequestNeedsReason(t *testing.T) {
	d, token := newTestDemo(t)
	ctx := context.Background()
	reqs := d.filterRequests(model.KindAttendance, "", model.StatusPending)
	if len(reqs) == 0 {
		t.Fatal("应有待审批的考勤请求")
	}
	if _, err := d.Send(ctx, ActionRejectAttendanceRequest, token, map[string]string{"requestId": reqs[0].ID}); err == nil {
		t.Error("缺少理由时应失败")
	}
	if _, err := d.Send(ctx, ActionApproveAttendanceRequest, token, map[string]string{"requestId": reqs[0].ID}); err != nil {
		t.Errorf("无备注审批应成功: %v", err)
	}
}

func TestDemo_SaveShiftAssignmentsDeletesOff(t *testing.T) {
	d, token := newTestDemo(t)
	ctx := context.Background()
	body := map[string]interface{}{
		"storeId": "ST001",
		"week":    "2025-W05",
		"assignments": []map[string]string{
			{"employeeId": "E004", "date": "2025-01-27"},
			{"employeeId": "E002", "date": "2025-01-27", "startTime": "09:00", "endTime": "18:00"},
		},
	}
	if _, err := d.Send(ctx, ActionSaveShiftAssignments, token, body); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	raw, _ := d.Fetch(ctx, ActionGetShiftAssignments, token, url.Values{"store": {"ST001"}, "week": {"2025-W05"}})
	var e004, e002 int
	for _, s := range DecodeList[model.ShiftAssignment](raw) {
		switch s.EmployeeID {
		case "E004":
			e004++
		case "E002":
			e002++
		}
	}
	if e004 != 5 || e002 != 1 {
		t.Errorf("期望 E004=5 E002=1, 实际 %d %d", e004, e002)
	}
}

func TestDemo_CommentReply(t *testing.T) {
	d, token := newTestDemo(t)
	ctx := context.Background()
	taskID := d.tasks[1].ID
	if _, err := d.Send(ctx, ActionReplyToComment, token, map[string]string{"taskId": taskID, "commentId": "C001", "content": "Cảm ơn"}); err != nil {
		t.Fatalf("回复失败: %v", err)
	}
	if n := len(d.tasks[1].Comments[0].Replies); n != 1 {
		t.Errorf("期望 1 条回复, 实际 %d", n)
	}
	if _, err := d.Send(ctx, ActionReplyToComment, token, map[string]string{"taskId": taskID, "commentId": "none", "content": "x"}); err == nil {
		t.Error("回复不存在的评论应失败")
	}
}
