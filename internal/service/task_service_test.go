package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
)

// findCard 按标题查找任务卡片
func findCard(cards []dto.TaskCard, title string) *dto.TaskCard {
	for i := range cards {
		if cards[i].Title == title {
			return &cards[i]
		}
	}
	return nil
}

func TestTaskFinal_OnlyAdmin(t *testing.T) {
	for _, role := range []string{model.RoleManager, model.RoleArea, model.RoleEmployee} {
		svc, api := setupTestService(nil)
		a := actorWithRole(role)
		if err := svc.Task.FinalApprove(context.Background(), a, &dto.TaskDecision{TaskID: "TASK1"}); !errors.Is(err, ErrAccessDenied) {
			t.Errorf("%s 最终审批期望 ErrAccessDenied，实际: %v", role, err)
		}
		if err := svc.Task.FinalReject(context.Background(), a, &dto.TaskDecision{TaskID: "TASK1", Reason: "x"}); !errors.Is(err, ErrAccessDenied) {
			t.Errorf("%s 最终拒绝期望 ErrAccessDenied，实际: %v", role, err)
		}
		if api.total() != 0 {
			t.Errorf("%s 不应调用远端，实际调用 %d 次", role, api.total())
		}
	}
}

func TestTaskReject_ReasonRequired(t *testing.T) {
	svc, api := setupTestService(nil)
	ctx := context.Background()

	if err := svc.Task.Reject(ctx, actorWithRole(model.RoleManager), &dto.TaskDecision{TaskID: "TASK1", Reason: " "}); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("期望 ErrReasonRequired，实际: %v", err)
	}
	if err := svc.Task.FinalReject(ctx, actorWithRole(model.RoleAdmin), &dto.TaskDecision{TaskID: "TASK1"}); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("最终拒绝期望 ErrReasonRequired，实际: %v", err)
	}
	if api.total() != 0 {
		t.Errorf("缺少理由时不应调用远端，实际调用 %d 次", api.total())
	}

	// 审批通过不需要理由
	if err := svc.Task.Approve(ctx, actorWithRole(model.RoleManager), &dto.TaskDecision{TaskID: "TASK1"}); err != nil {
		t.Errorf("审批应成功: %v", err)
	}
	if n := api.count(apiclient.ActionApproveTask); n != 1 {
		t.Errorf("期望调用 1 次，实际: %d", n)
	}
}

func TestTaskLifecycle(t *testing.T) {
	svc, api := setupDemoService()
	ctx := context.Background()

	ql := loginAs(t, svc, api, "E002")
	id, err := svc.Task.Create(ctx, ql, &dto.TaskCreateRequest{
		Title:        "Vệ sinh quầy bar",
		Description:  `<p onclick="x()">Lau <b>kỹ</b></p><script>alert(1)</script>`,
		Priority:     model.PriorityUrgent,
		Deadline:     "2030-01-01",
		Participants: "E004,E004,E005",
	})
	if err != nil || id == "" {
		t.Fatalf("创建任务应成功: %v", err)
	}

	// 待审批列表：QL 可审批，但不能最终审批
	view, err := svc.Task.List(ctx, ql, permission.ViewTaskApproval, dto.TaskQuery{Search: "quầy"})
	if err != nil {
		t.Fatalf("获取待审批列表应成功: %v", err)
	}
	card := findCard(view.Cards, "Vệ sinh quầy bar")
	if card == nil {
		t.Fatal("新任务应出现在待审批列表")
	}
	if !card.CanApprove || card.CanFinal {
		t.Errorf("QL 期望可审批且不可最终审批，实际: %v/%v", card.CanApprove, card.CanFinal)
	}
	if strings.Contains(card.Description, "script") || strings.Contains(card.Description, "onclick") {
		t.Errorf("描述应已清洗，实际: %s", card.Description)
	}
	if len(card.Participants) != 2 {
		t.Errorf("参与人应去重，实际: %v", card.Participants)
	}

	if err := svc.Task.Approve(ctx, ql, &dto.TaskDecision{TaskID: id}); err != nil {
		t.Fatalf("审批应成功: %v", err)
	}

	// AD 对进行中的任务可以最终审批
	ad := loginAs(t, svc, api, "E001")
	detail, err := svc.Task.Detail(ctx, ad, permission.ViewTaskApproval, id)
	if err != nil {
		t.Fatalf("获取任务详情应成功: %v", err)
	}
	if detail.Status != model.TaskInProgress || !detail.CanFinal {
		t.Errorf("期望进行中且可最终审批，实际: %s/%v", detail.Status, detail.CanFinal)
	}
	if err := svc.Task.FinalApprove(ctx, ad, &dto.TaskDecision{TaskID: id, Note: "OK"}); err != nil {
		t.Fatalf("最终审批应成功: %v", err)
	}

	// 参与人在“我的任务”中看到已完成
	nv := loginAs(t, svc, api, "E004")
	mine, err := svc.Task.List(ctx, nv, permission.ViewTaskList, dto.TaskQuery{Status: model.TaskCompleted})
	if err != nil {
		t.Fatalf("获取我的任务应成功: %v", err)
	}
	if c := findCard(mine.Cards, "Vệ sinh quầy bar"); c == nil || c.CanApprove {
		t.Errorf("我的任务应包含已完成任务且不可审批，实际: %+v", c)
	}
}

func TestTaskCreate_MissingParticipants(t *testing.T) {
	svc, api := setupTestService(nil)

	_, err := svc.Task.Create(context.Background(), actorWithRole(model.RoleEmployee), &dto.TaskCreateRequest{
		Title: "Thiếu người", Priority: model.PriorityLow, Deadline: "2030-01-01", Participants: " , ",
	})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "Participants" {
		t.Errorf("期望 Participants 校验失败，实际: %v", err)
	}
	if api.total() != 0 {
		t.Errorf("不应调用远端，实际调用 %d 次", api.total())
	}
}

func TestTaskComment_ReplyUsesReplyAction(t *testing.T) {
	svc, api := setupTestService(nil)
	a := actorWithRole(model.RoleEmployee)
	ctx := context.Background()

	if err := svc.Task.Comment(ctx, a, &dto.CommentRequest{TaskID: "TASK1", Content: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("空评论期望 ErrInvalidInput，实际: %v", err)
	}
	if err := svc.Task.Comment(ctx, a, &dto.CommentRequest{TaskID: "TASK1", Content: "Ok"}); err != nil {
		t.Fatalf("评论应成功: %v", err)
	}
	if err := svc.Task.Comment(ctx, a, &dto.CommentRequest{TaskID: "TASK1", CommentID: "C001", Content: "Đã rõ"}); err != nil {
		t.Fatalf("回复应成功: %v", err)
	}
	if api.count(apiclient.ActionAddComment) != 1 || api.count(apiclient.ActionReplyToComment) != 1 {
		t.Errorf("评论/回复应分别调用 addComment/replyToComment，实际: %d/%d",
			api.count(apiclient.ActionAddComment), api.count(apiclient.ActionReplyToComment))
	}
}

func TestTaskPicker_Toggle(t *testing.T) {
	svc, api := setupDemoService()
	a := loginAs(t, svc, api, "E002")
	ctx := context.Background()

	p, err := svc.Task.Picker(ctx, a, &dto.TaskPickerRequest{Role: "participants", Selected: "E004", Toggle: "E005"})
	if err != nil {
		t.Fatalf("选择应成功: %v", err)
	}
	if p.Selected != "E004,E005" || !p.IsChecked["E005"] {
		t.Errorf("期望选中 E004,E005，实际: %q", p.Selected)
	}
	p, _ = svc.Task.Picker(ctx, a, &dto.TaskPickerRequest{Role: "participants", Selected: p.Selected, Toggle: "E004"})
	if p.Selected != "E005" {
		t.Errorf("再次点击应取消选中，实际: %q", p.Selected)
	}
	for _, u := range p.Options {
		if u.EmployeeID == "E006" {
			t.Error("候选人不应包含其它门店员工")
		}
	}
}

func TestRewards_EmployeeSeesOwnOnly(t *testing.T) {
	svc, api := setupDemoService()
	ctx := context.Background()

	nv := loginAs(t, svc, api, "E005")
	rewards, err := svc.Task.Rewards(ctx, nv, "E004")
	if err != nil {
		t.Fatalf("获取奖惩应成功: %v", err)
	}
	if len(rewards) != 0 {
		t.Errorf("NV 不能查看他人奖惩，实际: %d 条", len(rewards))
	}

	ql := loginAs(t, svc, api, "E002")
	if err := svc.Task.AddReward(ctx, ql, &dto.RewardRequest{EmployeeID: "E004", Type: "penalty", Amount: 100000, Reason: "Đi muộn"}); err != nil {
		t.Fatalf("QL 添加奖惩应成功: %v", err)
	}
	rewards, _ = svc.Task.Rewards(ctx, ql, "E004")
	if len(rewards) != 2 {
		t.Errorf("期望 E004 有 2 条奖惩，实际: %d", len(rewards))
	}
}
