package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
)

// ST001 坐标
const (
	st001Lat = 10.7769
	st001Lng = 106.7009
)

func TestLocate_States(t *testing.T) {
	svc, api := setupDemoService()
	a := loginAs(t, svc, api, "E004")
	ctx := context.Background()

	cases := []struct {
		name  string
		req   dto.LocateRequest
		state string
		punch bool
	}{
		{"门店内", dto.LocateRequest{Latitude: st001Lat, Longitude: st001Lng}, dto.LocateSuccess, true},
		{"约 1km 外", dto.LocateRequest{Latitude: st001Lat + 0.009, Longitude: st001Lng}, dto.LocateWarning, false},
		{"浏览器拒绝定位", dto.LocateRequest{Error: "1"}, dto.LocateError, false},
		{"坐标越界", dto.LocateRequest{Latitude: 120, Longitude: 0}, dto.LocateError, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.Attendance.Locate(ctx, a, tc.req)
			if err != nil {
				t.Fatalf("定位应成功: %v", err)
			}
			if res.State != tc.state || res.CanPunch != tc.punch {
				t.Errorf("期望 %s/%v，实际: %s/%v (%s)", tc.state, tc.punch, res.State, res.CanPunch, res.Message)
			}
		})
	}

	res, _ := svc.Attendance.Locate(ctx, a, dto.LocateRequest{Latitude: st001Lat, Longitude: st001Lng})
	if res.Store == nil || res.Store.StoreID != "ST001" {
		t.Errorf("最近门店应为 ST001，实际: %+v", res.Store)
	}
}

func TestLocate_GeoErrorSkipsRemote(t *testing.T) {
	svc, api := setupTestService(nil)

	res, err := svc.Attendance.Locate(context.Background(), actorWithRole(model.RoleEmployee), dto.LocateRequest{Error: "timeout"})
	if err != nil {
		t.Fatalf("定位应返回错误状态而不是 error: %v", err)
	}
	if res.State != dto.LocateError || res.Message != "Hết thời gian lấy vị trí, vui lòng thử lại" {
		t.Errorf("错误状态不符: %+v", res)
	}
	if api.total() != 0 {
		t.Errorf("不应调用远端，实际调用 %d 次", api.total())
	}
}

func TestLocate_NoStoreHasCoordinates(t *testing.T) {
	svc, api := setupTestService(nil)
	api.onFetch = func(action string, _ url.Values) (json.RawMessage, error) {
		if action == apiclient.ActionGetStores {
			return json.RawMessage(`[{"storeId":"ST004","storeName":"Tocotoco Thủ Đức","latitude":"","longitude":null}]`), nil
		}
		return json.RawMessage(`[]`), nil
	}

	res, err := svc.Attendance.Locate(context.Background(), actorWithRole(model.RoleEmployee), dto.LocateRequest{Latitude: st001Lat, Longitude: st001Lng})
	if err != nil {
		t.Fatalf("定位应成功: %v", err)
	}
	if res.State != dto.LocateError {
		t.Errorf("没有坐标的门店应返回 error 状态，实际: %s", res.State)
	}
}

func TestPunch_OutOfRangeSkipsRemote(t *testing.T) {
	svc, api := setupDemoService()
	a := loginAs(t, svc, api, "E004")

	_, _, err := svc.Attendance.Punch(context.Background(), a, dto.LocateRequest{Latitude: st001Lat + 0.009, Longitude: st001Lng})
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("期望 ErrOutOfRange，实际: %v", err)
	}
	if n := api.count(apiclient.ActionProcessAttendance); n != 0 {
		t.Errorf("超出半径不应提交打卡，实际调用 %d 次", n)
	}
}

func TestPunch_AlternatesAndRefreshesHistory(t *testing.T) {
	svc, api := setupDemoService()
	a := loginAs(t, svc, api, "E004")
	ctx := context.Background()
	at := dto.LocateRequest{Latitude: st001Lat, Longitude: st001Lng}

	first, history, err := svc.Attendance.Punch(ctx, a, at)
	if err != nil {
		t.Fatalf("打卡应成功: %v", err)
	}
	if first.Type != model.PunchCheckIn {
		t.Errorf("第一次应为上班卡，实际: %s", first.Type)
	}
	if len(history) != 1 {
		t.Errorf("打卡后应刷新当天记录，实际: %d 条", len(history))
	}

	second, history, err := svc.Attendance.Punch(ctx, a, at)
	if err != nil {
		t.Fatalf("第二次打卡应成功: %v", err)
	}
	if second.Type != model.PunchCheckOut {
		t.Errorf("第二次应为下班卡，实际: %s", second.Type)
	}
	if len(history) != 2 {
		t.Errorf("期望 2 条记录，实际: %d", len(history))
	}
}

func TestSummarize(t *testing.T) {
	rows := []model.TimesheetRow{
		{Date: "2025-01-02", Status: "present", TotalHours: model.NewFloat(8)},
		{Date: "2025-01-03", Status: "late", TotalHours: model.NewFloat(7.6)},
		{Date: "2025-01-04", Status: "absent"},
		{Date: "2025-01-05", Status: "overtime", TotalHours: model.NewFloat(10)},
		{Date: "2025-01-06", Status: "off"},
	}
	sum := Summarize(rows)
	if sum.WorkDays != 3 || sum.LateCount != 1 || sum.AbsentCount != 1 {
		t.Errorf("汇总计数不符: %+v", sum)
	}
	if sum.TotalHours != 25.6 {
		t.Errorf("期望总工时 25.6，实际: %v", sum.TotalHours)
	}
}

func TestTimesheet_LocalSummaryWhenMissing(t *testing.T) {
	svc, api := setupTestService(nil)
	api.onFetch = func(action string, _ url.Values) (json.RawMessage, error) {
		if action == apiclient.ActionGetTimesheet {
			return json.RawMessage(`{"0":{"date":"2025-01-03","status":"late","totalHours":"7.5"},"1":{"date":"2025-01-02","status":"present","totalHours":8}}`), nil
		}
		return json.RawMessage(`[]`), nil
	}

	view, err := svc.Attendance.Timesheet(context.Background(), actorWithRole(model.RoleEmployee), dto.TimesheetQuery{Month: "2025-01"})
	if err != nil {
		t.Fatalf("获取考勤表应成功: %v", err)
	}
	ts := view.Timesheet
	if len(ts.Records) != 2 || ts.Records[0].Date != "2025-01-02" {
		t.Fatalf("明细应按日期排序，实际: %+v", ts.Records)
	}
	if ts.Summary.WorkDays != 2 || ts.Summary.LateCount != 1 || ts.Summary.TotalHours != 15.5 {
		t.Errorf("本地汇总不符: %+v", ts.Summary)
	}
	if view.PrevMonth != "2024-12" || view.NextMonth != "2025-02" {
		t.Errorf("月份导航不符: %s / %s", view.PrevMonth, view.NextMonth)
	}
}

func TestTimesheet_Scope(t *testing.T) {
	svc, api := setupDemoService()
	ctx := context.Background()

	// NV 传入他人 ID 时仍只看自己
	nv := loginAs(t, svc, api, "E004")
	view, err := svc.Attendance.Timesheet(ctx, nv, dto.TimesheetQuery{EmployeeID: "E005"})
	if err != nil {
		t.Fatalf("NV 查看考勤表应成功: %v", err)
	}
	if view.Timesheet.EmployeeID != "E004" || len(view.Employees) != 0 {
		t.Errorf("NV 只能看自己，实际: %s", view.Timesheet.EmployeeID)
	}

	// QL 只能选择管辖门店内的员工
	ql := loginAs(t, svc, api, "E002")
	view, err = svc.Attendance.Timesheet(ctx, ql, dto.TimesheetQuery{EmployeeID: "E005"})
	if err != nil {
		t.Fatalf("QL 查看 ST002 员工应成功: %v", err)
	}
	if view.Employee.EmployeeID != "E005" {
		t.Errorf("期望 E005，实际: %s", view.Employee.EmployeeID)
	}
	if _, err := svc.Attendance.Timesheet(ctx, ql, dto.TimesheetQuery{EmployeeID: "E006"}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("越权员工期望 ErrAccessDenied，实际: %v", err)
	}
}

func TestTimesheet_InvalidMonth(t *testing.T) {
	svc, api := setupTestService(nil)
	_, err := svc.Attendance.Timesheet(context.Background(), actorWithRole(model.RoleEmployee), dto.TimesheetQuery{Month: "2025-13"})
	if !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("期望 ErrInvalidMonth，实际: %v", err)
	}
	if api.total() != 0 {
		t.Errorf("不应调用远端，实际调用 %d 次", api.total())
	}
}

func TestSubmitRequest(t *testing.T) {
	svc, api := setupDemoService()
	a := loginAs(t, svc, api, "E004")
	ctx := context.Background()

	_, err := svc.Attendance.SubmitRequest(ctx, a, &dto.AttendanceRequestForm{Type: model.RequestShiftChange, TargetDate: "2025-02-03", Reason: "Đi học"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "RequestedShift" {
		t.Errorf("调班缺少目标班次应校验失败，实际: %v", err)
	}

	id, err := svc.Attendance.SubmitRequest(ctx, a, &dto.AttendanceRequestForm{Type: model.RequestLeave, TargetDate: "2025-02-03", Reason: "Việc gia đình"})
	if err != nil || id == "" {
		t.Fatalf("提交应成功并返回 ID: %v", err)
	}
	view, err := svc.Attendance.RequestForm(ctx, a)
	if err != nil {
		t.Fatalf("获取申请列表应成功: %v", err)
	}
	found := false
	for _, r := range view.Requests {
		if r.ID == id {
			found = true
		}
	}
	if !found {
		t.Error("新申请应出现在列表中")
	}
}
