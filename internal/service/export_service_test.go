package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
)

var exportEmployee = model.User{EmployeeID: "E004", FullName: "Phạm Thị Hoa"}

func TestExportTimesheet(t *testing.T) {
	svc := NewExportService(zap.NewNop())
	ts := &model.Timesheet{
		EmployeeID: "E004",
		Month:      "2025-01",
		Records: []model.TimesheetRow{
			{Date: "2025-01-02", Status: "present", CheckIn: "08:00", CheckOut: "17:00", TotalHours: model.NewFloat(8)},
			{Date: "2025-01-03", Status: "absent"},
		},
		Summary: model.TimesheetSummary{TotalHours: 8, WorkDays: 1, AbsentCount: 1},
	}

	buf, filename, err := svc.Timesheet(exportEmployee, ts)
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if filename != "bang-cong_E004_2025-01.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开工作簿失败: %v", err)
	}
	defer f.Close()

	const sheet = "Bảng công"
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		t.Fatalf("缺少工作表 %s，实际: %v", sheet, f.GetSheetList())
	}
	title, _ := f.GetCellValue(sheet, "A1")
	if !strings.Contains(title, "2025-01") || !strings.Contains(title, "Phạm Thị Hoa") {
		t.Errorf("标题不符: %s", title)
	}
	if h, _ := f.GetCellValue(sheet, "A2"); h != "Ngày" {
		t.Errorf("表头不符: %s", h)
	}
	if d, _ := f.GetCellValue(sheet, "A3"); d != "2025-01-02" {
		t.Errorf("第一行明细应为 2025-01-02，实际: %s", d)
	}
	if s, _ := f.GetCellValue(sheet, "G4"); s != "Vắng" {
		t.Errorf("缺勤状态文本不符: %s", s)
	}
	if h, _ := f.GetCellValue(sheet, "F4"); h != "-" {
		t.Errorf("缺少工时应显示 -，实际: %s", h)
	}
	if label, _ := f.GetCellValue(sheet, "A6"); label != "Tổng giờ làm" {
		t.Errorf("汇总行不符: %s", label)
	}
}

func TestExportTimesheet_NoRecords(t *testing.T) {
	svc := NewExportService(zap.NewNop())
	if _, _, err := svc.Timesheet(exportEmployee, &model.Timesheet{Month: "2025-01"}); !errors.Is(err, ErrExportNoRecords) {
		t.Errorf("期望 ErrExportNoRecords，实际: %v", err)
	}
	if _, _, err := svc.Timesheet(exportEmployee, nil); !errors.Is(err, ErrExportNoRecords) {
		t.Errorf("nil 期望 ErrExportNoRecords，实际: %v", err)
	}
}

func TestExportShiftGrid(t *testing.T) {
	svc := NewExportService(zap.NewNop())
	view := &dto.ShiftGridView{
		Store: "ST001",
		Week:  testWeek,
		Days:  []dto.ShiftDay{{Date: "2025-01-27", Weekday: "T2"}, {Date: "2025-01-28", Weekday: "T3"}},
		Rows: []dto.ShiftRow{{
			EmployeeID:   "E004",
			EmployeeName: "Phạm Thị Hoa",
			WorkingDays:  1,
			Cells: []dto.ShiftCell{
				{Date: "2025-01-27", Status: model.ShiftWorking, StartTime: "08:00", EndTime: "17:00"},
				{Date: "2025-01-28", Status: model.ShiftOff},
			},
		}},
	}

	buf, filename, err := svc.ShiftGrid(view, "Tocotoco Nguyễn Huệ")
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if filename != "phan-ca_ST001_2025-W05.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开工作簿失败: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue("Phân ca", "B3"); v != "08:00-17:00" {
		t.Errorf("上班格子不符: %s", v)
	}
	if v, _ := f.GetCellValue("Phân ca", "C3"); v != "Nghỉ" {
		t.Errorf("休息格子不符: %s", v)
	}
}

func TestExportShiftsICS(t *testing.T) {
	svc := NewExportService(zap.NewNop())
	body, filename := svc.ShiftsICS(exportEmployee, []model.ShiftAssignment{
		{Date: "2025-01-28", StartTime: "08:00", EndTime: "12:00"},
	}, time.Date(2025, 1, 20, 9, 0, 0, 0, time.Local))

	if filename != "lich-lam-viec_E004.ics" {
		t.Errorf("文件名不符: %s", filename)
	}
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "BEGIN:VEVENT") {
		t.Errorf("日历内容不完整: %s", body)
	}
}
