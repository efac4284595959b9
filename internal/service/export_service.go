package service

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/calendar"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = errors.New("Không có dữ liệu để xuất")
	ErrExportGenerateFail = errors.New("Tạo tệp Excel thất bại")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
//   - 数据由调用方通过其他 Service 获取，这里只负责排版，因此不做权限检查
//   - 考勤表：明细行 + 汇总行；排班表：员工行 × 星期列
type ExportService interface {
	// Timesheet 导出月度考勤表为 Excel
	Timesheet(employee model.User, ts *model.Timesheet) (*bytes.Buffer, string, error)
	// ShiftGrid 导出门店一周排班表为 Excel
	ShiftGrid(view *dto.ShiftGridView, storeName string) (*bytes.Buffer, string, error)
	// ShiftsICS 导出员工排班为 iCalendar
	ShiftsICS(employee model.User, shifts []model.ShiftAssignment, now time.Time) (string, string)
	// Profile 导出个人资料与变更历史
	Profile(view *dto.PersonalView) (*bytes.Buffer, string, error)
}

type exportService struct {
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(logger *zap.Logger) ExportService {
	return &exportService{logger: logger}
}

// ── 样式 ──

type sheetStyles struct {
	title  int
	header int
	late   int
	absent int
	total  int
}

func newSheetStyles(f *excelize.File) sheetStyles {
	var st sheetStyles
	st.title, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#8E44AD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	st.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E8DAEF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	st.late, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#E67E22"},
	})
	st.absent, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#E74C3C", Bold: true},
	})
	st.total, _ = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "top", Color: "#000000", Style: 1}},
	})
	return st
}

// newBook 创建只含一个指定名称 Sheet 的工作簿
func newBook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (s *exportService) write(f *excelize.File) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// ═══════════════════════════════════════════════════════════
// Timesheet：月度考勤表
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行标题（员工 + 月份），第 2 行表头
//   - 明细：日期 | 星期 | 班次 | 上班 | 下班 | 工时 | 状态
//   - 末尾汇总：总工时、出勤天数、迟到、缺勤

func (s *exportService) Timesheet(employee model.User, ts *model.Timesheet) (*bytes.Buffer, string, error) {
	if ts == nil || len(ts.Records) == 0 {
		return nil, "", ErrExportNoRecords
	}

	const sheet = "Bảng công"
	f, err := newBook(sheet)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	defer f.Close()
	st := newSheetStyles(f)

	headers := []string{"Ngày", "Thứ", "Ca", "Giờ vào", "Giờ ra", "Số giờ", "Trạng thái"}
	widths := []float64{12, 10, 14, 10, 10, 10, 14}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheet, col, col, w)
	}

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Bảng công %s - %s (%s)", ts.Month, employee.DisplayName(), employee.EmployeeID))
	f.MergeCell(sheet, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", st.title)

	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheet, "A2", cell(colName(len(headers)-1), 2), st.header)

	row := 3
	for _, r := range ts.Records {
		weekday := ""
		if d, err := time.ParseInLocation(calendar.DateLayout, r.Date, time.Local); err == nil {
			weekday = calendar.Weekday(d)
		}
		values := []interface{}{r.Date, weekday, dash(r.ShiftName), dash(r.CheckIn), dash(r.CheckOut)}
		for i, v := range values {
			f.SetCellValue(sheet, cell(colName(i), row), v)
		}
		if r.TotalHours.Valid {
			f.SetCellValue(sheet, cell("F", row), r.TotalHours.Value)
		} else {
			f.SetCellValue(sheet, cell("F", row), "-")
		}
		f.SetCellValue(sheet, cell("G", row), model.AttendanceStatusText(r.Status))
		switch r.Status {
		case "late":
			f.SetCellStyle(sheet, cell("G", row), cell("G", row), st.late)
		case "absent":
			f.SetCellStyle(sheet, cell("G", row), cell("G", row), st.absent)
		}
		row++
	}

	// 汇总
	sum := ts.Summary
	summary := [][2]interface{}{
		{"Tổng giờ làm", sum.TotalHours},
		{"Số ngày công", sum.WorkDays},
		{"Số lần đi muộn", sum.LateCount},
		{"Số ngày vắng", sum.AbsentCount},
	}
	row++
	for i, kv := range summary {
		f.SetCellValue(sheet, cell("A", row), kv[0])
		f.MergeCell(sheet, cell("A", row), cell("E", row))
		f.SetCellValue(sheet, cell("F", row), kv[1])
		if i == 0 {
			f.SetCellStyle(sheet, cell("A", row), cell("G", row), st.total)
		}
		row++
	}

	buf, err := s.write(f)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("bang-cong_%s_%s.xlsx", employee.EmployeeID, ts.Month)
	s.logger.Info("导出考勤表", zap.String("employee_id", employee.EmployeeID), zap.String("month", ts.Month), zap.Int("rows", len(ts.Records)))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ShiftGrid：门店周排班表
// ═══════════════════════════════════════════════════════════

func (s *exportService) ShiftGrid(view *dto.ShiftGridView, storeName string) (*bytes.Buffer, string, error) {
	if view == nil || len(view.Rows) == 0 {
		return nil, "", ErrExportNoRecords
	}

	const sheet = "Phân ca"
	f, err := newBook(sheet)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	defer f.Close()
	st := newSheetStyles(f)

	last := colName(len(view.Days) + 1)
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Lịch phân ca %s - tuần %s", storeName, view.Week))
	f.MergeCell(sheet, "A1", cell(last, 1))
	f.SetCellStyle(sheet, "A1", "A1", st.title)

	f.SetColWidth(sheet, "A", "A", 24)
	f.SetCellValue(sheet, "A2", "Nhân viên")
	for i, d := range view.Days {
		col := colName(i + 1)
		f.SetColWidth(sheet, col, col, 14)
		f.SetCellValue(sheet, cell(col, 2), d.Weekday+" "+d.Date)
	}
	f.SetCellValue(sheet, cell(colName(len(view.Days)+1), 2), "Số ca")
	f.SetCellStyle(sheet, "A2", cell(last, 2), st.header)

	row := 3
	for _, r := range view.Rows {
		f.SetCellValue(sheet, cell("A", row), fmt.Sprintf("%s (%s)", r.EmployeeName, r.EmployeeID))
		for i, c := range r.Cells {
			text := "Nghỉ"
			switch c.Status {
			case model.ShiftWorking:
				text = c.StartTime + "-" + c.EndTime
			case model.ShiftIncomplete:
				text = dash(c.StartTime) + "-" + dash(c.EndTime)
			}
			f.SetCellValue(sheet, cell(colName(i+1), row), text)
		}
		f.SetCellValue(sheet, cell(last, row), r.WorkingDays)
		row++
	}

	buf, err := s.write(f)
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("phan-ca_%s_%s.xlsx", view.Store, view.Week), nil
}

// ShiftsICS 班次导出为日历订阅文件
func (s *exportService) ShiftsICS(employee model.User, shifts []model.ShiftAssignment, now time.Time) (string, string) {
	name := fmt.Sprintf("Lịch làm việc - %s", employee.DisplayName())
	body := calendar.BuildShiftCalendar(name, shifts, now)
	s.logger.Debug("导出排班日历", zap.String("employee_id", employee.EmployeeID), zap.Int("shifts", len(shifts)))
	return body, fmt.Sprintf("lich-lam-viec_%s.ics", employee.EmployeeID)
}

// ═══════════════════════════════════════════════════════════
// Profile：个人资料
// ═══════════════════════════════════════════════════════════

func (s *exportService) Profile(view *dto.PersonalView) (*bytes.Buffer, string, error) {
	if view == nil {
		return nil, "", ErrExportNoRecords
	}
	const sheet = "Thông tin"
	f, err := newBook(sheet)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	defer f.Close()
	st := newSheetStyles(f)

	u := view.User
	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "D", 28)
	f.SetCellValue(sheet, "A1", "Thông tin cá nhân")
	f.MergeCell(sheet, "A1", "D1")
	f.SetCellStyle(sheet, "A1", "A1", st.title)

	fields := [][2]string{
		{model.FieldLabel("employeeId"), u.EmployeeID},
		{model.FieldLabel("fullName"), u.FullName},
		{model.FieldLabel("position"), permission.RoleName(u.Position)},
		{model.FieldLabel("storeName"), u.StoreName},
		{model.FieldLabel("email"), u.Email},
		{model.FieldLabel("phone"), u.Phone},
		{model.FieldLabel("joinDate"), u.JoinDate},
	}
	row := 2
	for _, kv := range fields {
		f.SetCellValue(sheet, cell("A", row), kv[0])
		f.SetCellValue(sheet, cell("B", row), dash(kv[1]))
		row++
	}

	if len(view.History) > 0 {
		row++
		for i, h := range []string{"Thời gian", "Nội dung", "Lý do", "Người thực hiện"} {
			f.SetCellValue(sheet, cell(colName(i), row), h)
		}
		f.SetCellStyle(sheet, cell("A", row), cell("D", row), st.header)
		row++
		for _, h := range view.History {
			f.SetCellValue(sheet, cell("A", row), h.Timestamp)
			f.SetCellValue(sheet, cell("B", row), h.ActionText())
			f.SetCellValue(sheet, cell("C", row), dash(h.Reason))
			f.SetCellValue(sheet, cell("D", row), dash(h.ChangedBy))
			row++
		}
	}

	buf, err := s.write(f)
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("thong-tin_%s.xlsx", u.EmployeeID), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
