package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/calendar"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/service"
	"tocotoco-hr/portal/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxICSWeeks     = 8
	defaultQRSize   = 256
)

// ExportHandler 文件下载：Excel、iCalendar、门店二维码
type ExportHandler struct {
	svc    *service.Service
	now    func() time.Time
	logger *zap.Logger
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(svc *service.Service, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, now: time.Now, logger: logger}
}

// Timesheet 导出月度考勤表
// GET /export/timesheet.xlsx?month=2025-01&employeeId=E004
func (h *ExportHandler) Timesheet(c *gin.Context) {
	a, ok := MustGetActor(c)
	if !ok {
		return
	}
	var q dto.TimesheetQuery
	_ = c.ShouldBindQuery(&q)

	ts, err := h.svc.Attendance.Timesheet(c.Request.Context(), a, q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	buf, filename, err := h.svc.Export.Timesheet(ts.Employee, &ts.Timesheet)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	attachment(c, filename, xlsxContentType, buf)
}

// ShiftGrid 导出门店一周排班表
// GET /export/shifts.xlsx?store=ST001&week=2025-W05
func (h *ExportHandler) ShiftGrid(c *gin.Context) {
	a, ok := MustGetActor(c)
	if !ok {
		return
	}
	var q dto.ShiftQuery
	_ = c.ShouldBindQuery(&q)
	if q.Store == "" {
		response.BadRequest(c, 10001, service.ErrStoreRequired.Error())
		return
	}

	grid, err := h.svc.Shift.LoadAssignments(c.Request.Context(), a, q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	storeName := grid.Store
	for _, s := range grid.Stores {
		if s.StoreID == grid.Store {
			storeName = s.StoreName
			break
		}
	}
	buf, filename, err := h.svc.Export.ShiftGrid(grid, storeName)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	attachment(c, filename, xlsxContentType, buf)
}

// ShiftsICS 导出个人排班日历
// GET /export/shifts.ics?week=2025-W05&weeks=4
func (h *ExportHandler) ShiftsICS(c *gin.Context) {
	a, ok := MustGetActor(c)
	if !ok {
		return
	}
	now := h.now()
	week := c.Query("week")
	if week == "" {
		week = calendar.CurrentWeek(now)
	}
	dates, err := calendar.WeekDates(week)
	if err != nil {
		response.BadRequest(c, 10001, service.ErrInvalidWeek.Error())
		return
	}
	weeks, _ := strconv.Atoi(c.Query("weeks"))
	if weeks < 1 {
		weeks = 1
	}
	if weeks > maxICSWeeks {
		weeks = maxICSWeeks
	}

	from := dates[0]
	shifts, err := h.svc.Shift.ShiftsInRange(c.Request.Context(), a, from, from.AddDate(0, 0, 7*weeks))
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	body, filename := h.svc.Export.ShiftsICS(a.User, shifts, now)
	attachment(c, filename, "text/calendar; charset=utf-8", bytes.NewBufferString(body))
}

// Profile 导出个人资料
// GET /export/profile.xlsx
func (h *ExportHandler) Profile(c *gin.Context) {
	a, ok := MustGetActor(c)
	if !ok {
		return
	}
	pv, err := h.svc.Personal.View(c.Request.Context(), a)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	buf, filename, err := h.svc.Export.Profile(pv)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	attachment(c, filename, xlsxContentType, buf)
}

// StoreQR 门店打卡二维码
// GET /stores/:id/qr.png?size=256
func (h *ExportHandler) StoreQR(c *gin.Context) {
	a, ok := MustGetActor(c)
	if !ok {
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	png, err := h.svc.QR.StoreQR(c.Request.Context(), a, c.Param("id"), size)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

// attachment 设置下载响应头
func attachment(c *gin.Context, filename, contentType string, buf *bytes.Buffer) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case sessionLost(err):
		response.Unauthorized(c, 10002, service.ErrSessionExpired.Error())
	case errors.Is(err, service.ErrExportNoRecords), errors.Is(err, service.ErrNotFound):
		response.NotFound(c, 16101, err.Error())
	case errors.Is(err, service.ErrAccessDenied), errors.Is(err, service.ErrStoreOutOfScope):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, service.ErrInvalidMonth), errors.Is(err, service.ErrInvalidWeek), errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, 10001, err.Error())
	case isUpstream(err):
		response.Error(c, http.StatusBadGateway, 50200, retryMessage(err))
	default:
		h.logger.Error("导出失败", zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.InternalError(c)
	}
}
