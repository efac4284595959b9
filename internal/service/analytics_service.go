package service

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/dto"
	"tocotoco-hr/portal/internal/model"
	"tocotoco-hr/portal/internal/permission"
)

// AnalyticsService 首页概览与统计
type AnalyticsService interface {
	// Dashboard 首页：管理角色显示全局统计，NV 显示个人统计
	Dashboard(ctx context.Context, a *Actor) (*dto.DashboardView, error)
	// Analytics 统计页：按门店拆分，只保留调用者可管理的门店
	Analytics(ctx context.Context, a *Actor) (*dto.DashboardView, error)
}

type analyticsService struct {
	api    apiclient.API
	dir    DirectoryService
	logger *zap.Logger
}

// NewAnalyticsService 创建 AnalyticsService 实例
func NewAnalyticsService(api apiclient.API, dir DirectoryService, logger *zap.Logger) AnalyticsService {
	return &analyticsService{api: api, dir: dir, logger: logger}
}

func (s *analyticsService) base(a *Actor) *dto.DashboardView {
	view := &dto.DashboardView{User: a.User, RoleName: permission.RoleName(a.User.Position)}
	for _, v := range permission.Navigation(a.User.Position) {
		if v.Name == permission.ViewHome {
			continue
		}
		view.Nav = append(view.Nav, dto.NavItem{View: v.Name, Title: v.Title, Icon: v.Icon})
	}
	return view
}

func (s *analyticsService) Dashboard(ctx context.Context, a *Actor) (*dto.DashboardView, error) {
	if err := authorize(a, permission.ViewHome); err != nil {
		return nil, err
	}
	view := s.base(a)

	if a.User.HasRole(model.RoleEmployee) {
		ps, err := s.personal(ctx, a)
		if err != nil {
			return nil, err
		}
		view.Personal = ps
		view.Cards = personalCards(ps)
		return view, nil
	}

	stats, err := s.stats(ctx, a)
	if err != nil {
		return nil, err
	}
	view.Stats = stats
	view.Cards = dashboardCards(stats)
	return view, nil
}

func (s *analyticsService) Analytics(ctx context.Context, a *Actor) (*dto.DashboardView, error) {
	if err := authorize(a, permission.ViewAnalytics); err != nil {
		return nil, err
	}
	stats, err := s.stats(ctx, a)
	if err != nil {
		return nil, err
	}

	if !a.User.HasRole(model.RoleAdmin) {
		scoped, err := s.dir.StoresForUser(ctx, a)
		if err != nil {
			return nil, err
		}
		in := make(map[string]bool, len(scoped))
		for _, st := range scoped {
			in[st.StoreID] = true
		}
		kept := stats.Stores[:0]
		for _, st := range stats.Stores {
			if in[st.StoreID] {
				kept = append(kept, st)
			}
		}
		stats.Stores = kept
	}

	view := s.base(a)
	view.Stats = stats
	view.Cards = dashboardCards(stats)
	return view, nil
}

func (s *analyticsService) stats(ctx context.Context, a *Actor) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	ok, err := fetchObject(ctx, s.api, a, apiclient.ActionGetDashboardStats, nil, "", &stats)
	if err != nil {
		s.logger.Error("获取概览统计失败", zap.Error(err))
		return nil, err
	}
	if !ok {
		return &model.DashboardStats{}, nil
	}
	return &stats, nil
}

func (s *analyticsService) personal(ctx context.Context, a *Actor) (*model.PersonalStats, error) {
	var ps model.PersonalStats
	_, err := fetchObject(ctx, s.api, a, apiclient.ActionGetPersonalStats,
		url.Values{"employeeId": {a.User.EmployeeID}}, "stats", &ps)
	if err != nil {
		s.logger.Error("获取个人统计失败", zap.String("employee_id", a.User.EmployeeID), zap.Error(err))
		return nil, err
	}
	return &ps, nil
}

func dashboardCards(st *model.DashboardStats) []dto.StatCard {
	return []dto.StatCard{
		{Label: "Tổng nhân viên", Value: fmt.Sprint(st.TotalEmployees), Icon: "👥"},
		{Label: "Ca làm hôm nay", Value: fmt.Sprint(st.TodaySchedules), Icon: "📅"},
		{Label: "Chờ duyệt", Value: fmt.Sprint(st.PendingRequests), Icon: "⏳"},
		{Label: "Đã xử lý", Value: fmt.Sprint(st.WeeklyProcessed), Icon: "✅"},
	}
}

func personalCards(ps *model.PersonalStats) []dto.StatCard {
	return []dto.StatCard{
		{Label: "Ngày công tháng này", Value: fmt.Sprint(ps.WorkDaysThisMonth), Icon: "📅"},
		{Label: "Tổng giờ làm", Value: fmt.Sprintf("%.1f", ps.TotalHoursThisMonth), Icon: "⏱️"},
		{Label: "Tỷ lệ chuyên cần", Value: fmt.Sprintf("%.0f%%", ps.AttendanceRate), Icon: "📈"},
		{Label: "Khen thưởng", Value: fmt.Sprint(ps.RewardsCount), Icon: "🏆"},
	}
}
