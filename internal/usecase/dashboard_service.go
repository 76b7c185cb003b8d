package usecase

import (
	"context"

	"github.com/vitalsync/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Overview is the combined nutrition and activity picture for one day
type Overview struct {
	Nutrition *domain.NutritionReport `json:"nutrition"`
	Activity  *domain.DailyActivity   `json:"activity"`
}

// DashboardService gathers nutrition and activity snapshots concurrently
type DashboardService struct {
	nutrition *NutritionService
	activity  *ActivityService
	calendar  *Calendar
}

// NewDashboardService creates a dashboard service
func NewDashboardService(nutrition *NutritionService, activity *ActivityService, calendar *Calendar) *DashboardService {
	if calendar == nil {
		calendar = NewCalendar(nil)
	}
	return &DashboardService{nutrition: nutrition, activity: activity, calendar: calendar}
}

// Overview loads the latest nutrition report and the activity of date in
// parallel. An empty date means today in tz.
func (s *DashboardService) Overview(ctx context.Context, ownerID, date, tz string, request ReportRequest) (*Overview, error) {
	if date == "" {
		today, err := s.calendar.Today(tz)
		if err != nil {
			return nil, err
		}
		date = today
	}

	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report, err := s.nutrition.DailyReport(gctx, ownerID, request)
		if err != nil {
			return err
		}
		out.Nutrition = report
		return nil
	})
	g.Go(func() error {
		daily, err := s.activity.DailyActivity(gctx, ownerID, date, tz)
		if err != nil {
			return err
		}
		out.Activity = daily
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
