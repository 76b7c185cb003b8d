package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vitalsync/backend/internal/domain"
)

const maxNavigationDays = 30

// Navigation directions for NearestDateWithData
const (
	DirectionPrev = "prev"
	DirectionNext = "next"
)

// ActivityService answers time-window questions over stored tracker samples
type ActivityService struct {
	repo     domain.TimeseriesRepository
	calendar *Calendar
}

// NewActivityService creates an activity service
func NewActivityService(repo domain.TimeseriesRepository, calendar *Calendar) *ActivityService {
	if calendar == nil {
		calendar = NewCalendar(nil)
	}
	return &ActivityService{repo: repo, calendar: calendar}
}

// RecordSample stores a sample taken at ts, keyed by its UTC identifier
func (s *ActivityService) RecordSample(ctx context.Context, ownerID string, ts time.Time, date string, metrics domain.ActivityMetrics, source string) (domain.TimeseriesRecord, error) {
	if ownerID == "" || ts.IsZero() {
		return domain.TimeseriesRecord{}, domain.ErrInvalidRequest
	}
	if date == "" {
		date = ts.UTC().Format(DateLayout)
	}
	if !ValidDate(date) {
		return domain.TimeseriesRecord{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, date)
	}
	if source == "" {
		source = "fitbit_api"
	}

	record := domain.TimeseriesRecord{
		ID:        FormatRecordID(ownerID, ts),
		OwnerID:   ownerID,
		Timestamp: ts.UTC().Truncate(time.Second),
		Date:      date,
		Metrics:   metrics,
		Source:    source,
	}
	if err := s.repo.SaveRecord(ctx, record); err != nil {
		return domain.TimeseriesRecord{}, fmt.Errorf("saving record: %w", err)
	}
	return record, nil
}

// HourWindow returns the owner's records captured between startHour and
// endHour of date on the wall clock of tz
func (s *ActivityService) HourWindow(ctx context.Context, ownerID, date string, startHour, endHour int, tz string) ([]domain.TimeseriesRecord, domain.RecordWindow, error) {
	if ownerID == "" {
		return nil, domain.RecordWindow{}, domain.ErrInvalidRequest
	}
	window, err := Window(ownerID, date, startHour, endHour, tz)
	if err != nil {
		return nil, domain.RecordWindow{}, err
	}
	records, err := s.repo.ListRecords(ctx, ownerID)
	if err != nil {
		return nil, domain.RecordWindow{}, fmt.Errorf("listing records: %w", err)
	}
	return inWindow(window, records), window, nil
}

// DailyActivity collects the samples of one local day, today in tz when date
// is empty. Tracker metrics are cumulative, so the daily totals are the
// largest reading of each metric.
func (s *ActivityService) DailyActivity(ctx context.Context, ownerID, date, tz string) (*domain.DailyActivity, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if date == "" {
		today, err := s.calendar.Today(tz)
		if err != nil {
			return nil, err
		}
		date = today
	}
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	loc, err := LoadTimezone(tz)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListRecords(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	local, err := localDayRecords(ownerID, day, tz, records)
	if err != nil {
		return nil, err
	}
	points := make([]domain.ActivityPoint, 0, len(local))
	for _, r := range local {
		ts, _ := recordTime(r)
		points = append(points, domain.ActivityPoint{
			RecordID:  r.ID,
			LocalTime: ts.In(loc).Format("15:04"),
			Timestamp: ts.UTC(),
			Metrics:   r.Metrics,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	daily := &domain.DailyActivity{
		Date:       date,
		Timezone:   tz,
		Points:     points,
		DataPoints: len(points),
	}
	for _, p := range points {
		daily.Totals.Steps = math.Max(daily.Totals.Steps, p.Metrics.Steps)
		daily.Totals.Calories = math.Max(daily.Totals.Calories, p.Metrics.Calories)
		daily.Totals.Distance = math.Max(daily.Totals.Distance, p.Metrics.Distance)
		daily.Totals.ActiveMinutes = math.Max(daily.Totals.ActiveMinutes, p.Metrics.ActiveMinutes)
	}
	return daily, nil
}

// NearestDateWithData walks up to 30 days from date in the given direction
// and returns the first local date that has at least one sample
func (s *ActivityService) NearestDateWithData(ctx context.Context, ownerID, date, direction, tz string) (string, error) {
	step := 1
	switch direction {
	case DirectionPrev:
		step = -1
	case DirectionNext:
	default:
		return "", fmt.Errorf("%w: direction %q", domain.ErrInvalidRequest, direction)
	}
	day, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	if _, err := LoadTimezone(tz); err != nil {
		return "", err
	}

	records, err := s.repo.ListRecords(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("listing records: %w", err)
	}

	for i := 1; i <= maxNavigationDays; i++ {
		candidate := day.AddDate(0, 0, i*step)
		local, err := localDayRecords(ownerID, candidate, tz, records)
		if err != nil {
			return "", err
		}
		if len(local) > 0 {
			return candidate.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("%w: no activity within %d days of %s", domain.ErrNotFound, maxNavigationDays, date)
}

// localDayRecords returns the records whose local date in tz is day. A local
// day overlaps at most the UTC dates either side of it, so only those are
// searched by identifier prefix.
func localDayRecords(ownerID string, day time.Time, tz string, records []domain.TimeseriesRecord) ([]domain.TimeseriesRecord, error) {
	date := day.Format(DateLayout)
	var matches []domain.TimeseriesRecord
	for offset := -1; offset <= 1; offset++ {
		utcDate := day.AddDate(0, 0, offset)
		if !HasDataOn(ownerID, utcDate, records) {
			continue
		}
		prefix := datePrefix(ownerID, utcDate)
		for _, r := range records {
			if !strings.HasPrefix(r.ID, prefix) {
				continue
			}
			ts, ok := recordTime(r)
			if !ok {
				continue
			}
			localDate, err := LocalDateOf(ts, tz)
			if err != nil {
				return nil, err
			}
			if localDate == date {
				matches = append(matches, r)
			}
		}
	}
	return matches, nil
}

// recordTime is the stored timestamp, or the one encoded in the identifier
// for records saved without it
func recordTime(r domain.TimeseriesRecord) (time.Time, bool) {
	if !r.Timestamp.IsZero() {
		return r.Timestamp, true
	}
	_, ts, err := ParseRecordID(r.ID)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
