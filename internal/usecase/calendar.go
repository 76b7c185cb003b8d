package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vitalsync/backend/internal/domain"
)

// DateLayout is the wire format of a local calendar date
const DateLayout = "2006-01-02"

// Calendar does date arithmetic against an explicit IANA timezone. It never
// falls back to the process's local zone.
type Calendar struct {
	clock clockwork.Clock
}

// NewCalendar creates a calendar. A nil clock uses real time.
func NewCalendar(clock clockwork.Clock) *Calendar {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Calendar{clock: clock}
}

// zones caches loaded locations by identifier
var zones sync.Map

// LoadTimezone resolves an IANA identifier. Empty strings and "Local" are
// rejected rather than silently meaning the host zone.
func LoadTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "Local" {
		return nil, fmt.Errorf("%w: %q is not an IANA zone", domain.ErrInvalidTimezone, tz)
	}
	if loc, ok := zones.Load(tz); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrInvalidTimezone, tz, err)
	}
	zones.Store(tz, loc)
	return loc, nil
}

// ParseDate parses a YYYY-MM-DD string as a civil date (midnight UTC).
// Impossible dates such as 2023-02-30 are rejected.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	return t, nil
}

// ValidDate reports whether s is a real YYYY-MM-DD calendar date
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// Today returns the current date in tz
func (c *Calendar) Today(tz string) (string, error) {
	return c.DaysAgo(tz, 0)
}

// DaysAgo returns the date n calendar days before today in tz
func (c *Calendar) DaysAgo(tz string, n int) (string, error) {
	loc, err := LoadTimezone(tz)
	if err != nil {
		return "", err
	}
	return c.clock.Now().In(loc).AddDate(0, 0, -n).Format(DateLayout), nil
}

// LastNDays returns the n dates ending today in tz, oldest first
func (c *Calendar) LastNDays(tz string, n int) ([]string, error) {
	loc, err := LoadTimezone(tz)
	if err != nil {
		return nil, err
	}
	today := c.clock.Now().In(loc)
	dates := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		dates = append(dates, today.AddDate(0, 0, -i).Format(DateLayout))
	}
	return dates, nil
}

var analyticsPeriods = map[string]int{
	"week":    7,
	"month":   30,
	"quarter": 90,
	"year":    365,
}

// AnalyticsRange returns the trailing range for a named period ending today.
// Unknown periods mean a week.
func (c *Calendar) AnalyticsRange(tz, period string) (domain.DateRange, error) {
	days, ok := analyticsPeriods[period]
	if !ok {
		days = 7
	}
	dates, err := c.LastNDays(tz, days)
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{Start: dates[0], End: dates[len(dates)-1], Dates: dates}, nil
}

// LocalDateOf returns the calendar date of instant as seen in tz
func LocalDateOf(instant time.Time, tz string) (string, error) {
	loc, err := LoadTimezone(tz)
	if err != nil {
		return "", err
	}
	return instant.In(loc).Format(DateLayout), nil
}

// LocalBoundaryToUTC returns the UTC instant at which the wall clock in tz
// shows date hour:minute:second. hour may be 24, with zero minutes and seconds,
// to mean the following midnight.
//
// Daylight-saving ambiguity is resolved deterministically: a wall time that
// occurs twice ("fall back") maps to the earlier instant, and a wall time that
// never occurs ("spring forward") is read with the offset in force before the
// transition, which moves it forward by the length of the gap.
func LocalBoundaryToUTC(date string, hour, minute, second int, tz string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || second < 0 || second > 59 ||
		(hour == 24 && (minute > 0 || second > 0)) {
		return time.Time{}, fmt.Errorf("%w: time %02d:%02d:%02d out of range", domain.ErrInvalidRequest, hour, minute, second)
	}
	loc, err := LoadTimezone(tz)
	if err != nil {
		return time.Time{}, err
	}

	// wall is the requested clock reading expressed as if it were UTC
	wall := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, second, 0, time.UTC)

	_, offsetBefore := wall.Add(-24 * time.Hour).In(loc).Zone()
	_, offsetAfter := wall.Add(24 * time.Hour).In(loc).Zone()
	early := wall.Add(-time.Duration(offsetBefore) * time.Second)
	late := wall.Add(-time.Duration(offsetAfter) * time.Second)
	if late.Before(early) {
		early, late = late, early
	}

	shows := func(t time.Time) bool {
		local := t.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, time.UTC).Equal(wall)
	}
	switch {
	case shows(early):
		return early.UTC(), nil
	case shows(late):
		return late.UTC(), nil
	default:
		return wall.Add(-time.Duration(offsetBefore) * time.Second).UTC(), nil
	}
}

// WeekRange returns the Monday-to-Sunday week containing date
func WeekRange(date string) (domain.DateRange, error) {
	day, err := ParseDate(date)
	if err != nil {
		return domain.DateRange{}, err
	}
	weekday := int(day.Weekday())
	mondayOffset := 1 - weekday
	if weekday == 0 {
		mondayOffset = -6
	}
	monday := day.AddDate(0, 0, mondayOffset)
	return domain.DateRange{
		Start: monday.Format(DateLayout),
		End:   monday.AddDate(0, 0, 6).Format(DateLayout),
	}, nil
}

// SameWeek reports whether two dates fall in the same Monday-start week
func SameWeek(a, b string) bool {
	wa, err := WeekRange(a)
	if err != nil {
		return false
	}
	wb, err := WeekRange(b)
	if err != nil {
		return false
	}
	return wa.Start == wb.Start
}

// MonthRange lists every date of the given month
func MonthRange(year int, month time.Month) (domain.DateRange, error) {
	if month < time.January || month > time.December {
		return domain.DateRange{}, fmt.Errorf("%w: month %d", domain.ErrInvalidDate, month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var dates []string
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return domain.DateRange{Start: dates[0], End: dates[len(dates)-1], Dates: dates}, nil
}
