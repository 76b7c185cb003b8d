package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/vitalsync/backend/internal/domain"
)

// recordIDLayout renders the date and time fields of a record identifier.
// Every field is fixed-width and zero-padded so that string order equals
// chronological order for a single owner.
const recordIDLayout = "20060102_150405"

// FormatRecordID builds the identifier of a sample taken at t
func FormatRecordID(ownerID string, t time.Time) string {
	return ownerID + "_" + t.UTC().Format(recordIDLayout)
}

// ParseRecordID splits an identifier into its owner and UTC timestamp. The
// owner part may itself contain underscores.
func ParseRecordID(id string) (string, time.Time, error) {
	timeSep := strings.LastIndex(id, "_")
	if timeSep <= 0 {
		return "", time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidRecordID, id)
	}
	dateSep := strings.LastIndex(id[:timeSep], "_")
	if dateSep <= 0 {
		return "", time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidRecordID, id)
	}
	datePart, timePart := id[dateSep+1:timeSep], id[timeSep+1:]
	if len(datePart) != 8 || len(timePart) < 6 {
		return "", time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidRecordID, id)
	}
	ts, err := time.Parse(recordIDLayout, datePart+"_"+timePart[:6])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %q: %v", domain.ErrInvalidRecordID, id, err)
	}
	return id[:dateSep], ts, nil
}

// Window returns the identifier bounds covering startHour:00:00 through
// endHour:00:00 of date on the wall clock of tz. Both bounds are inclusive.
func Window(ownerID, date string, startHour, endHour int, tz string) (domain.RecordWindow, error) {
	if startHour > endHour {
		return domain.RecordWindow{}, fmt.Errorf("%w: start hour %d after end hour %d", domain.ErrInvalidRequest, startHour, endHour)
	}
	start, err := LocalBoundaryToUTC(date, startHour, 0, 0, tz)
	if err != nil {
		return domain.RecordWindow{}, err
	}
	end, err := LocalBoundaryToUTC(date, endHour, 0, 0, tz)
	if err != nil {
		return domain.RecordWindow{}, err
	}
	return domain.RecordWindow{
		OwnerID: ownerID,
		StartID: FormatRecordID(ownerID, start),
		EndID:   FormatRecordID(ownerID, end),
		Start:   start,
		End:     end,
	}, nil
}

// FindInWindow returns, in input order, the identifiers of every record that
// falls inside the local hour window. Records are scanned linearly and
// compared as plain strings.
func FindInWindow(ownerID, date string, startHour, endHour int, tz string, records []domain.TimeseriesRecord) ([]string, error) {
	matches, err := SelectInWindow(ownerID, date, startHour, endHour, tz, records)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(matches))
	for i, r := range matches {
		ids[i] = r.ID
	}
	return ids, nil
}

// SelectInWindow is FindInWindow returning the records themselves
func SelectInWindow(ownerID, date string, startHour, endHour int, tz string, records []domain.TimeseriesRecord) ([]domain.TimeseriesRecord, error) {
	window, err := Window(ownerID, date, startHour, endHour, tz)
	if err != nil {
		return nil, err
	}
	return inWindow(window, records), nil
}

// inWindow keeps the records whose identifiers lie between the window bounds
func inWindow(window domain.RecordWindow, records []domain.TimeseriesRecord) []domain.TimeseriesRecord {
	matches := make([]domain.TimeseriesRecord, 0)
	for _, r := range records {
		if window.Contains(r.ID) {
			matches = append(matches, r)
		}
	}
	return matches
}

// datePrefix is the identifier prefix shared by an owner's records of one UTC date
func datePrefix(ownerID string, utcDate time.Time) string {
	return ownerID + "_" + utcDate.UTC().Format("20060102") + "_"
}

// HasDataOn reports whether any record was captured on the given UTC date
func HasDataOn(ownerID string, utcDate time.Time, records []domain.TimeseriesRecord) bool {
	prefix := datePrefix(ownerID, utcDate)
	for _, r := range records {
		if strings.HasPrefix(r.ID, prefix) {
			return true
		}
	}
	return false
}
