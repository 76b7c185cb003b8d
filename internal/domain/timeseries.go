package domain

import "time"

// ActivityMetrics are the cumulative tracker readings captured in one sample
type ActivityMetrics struct {
	Steps         float64  `json:"steps"`
	Calories      float64  `json:"calories"`
	Distance      float64  `json:"distance"`
	ActiveMinutes float64  `json:"activeMinutes"`
	HeartRate     *float64 `json:"heartRate,omitempty"`
}

// TimeseriesRecord is one stored tracker sample. ID has the shape
// {ownerId}_{YYYYMMDD}_{HHMMSS} in UTC and sorts chronologically per owner.
type TimeseriesRecord struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"userId"`
	Timestamp time.Time       `json:"timestamp"`
	Date      string          `json:"date,omitempty"`
	Metrics   ActivityMetrics `json:"metrics"`
	Source    string          `json:"dataSource,omitempty"`
}

// ActivityPoint is a record placed on the user's local clock
type ActivityPoint struct {
	RecordID  string          `json:"docId"`
	LocalTime string          `json:"time"`
	Timestamp time.Time       `json:"timestamp"`
	Metrics   ActivityMetrics `json:"metrics"`
}

// DailyActivity summarizes one local day of tracker data
type DailyActivity struct {
	Date       string          `json:"date"`
	Timezone   string          `json:"timezone"`
	Points     []ActivityPoint `json:"points"`
	Totals     ActivityMetrics `json:"totals"`
	DataPoints int             `json:"dataPoints"`
}

// RecordWindow is the identifier range covering a local hour window
type RecordWindow struct {
	OwnerID string    `json:"ownerId"`
	StartID string    `json:"startId"`
	EndID   string    `json:"endId"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Contains reports whether id falls inside the window by plain string
// comparison. This relies on every identifier field being fixed-width and
// zero-padded.
func (w RecordWindow) Contains(id string) bool {
	return id >= w.StartID && id <= w.EndID
}

// DateRange is an inclusive span of local dates
type DateRange struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Dates []string `json:"dates,omitempty"`
}
