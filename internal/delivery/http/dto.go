package http

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/vitalsync/backend/internal/domain"
	"github.com/vitalsync/backend/internal/usecase"
)

var (
	displayModes = []interface{}{"", usecase.DisplayAll, usecase.DisplayDeficient, usecase.DisplayOptimal}
	categories   = []interface{}{"", domain.CategoryAll, domain.CategoryVitamins, domain.CategoryMinerals}
	genders      = []interface{}{"", "male", "female", "Male", "Female"}
)

// ReportRequestDTO selects personalization and filtering for a report
type ReportRequestDTO struct {
	Profile  domain.UserProfile `json:"profile"`
	Mode     string             `json:"mode"`
	Category string             `json:"category"`
}

// Validate implements validation.Validatable
func (r ReportRequestDTO) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mode, validation.In(displayModes...)),
		validation.Field(&r.Category, validation.In(categories...)),
		validation.Field(&r.Profile, validation.By(validateProfile)),
	)
}

func (r ReportRequestDTO) toRequest() usecase.ReportRequest {
	return usecase.ReportRequest{Profile: r.Profile, Mode: r.Mode, Category: r.Category}
}

func validateProfile(value interface{}) error {
	p, _ := value.(domain.UserProfile)
	return validation.ValidateStruct(&p,
		validation.Field(&p.Gender, validation.In(genders...)),
		validation.Field(&p.Age, validation.Min(0), validation.Max(130)),
		validation.Field(&p.WeightKg, validation.Min(0.0), validation.Max(500.0)),
		validation.Field(&p.HeightCm, validation.Min(0.0), validation.Max(300.0)),
	)
}

// AnalyzeRequest is a stateless analysis over caller supplied entries
type AnalyzeRequest struct {
	ReportRequestDTO
	Entries []domain.FoodEntry `json:"entries"`
}

// Validate implements validation.Validatable
func (r AnalyzeRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Entries, validation.NotNil),
	); err != nil {
		return err
	}
	return r.ReportRequestDTO.Validate()
}

// FoodEntryRequest logs one food
type FoodEntryRequest struct {
	domain.FoodEntry
}

// Validate implements validation.Validatable
func (r FoodEntryRequest) Validate() error {
	return validation.ValidateStruct(&r.FoodEntry,
		validation.Field(&r.FoodEntry.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.FoodEntry.Date, validation.Required, validation.Date(usecase.DateLayout)),
	)
}

// ImportFoodRequest imports a USDA food into the log
type ImportFoodRequest struct {
	Date     string  `json:"date"`
	Servings float64 `json:"servings"`
}

// Validate implements validation.Validatable
func (r ImportFoodRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Date, validation.Required, validation.Date(usecase.DateLayout)),
		validation.Field(&r.Servings, validation.Min(0.0), validation.Max(100.0)),
	)
}

// LogByNameRequest logs the best USDA match for a free-text food name
type LogByNameRequest struct {
	Name     string  `json:"name"`
	Date     string  `json:"date"`
	Servings float64 `json:"servings"`
}

// Validate implements validation.Validatable
func (r LogByNameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Date, validation.Required, validation.Date(usecase.DateLayout)),
		validation.Field(&r.Servings, validation.Min(0.0), validation.Max(100.0)),
	)
}

// FoodSearchQuery searches USDA foods by name
type FoodSearchQuery struct {
	Query string `form:"q"`
}

// Validate implements validation.Validatable
func (q FoodSearchQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Query, validation.Required, validation.Length(1, 200)),
	)
}

// ActivitySampleRequest stores one tracker sample
type ActivitySampleRequest struct {
	Timestamp time.Time              `json:"timestamp"`
	Date      string                 `json:"date"`
	Metrics   domain.ActivityMetrics `json:"metrics"`
	Source    string                 `json:"dataSource"`
}

// Validate implements validation.Validatable
func (r ActivitySampleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Timestamp, validation.Required),
		validation.Field(&r.Date, validation.Date(usecase.DateLayout)),
	)
}

// WindowQuery selects a local hour window
type WindowQuery struct {
	Date  string `form:"date"`
	Start int    `form:"start,default=0"`
	End   int    `form:"end,default=24"`
	TZ    string `form:"tz"`
}

// Validate implements validation.Validatable
func (q WindowQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Date, validation.Required, validation.Date(usecase.DateLayout)),
		validation.Field(&q.Start, validation.Min(0), validation.Max(24)),
		validation.Field(&q.End, validation.Min(0), validation.Max(24)),
	)
}

// NearestQuery navigates to the closest day with data
type NearestQuery struct {
	Date      string `form:"date"`
	Direction string `form:"direction"`
	TZ        string `form:"tz"`
}

// Validate implements validation.Validatable
func (q NearestQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Date, validation.Required, validation.Date(usecase.DateLayout)),
		validation.Field(&q.Direction, validation.Required, validation.In(usecase.DirectionPrev, usecase.DirectionNext)),
	)
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// WeekResponse is a Monday to Sunday range flagged when it contains today
type WeekResponse struct {
	domain.DateRange
	Current bool `json:"current"`
}
