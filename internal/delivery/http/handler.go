package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/vitalsync/backend/internal/domain"
	"github.com/vitalsync/backend/internal/observability"
	"github.com/vitalsync/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	nutrition       *usecase.NutritionService
	activity        *usecase.ActivityService
	dashboard       *usecase.DashboardService
	calendar        *usecase.Calendar
	metrics         *observability.Metrics
	defaultTimezone string
}

// HandlerConfig bundles the services behind the API
type HandlerConfig struct {
	Nutrition       *usecase.NutritionService
	Activity        *usecase.ActivityService
	Dashboard       *usecase.DashboardService
	Calendar        *usecase.Calendar
	Metrics         *observability.Metrics
	DefaultTimezone string
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg HandlerConfig) *Handler {
	tz := cfg.DefaultTimezone
	if tz == "" {
		tz = "UTC"
	}
	calendar := cfg.Calendar
	if calendar == nil {
		calendar = usecase.NewCalendar(nil)
	}
	return &Handler{
		nutrition:       cfg.Nutrition,
		activity:        cfg.Activity,
		dashboard:       cfg.Dashboard,
		calendar:        calendar,
		metrics:         cfg.Metrics,
		defaultTimezone: tz,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "vitalsync-backend",
		"version": "1.0.0",
	})
}

// AnalyzeNutrition computes a report over the entries in the request body.
// Entries may arrive in any order; the newest date is the reported day.
func (h *Handler) AnalyzeNutrition(c *gin.Context) {
	var req AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	usecase.SortNewestFirst(req.Entries)
	c.JSON(http.StatusOK, h.nutrition.Analyze(req.Entries, req.toRequest()))
}

// LogFood stores one food entry for the user
func (h *Handler) LogFood(c *gin.Context) {
	var req FoodEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.nutrition.LogFood(c.Request.Context(), c.Param("userId"), req.FoodEntry)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ImportUSDAFood logs a USDA food by FDC id
func (h *Handler) ImportUSDAFood(c *gin.Context) {
	var req ImportFoodRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.nutrition.ImportFood(c.Request.Context(), c.Param("userId"), c.Param("fdcId"), req.Date, req.Servings)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// LogFoodByName logs the best USDA match for a food name. A weak match
// answers 422 with the candidate as a suggestion.
func (h *Handler) LogFoodByName(c *gin.Context) {
	var req LogByNameRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, match, err := h.nutrition.LogFoodByName(c.Request.Context(), c.Param("userId"), req.Name, req.Date, req.Servings)
	if errors.Is(err, domain.ErrLowConfidence) {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error(), Details: match})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "match": match})
}

// SearchFoods ranks USDA foods for a query
func (h *Handler) SearchFoods(c *gin.Context) {
	var q FoodSearchQuery
	if !bindQuery(c, &q) {
		return
	}
	matches, err := h.nutrition.SearchFoods(c.Request.Context(), q.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q.Query, "matches": matches, "count": len(matches)})
}

// NutritionReport analyzes the user's most recent logged day
func (h *Handler) NutritionReport(c *gin.Context) {
	var req ReportRequestDTO
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		respondValidation(c, err)
		return
	}
	report, err := h.nutrition.DailyReport(c.Request.Context(), c.Param("userId"), req.toRequest())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RecordActivity stores one tracker sample
func (h *Handler) RecordActivity(c *gin.Context) {
	var req ActivitySampleRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.activity.RecordSample(c.Request.Context(), c.Param("userId"), req.Timestamp, req.Date, req.Metrics, req.Source)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// ActivityWindow returns the samples inside a local hour window
func (h *Handler) ActivityWindow(c *gin.Context) {
	var q WindowQuery
	if !bindQuery(c, &q) {
		return
	}
	tz := h.timezone(q.TZ)
	records, window, err := h.activity.HourWindow(c.Request.Context(), c.Param("userId"), q.Date, q.Start, q.End, tz)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordsLocated.Observe(float64(len(records)))
	}
	if records == nil {
		records = []domain.TimeseriesRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"window":   window,
		"timezone": tz,
		"records":  records,
		"count":    len(records),
	})
}

// DailyActivity returns one local day of samples, today when no date is given
func (h *Handler) DailyActivity(c *gin.Context) {
	daily, err := h.activity.DailyActivity(c.Request.Context(), c.Param("userId"), c.Query("date"), h.timezone(c.Query("tz")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, daily)
}

// NearestActivity finds the closest date with samples
func (h *Handler) NearestActivity(c *gin.Context) {
	var q NearestQuery
	if !bindQuery(c, &q) {
		return
	}
	date, err := h.activity.NearestDateWithData(c.Request.Context(), c.Param("userId"), q.Date, q.Direction, h.timezone(q.TZ))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date})
}

// Overview combines the nutrition report and the day's activity
func (h *Handler) Overview(c *gin.Context) {
	var req ReportRequestDTO
	req.Mode = c.Query("mode")
	req.Category = c.Query("category")
	if err := req.Validate(); err != nil {
		respondValidation(c, err)
		return
	}
	overview, err := h.dashboard.Overview(c.Request.Context(), c.Param("userId"), c.Query("date"), h.timezone(c.Query("tz")), req.toRequest())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// CalendarToday returns today's date in tz
func (h *Handler) CalendarToday(c *gin.Context) {
	tz := h.timezone(c.Query("tz"))
	today, err := h.calendar.Today(tz)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": today, "timezone": tz})
}

// CalendarWeek returns the Monday to Sunday week containing date and whether
// it is the current week in tz
func (h *Handler) CalendarWeek(c *gin.Context) {
	date := c.Query("date")
	week, err := usecase.WeekRange(date)
	if err != nil {
		respondError(c, err)
		return
	}
	today, err := h.calendar.Today(h.timezone(c.Query("tz")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, WeekResponse{DateRange: week, Current: usecase.SameWeek(date, today)})
}

// CalendarMonth returns the first and last day of a month
func (h *Handler) CalendarMonth(c *gin.Context) {
	year, errYear := strconv.Atoi(c.Query("year"))
	month, errMonth := strconv.Atoi(c.Query("month"))
	if errYear != nil || errMonth != nil {
		respondError(c, domain.ErrInvalidDate)
		return
	}
	r, err := usecase.MonthRange(year, time.Month(month))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// CalendarRange returns the trailing range for a named period
func (h *Handler) CalendarRange(c *gin.Context) {
	r, err := h.calendar.AnalyticsRange(h.timezone(c.Query("tz")), c.DefaultQuery("period", "week"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) timezone(tz string) string {
	if tz == "" {
		return h.defaultTimezone
	}
	return tz
}

// bindJSON decodes and validates the body, writing a 400 on failure
func bindJSON(c *gin.Context, dst interface{ Validate() error }) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return false
	}
	if err := dst.Validate(); err != nil {
		respondValidation(c, err)
		return false
	}
	return true
}

// bindQuery decodes and validates query parameters, writing a 400 on failure
func bindQuery(c *gin.Context, dst interface{ Validate() error }) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query", Details: err.Error()})
		return false
	}
	if err := dst.Validate(); err != nil {
		respondValidation(c, err)
		return false
	}
	return true
}

func respondValidation(c *gin.Context, err error) {
	var details interface{} = err.Error()
	if errs, ok := err.(validation.Errors); ok {
		details = errs
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: details})
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidTimezone),
		errors.Is(err, domain.ErrInvalidRecordID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLowConfidence):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUSDAAPIFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrFoodDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
