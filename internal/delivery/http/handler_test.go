package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalsync/backend/config"
	"github.com/vitalsync/backend/internal/domain"
	"github.com/vitalsync/backend/internal/infrastructure/cache"
	"github.com/vitalsync/backend/internal/infrastructure/storage"
	"github.com/vitalsync/backend/internal/observability"
	"github.com/vitalsync/backend/internal/reference"
	"github.com/vitalsync/backend/internal/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubUSDA struct {
	food    *domain.USDAFood
	results []domain.USDAFood
	err     error
}

func (s *stubUSDA) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	if len(s.results) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return &domain.USDASearchResponse{Foods: s.results, TotalHits: len(s.results)}, nil
}

func (s *stubUSDA) GetFoodDetails(ctx context.Context, fdcID string) (*domain.USDAFood, error) {
	return s.food, s.err
}

type testServer struct {
	router  *gin.Engine
	store   *storage.Store
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, usdaClient domain.USDAClient) *testServer {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 16, 3, 0, 0, 0, time.UTC))
	memCache := cache.NewMemoryCacheWithClock(clock, 0)
	calendar := usecase.NewCalendar(clock)
	metrics := observability.NewMetricsForTesting()

	nutrition := usecase.NewNutritionService(memCache, store, usdaClient, reference.Default(), observability.NewMetricsSink(metrics), usecase.NutritionServiceConfig{})
	nutrition.SetMetrics(metrics)
	activity := usecase.NewActivityService(store, calendar)
	dashboard := usecase.NewDashboardService(nutrition, activity, calendar)

	handler := NewHandler(HandlerConfig{
		Nutrition:       nutrition,
		Activity:        activity,
		Dashboard:       dashboard,
		Calendar:        calendar,
		Metrics:         metrics,
		DefaultTimezone: "America/New_York",
	})
	cfg := &config.Config{
		Server: config.ServerConfig{
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
	return &testServer{router: SetupRouter(cfg, handler, metrics), store: store, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "vitalsync-backend", body["service"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAnalyzeNutrition(t *testing.T) {
	s := newTestServer(t, nil)

	body := `{
		"entries": [
			{"date": "2024-06-15", "name": "Oysters", "protein": "10", "micronutrients": {"zinc": {"value": 25000, "unit": "mcg"}}},
			{"date": "2024-06-15", "name": "Steak", "protein": 15, "micronutrients": {"iron": {"value": 50000, "unit": "mg"}}}
		],
		"category": "minerals"
	}`
	w := s.do(t, http.MethodPost, "/api/v1/nutrition/analyze", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[domain.NutritionReport](t, w)
	assert.Equal(t, "2024-06-15", report.Date)
	assert.Equal(t, 25.0, report.Macros.Protein)

	var zinc *domain.RankedNutrient
	for i := range report.Nutrients {
		assert.Equal(t, domain.CategoryMinerals, report.Nutrients[i].Category)
		if report.Nutrients[i].Key == "zinc" {
			zinc = &report.Nutrients[i]
		}
	}
	require.NotNil(t, zinc)
	assert.InDelta(t, 25.0, zinc.RawValue, 1e-9)
	assert.InDelta(t, 227.3, zinc.PercentOfRDA, 0.05)

	kinds := map[domain.DiagnosticKind]bool{}
	for _, d := range report.Diagnostics {
		kinds[d.Kind] = true
	}
	assert.True(t, kinds[domain.DiagOutOfRange])
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Diagnostics.WithLabelValues("out_of_range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ReportsComputed))
}

func TestAnalyzeNutrition_UnorderedEntries(t *testing.T) {
	s := newTestServer(t, nil)

	body := `{"entries": [
		{"date": "2024-06-13", "name": "Old", "protein": 99},
		{"date": "2024-06-15", "name": "Eggs", "protein": 12},
		{"date": "2024-06-14", "name": "Older", "protein": 50},
		{"date": "2024-06-15", "name": "Toast", "protein": 4}
	]}`
	w := s.do(t, http.MethodPost, "/api/v1/nutrition/analyze", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[domain.NutritionReport](t, w)
	assert.Equal(t, "2024-06-15", report.Date)
	assert.Equal(t, 16.0, report.Macros.Protein)
}

func TestAnalyzeNutrition_Validation(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"entries": [`},
		{name: "missing entries", body: `{"mode": "all"}`},
		{name: "unknown mode", body: `{"entries": [], "mode": "best"}`},
		{name: "unknown category", body: `{"entries": [], "category": "fats"}`},
		{name: "negative age", body: `{"entries": [], "profile": {"age": -3}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/nutrition/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestLogFoodAndDailyReport(t *testing.T) {
	s := newTestServer(t, nil)

	entries := []string{
		`{"date": "2024-06-14", "name": "Old", "protein": 99}`,
		`{"date": "2024-06-15", "name": "Eggs", "protein": 12, "micronutrients": {"vitamin_b12": {"value": 1.2, "unit": "mcg"}}}`,
		`{"date": "2024-06-15", "name": "Toast", "protein": "4"}`,
	}
	for _, e := range entries {
		w := s.do(t, http.MethodPost, "/api/v1/users/u1/food", e)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.NotEmpty(t, decode[map[string]string](t, w)["id"])
	}

	w := s.do(t, http.MethodPost, "/api/v1/users/u1/nutrition/report", `{"mode": "deficient"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[domain.NutritionReport](t, w)
	assert.Equal(t, "2024-06-15", report.Date)
	assert.Equal(t, 16.0, report.Macros.Protein)
	for _, n := range report.Nutrients {
		assert.Less(t, n.PercentOfRDA, 90.0)
	}

	// second call is served from cache
	w = s.do(t, http.MethodPost, "/api/v1/users/u1/nutrition/report", `{"mode": "deficient"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ReportCache.WithLabelValues("hit")))

	// logging food invalidates the cached report
	w = s.do(t, http.MethodPost, "/api/v1/users/u1/food", `{"date": "2024-06-15", "name": "Milk", "protein": 8}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/users/u1/nutrition/report", `{"mode": "deficient"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 24.0, decode[domain.NutritionReport](t, w).Macros.Protein)
}

func TestLogFood_Validation(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"date": "2024-06-15"}`},
		{name: "bad date", body: `{"date": "2024-02-30", "name": "x"}`},
		{name: "missing date", body: `{"name": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/users/u1/food", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestImportUSDAFood(t *testing.T) {
	food := &domain.USDAFood{
		FdcID:       168462,
		Description: "Spinach, raw",
		Nutrients: []domain.USDANutrient{
			{NutrientID: 1003, Value: 2.86, UnitName: "G"},
			{NutrientID: 1089, Value: 2.71, UnitName: "MG"},
		},
	}

	tests := []struct {
		name       string
		client     domain.USDAClient
		wantStatus int
	}{
		{name: "imported", client: &stubUSDA{food: food}, wantStatus: http.StatusCreated},
		{name: "not found", client: &stubUSDA{err: domain.ErrProductNotFound}, wantStatus: http.StatusNotFound},
		{name: "upstream failure", client: &stubUSDA{err: domain.ErrUSDAAPIFailure}, wantStatus: http.StatusBadGateway},
		{name: "import disabled", client: nil, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.client)
			w := s.do(t, http.MethodPost, "/api/v1/users/u1/food/usda/168462", `{"date": "2024-06-15", "servings": 2}`)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusCreated {
				return
			}
			entry := decode[domain.FoodEntry](t, w)
			assert.Equal(t, "usda:168462", entry.Source)
			assert.InDelta(t, 5.72, float64(entry.Protein), 1e-9)

			stored, err := s.store.ListFoodEntries(context.Background(), "u1", 0)
			require.NoError(t, err)
			assert.Len(t, stored, 1)
		})
	}
}

func TestFoodSearchAndLogByName(t *testing.T) {
	food := &domain.USDAFood{
		FdcID:       168462,
		Description: "Spinach, raw",
		DataType:    "SR Legacy",
		Nutrients: []domain.USDANutrient{
			{NutrientID: 1003, Value: 2.86, UnitName: "G"},
		},
	}
	client := &stubUSDA{
		food: food,
		results: []domain.USDAFood{
			{FdcID: 1, Description: "Spinach souffle", DataType: "Survey (FNDDS)"},
			{FdcID: 168462, Description: "Spinach, raw", DataType: "SR Legacy"},
		},
	}

	t.Run("search ranks candidates", func(t *testing.T) {
		s := newTestServer(t, client)
		w := s.do(t, http.MethodGet, "/api/v1/foods/search?q=raw+spinach", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[struct {
			Matches []domain.FoodMatch `json:"matches"`
			Count   int                `json:"count"`
		}](t, w)
		require.Equal(t, 2, body.Count)
		assert.Equal(t, "168462", body.Matches[0].FdcID)
		assert.Greater(t, body.Matches[0].Score, body.Matches[1].Score)
	})

	t.Run("search requires a query", func(t *testing.T) {
		s := newTestServer(t, client)
		w := s.do(t, http.MethodGet, "/api/v1/foods/search", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("log by name", func(t *testing.T) {
		s := newTestServer(t, client)
		w := s.do(t, http.MethodPost, "/api/v1/users/u1/food/search", `{"name": "spinach, raw 2 cups", "date": "2024-06-15"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decode[struct {
			Entry domain.FoodEntry `json:"entry"`
			Match domain.FoodMatch `json:"match"`
		}](t, w)
		assert.Equal(t, "usda:168462", body.Entry.Source)
		assert.Equal(t, "Spinach, raw", body.Match.Description)
		assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.USDAImports.WithLabelValues("success")))
	})

	t.Run("weak match is a suggestion", func(t *testing.T) {
		s := newTestServer(t, client)
		w := s.do(t, http.MethodPost, "/api/v1/users/u1/food/search", `{"name": "chocolate cake", "date": "2024-06-15"}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		stored, err := s.store.ListFoodEntries(context.Background(), "u1", 0)
		require.NoError(t, err)
		assert.Empty(t, stored)
		assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.USDAImports.WithLabelValues("low_confidence")))
	})
}

func TestActivityEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	// America/New_York is UTC-4 in June
	samples := []string{
		`{"timestamp": "2024-06-15T23:59:00Z", "metrics": {"steps": 8000}}`,
		`{"timestamp": "2024-06-16T00:00:00Z", "metrics": {"steps": 8100}}`,
		`{"timestamp": "2024-06-16T00:30:00Z", "metrics": {"steps": 8500}}`,
		`{"timestamp": "2024-06-16T01:00:00Z", "metrics": {"steps": 9000}}`,
		`{"timestamp": "2024-06-16T05:00:00Z", "metrics": {"steps": 100}}`,
	}
	for _, sample := range samples {
		w := s.do(t, http.MethodPost, "/api/v1/users/u1/activity", sample)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	t.Run("window", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/users/u1/activity/window?date=2024-06-15&start=20&end=21&tz=America/New_York", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[struct {
			Window  domain.RecordWindow       `json:"window"`
			Records []domain.TimeseriesRecord `json:"records"`
			Count   int                       `json:"count"`
		}](t, w)
		assert.Equal(t, "u1_20240616_000000", body.Window.StartID)
		assert.Equal(t, "u1_20240616_010000", body.Window.EndID)
		assert.Equal(t, 3, body.Count)
		assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.RecordsLocated))
	})

	t.Run("window uses default timezone", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/users/u1/activity/window?date=2024-06-15&start=20&end=21", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "America/New_York", decode[map[string]interface{}](t, w)["timezone"])
	})

	t.Run("window rejects bad hours", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/users/u1/activity/window?date=2024-06-15&start=20&end=25", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("window rejects bad timezone", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/users/u1/activity/window?date=2024-06-15&tz=Mars/Base", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("daily", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/users/u1/activity/daily?date=2024-06-15", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		daily := decode[domain.DailyActivity](t, w)
		assert.Equal(t, 4, daily.DataPoints)
		assert.Equal(t, 9000.0, daily.Totals.Steps)
	})

	t.Run("daily defaults to today", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/users/u1/activity/daily", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		daily := decode[domain.DailyActivity](t, w)
		assert.Equal(t, "2024-06-15", daily.Date)
		assert.Equal(t, 4, daily.DataPoints)
	})

	t.Run("nearest", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/users/u1/activity/nearest?date=2024-06-10&direction=next", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "2024-06-15", decode[map[string]string](t, w)["date"])

		w = s.do(t, http.MethodGet, "/api/v1/users/u1/activity/nearest?date=2024-06-10&direction=prev", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = s.do(t, http.MethodGet, "/api/v1/users/u1/activity/nearest?date=2024-06-10&direction=up", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOverview(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/users/u1/food", `{"date": "2024-06-15", "name": "Eggs", "protein": 12}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/users/u1/activity", `{"timestamp": "2024-06-15T16:00:00Z", "metrics": {"steps": 5000}}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/users/u1/overview?date=2024-06-15", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	overview := decode[usecase.Overview](t, w)
	require.NotNil(t, overview.Nutrition)
	require.NotNil(t, overview.Activity)
	assert.Equal(t, 12.0, overview.Nutrition.Macros.Protein)
	assert.Equal(t, 5000.0, overview.Activity.Totals.Steps)
}

func TestCalendarEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		check      func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:       "today in new york lags utc",
			path:       "/api/v1/calendar/today",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "2024-06-15", decode[map[string]string](t, w)["date"])
			},
		},
		{
			name:       "today in utc",
			path:       "/api/v1/calendar/today?tz=UTC",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "2024-06-16", decode[map[string]string](t, w)["date"])
			},
		},
		{
			name:       "week",
			path:       "/api/v1/calendar/week?date=2024-06-15",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				r := decode[WeekResponse](t, w)
				assert.Equal(t, "2024-06-10", r.Start)
				assert.Equal(t, "2024-06-16", r.End)
				assert.True(t, r.Current)
			},
		},
		{
			name:       "past week",
			path:       "/api/v1/calendar/week?date=2024-06-09",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				r := decode[WeekResponse](t, w)
				assert.Equal(t, "2024-06-03", r.Start)
				assert.False(t, r.Current)
			},
		},
		{
			name:       "week rolls over in utc",
			path:       "/api/v1/calendar/week?date=2024-06-17&tz=UTC",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.False(t, decode[WeekResponse](t, w).Current)
			},
		},
		{
			name:       "leap february",
			path:       "/api/v1/calendar/month?year=2024&month=2",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				r := decode[domain.DateRange](t, w)
				assert.Equal(t, "2024-02-29", r.End)
				assert.Len(t, r.Dates, 29)
			},
		},
		{
			name:       "range",
			path:       "/api/v1/calendar/range?period=week&tz=UTC",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				r := decode[domain.DateRange](t, w)
				assert.Equal(t, "2024-06-10", r.Start)
				assert.Equal(t, "2024-06-16", r.End)
			},
		},
		{name: "bad week date", path: "/api/v1/calendar/week?date=2024-13-01", wantStatus: http.StatusBadRequest},
		{name: "bad month", path: "/api/v1/calendar/month?year=2024&month=13", wantStatus: http.StatusBadRequest},
		{name: "missing year", path: "/api/v1/calendar/month?month=1", wantStatus: http.StatusBadRequest},
		{name: "bad timezone", path: "/api/v1/calendar/today?tz=Nowhere", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidRequest, http.StatusBadRequest},
		{domain.ErrInvalidDate, http.StatusBadRequest},
		{domain.ErrInvalidTimezone, http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrProductNotFound, http.StatusNotFound},
		{domain.ErrLowConfidence, http.StatusUnprocessableEntity},
		{domain.ErrUSDAAPIFailure, http.StatusBadGateway},
		{domain.ErrFoodDataUnavailable, http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
