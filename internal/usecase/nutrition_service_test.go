package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalsync/backend/internal/domain"
	"github.com/vitalsync/backend/internal/observability"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data     map[string]interface{}
	getError error
	setError error
	sets     int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockUSDAClient is a mock implementation of domain.USDAClient
type MockUSDAClient struct {
	searchResult *domain.USDASearchResponse
	searchError  error
	foodResult   *domain.USDAFood
	foodError    error
	lastQuery    string
	lastFdcID    string
}

func (m *MockUSDAClient) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	m.lastQuery = query
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.searchResult, nil
}

func (m *MockUSDAClient) GetFoodDetails(ctx context.Context, fdcID string) (*domain.USDAFood, error) {
	m.lastFdcID = fdcID
	if m.foodError != nil {
		return nil, m.foodError
	}
	return m.foodResult, nil
}

// MockFoodLog is an in-memory domain.FoodLogRepository. Entries are kept in
// the newest-first order the real store returns.
type MockFoodLog struct {
	entries   []domain.FoodEntry
	listError error
	lists     int
}

func (m *MockFoodLog) ListFoodEntries(ctx context.Context, ownerID string, limit int) ([]domain.FoodEntry, error) {
	m.lists++
	if m.listError != nil {
		return nil, m.listError
	}
	if limit > 0 && limit < len(m.entries) {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

func (m *MockFoodLog) SaveFoodEntry(ctx context.Context, ownerID string, entry domain.FoodEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = "entry-" + entry.Name
	}
	m.entries = append([]domain.FoodEntry{entry}, m.entries...)
	return entry.ID, nil
}

func newTestNutritionService(cache domain.CacheRepository, foodLog domain.FoodLogRepository, client domain.USDAClient) *NutritionService {
	return NewNutritionService(cache, foodLog, client, testTable(), nil, NutritionServiceConfig{})
}

func TestNewNutritionService(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		svc := newTestNutritionService(nil, nil, nil)
		assert.Equal(t, 10*time.Minute, svc.cacheTTL)
		assert.Equal(t, 500, svc.entryLimit)
		assert.NotNil(t, svc.sink)
		assert.NotNil(t, svc.matcher)
	})

	t.Run("keeps custom values", func(t *testing.T) {
		svc := NewNutritionService(nil, nil, nil, testTable(), nil, NutritionServiceConfig{
			CacheTTL:   time.Hour,
			EntryLimit: 20,
			Match:      MatchConfig{MinConfidence: 70},
		})
		assert.Equal(t, time.Hour, svc.cacheTTL)
		assert.Equal(t, 20, svc.entryLimit)
		assert.Equal(t, 70.0, svc.matcher.minConfidence)
	})
}

func TestAnalyze(t *testing.T) {
	forwarded := &domain.Collector{}
	svc := NewNutritionService(nil, nil, nil, testTable(), forwarded, NutritionServiceConfig{})
	metrics := observability.NewMetricsForTesting()
	svc.SetMetrics(metrics)

	entries := []domain.FoodEntry{
		{Date: "2024-06-15", Name: "oysters", Protein: 20, Micronutrients: domain.Micronutrients{
			"zinc": domain.ValueUnitIntake{Value: 25000, Unit: domain.UnitMicrogram},
		}},
		{Date: "2024-06-15", Name: "orange", Carbs: 15, Micronutrients: domain.Micronutrients{
			"vitamin_c": domain.NumberIntake(70),
		}},
	}

	report := svc.Analyze(entries, ReportRequest{})

	assert.Equal(t, "2024-06-15", report.Date)
	assert.Equal(t, domain.MacroSums{Protein: 20, Carbs: 15}, report.Macros)
	require.Len(t, report.Nutrients, 5)
	last := report.Nutrients[len(report.Nutrients)-1]
	assert.Equal(t, "zinc", last.Key)
	assert.InDelta(t, 227.3, last.PercentOfRDA, 0.05)
	assert.Equal(t, domain.RankSummary{Total: 5, Deficient: 3, Optimal: 1}, report.Summary)
	assert.Equal(t, []domain.DiagnosticKind{domain.DiagUnitConverted}, forwarded.Kinds())
	assert.Len(t, report.Diagnostics, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReportsComputed))
}

func TestAnalyze_PersonalizesAndFilters(t *testing.T) {
	svc := newTestNutritionService(nil, nil, nil)

	report := svc.Analyze(nil, ReportRequest{
		Profile:  domain.UserProfile{Gender: "female", Pregnant: true},
		Category: domain.CategoryVitamins,
	})

	require.Len(t, report.Nutrients, 2)
	for _, n := range report.Nutrients {
		assert.Equal(t, domain.CategoryVitamins, n.Category)
		assert.True(t, n.IsAdjustedRDA)
	}
	assert.Equal(t, 5, report.Summary.Total)
}

func TestDailyReport(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty owner", func(t *testing.T) {
		svc := newTestNutritionService(nil, &MockFoodLog{}, nil)
		_, err := svc.DailyReport(ctx, "", ReportRequest{})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("requires a food log", func(t *testing.T) {
		svc := newTestNutritionService(nil, nil, nil)
		_, err := svc.DailyReport(ctx, "u1", ReportRequest{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("propagates log errors", func(t *testing.T) {
		boom := errors.New("disk gone")
		svc := newTestNutritionService(nil, &MockFoodLog{listError: boom}, nil)
		_, err := svc.DailyReport(ctx, "u1", ReportRequest{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("caches until food is logged", func(t *testing.T) {
		cache := NewMockCacheRepository()
		foodLog := &MockFoodLog{}
		svc := newTestNutritionService(cache, foodLog, nil)
		metrics := observability.NewMetricsForTesting()
		svc.SetMetrics(metrics)

		_, err := svc.LogFood(ctx, "u1", domain.FoodEntry{Date: "2024-06-15", Name: "eggs", Protein: 12})
		require.NoError(t, err)

		first, err := svc.DailyReport(ctx, "u1", ReportRequest{})
		require.NoError(t, err)
		second, err := svc.DailyReport(ctx, "u1", ReportRequest{})
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, foodLog.lists)

		other, err := svc.DailyReport(ctx, "u1", ReportRequest{Mode: DisplayDeficient})
		require.NoError(t, err)
		assert.NotSame(t, first, other)
		assert.Equal(t, 2, foodLog.lists)

		_, err = svc.LogFood(ctx, "u1", domain.FoodEntry{Date: "2024-06-15", Name: "toast", Protein: 4})
		require.NoError(t, err)
		third, err := svc.DailyReport(ctx, "u1", ReportRequest{})
		require.NoError(t, err)
		assert.Equal(t, 16.0, third.Macros.Protein)
		assert.Equal(t, 3, foodLog.lists)

		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReportCache.WithLabelValues("hit")))
		assert.Equal(t, 3.0, testutil.ToFloat64(metrics.ReportCache.WithLabelValues("miss")))
	})

	t.Run("cache failures only cost a recomputation", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.getError = errors.New("cache down")
		cache.setError = errors.New("cache down")
		foodLog := &MockFoodLog{entries: []domain.FoodEntry{{Date: "2024-06-15", Name: "eggs", Protein: 12}}}
		svc := newTestNutritionService(cache, foodLog, nil)

		report, err := svc.DailyReport(ctx, "u1", ReportRequest{})
		require.NoError(t, err)
		assert.Equal(t, 12.0, report.Macros.Protein)
	})
}

func TestGenerateCacheKey(t *testing.T) {
	ctx := context.Background()
	cache := NewMockCacheRepository()
	svc := newTestNutritionService(cache, nil, nil)

	base := svc.generateCacheKey(ctx, "u1", ReportRequest{})
	assert.Equal(t, base, svc.generateCacheKey(ctx, "u1", ReportRequest{}))
	assert.NotEqual(t, base, svc.generateCacheKey(ctx, "u2", ReportRequest{}))
	assert.NotEqual(t, base, svc.generateCacheKey(ctx, "u1", ReportRequest{Profile: domain.UserProfile{Age: 40}}))
	assert.Equal(t,
		svc.generateCacheKey(ctx, "u1", ReportRequest{Mode: "Deficient"}),
		svc.generateCacheKey(ctx, "u1", ReportRequest{Mode: "deficient"}))

	svc.bumpReportVersion(ctx, "u1")
	assert.NotEqual(t, base, svc.generateCacheKey(ctx, "u1", ReportRequest{}))
	assert.Contains(t, svc.generateCacheKey(ctx, "u1", ReportRequest{}), ":v1:")
}

func TestLogFood(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		owner   string
		entry   domain.FoodEntry
		wantErr error
	}{
		{name: "valid", owner: "u1", entry: domain.FoodEntry{Date: "2024-06-15", Name: "eggs"}},
		{name: "client id is ignored", owner: "u1", entry: domain.FoodEntry{ID: "someone-elses", Date: "2024-06-15", Name: "eggs"}},
		{name: "missing owner", entry: domain.FoodEntry{Date: "2024-06-15", Name: "eggs"}, wantErr: domain.ErrInvalidRequest},
		{name: "blank name", owner: "u1", entry: domain.FoodEntry{Date: "2024-06-15", Name: "  "}, wantErr: domain.ErrInvalidRequest},
		{name: "impossible date", owner: "u1", entry: domain.FoodEntry{Date: "2024-02-30", Name: "eggs"}, wantErr: domain.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestNutritionService(nil, &MockFoodLog{}, nil)
			id, err := svc.LogFood(ctx, tt.owner, tt.entry)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "entry-eggs", id)
		})
	}
}

func TestImportFood(t *testing.T) {
	ctx := context.Background()
	food := &domain.USDAFood{
		FdcID:       168462,
		Description: "Spinach, raw",
		Nutrients:   []domain.USDANutrient{{NutrientID: 1003, Value: 2.86, UnitName: "G"}},
	}

	t.Run("disabled without client", func(t *testing.T) {
		svc := newTestNutritionService(nil, &MockFoodLog{}, nil)
		_, err := svc.ImportFood(ctx, "u1", "168462", "2024-06-15", 1)
		assert.ErrorIs(t, err, domain.ErrFoodDataUnavailable)
	})

	t.Run("defaults to one serving", func(t *testing.T) {
		client := &MockUSDAClient{foodResult: food}
		svc := newTestNutritionService(nil, &MockFoodLog{}, client)
		metrics := observability.NewMetricsForTesting()
		svc.SetMetrics(metrics)

		entry, err := svc.ImportFood(ctx, "u1", "168462", "2024-06-15", 0)
		require.NoError(t, err)
		assert.Equal(t, "168462", client.lastFdcID)
		assert.InDelta(t, 2.86, float64(entry.Protein), 1e-9)
		assert.Equal(t, "entry-Spinach, raw", entry.ID)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.USDAImports.WithLabelValues("success")))
	})

	t.Run("upstream errors", func(t *testing.T) {
		client := &MockUSDAClient{foodError: domain.ErrUSDAAPIFailure}
		svc := newTestNutritionService(nil, &MockFoodLog{}, client)
		_, err := svc.ImportFood(ctx, "u1", "168462", "2024-06-15", 1)
		assert.ErrorIs(t, err, domain.ErrUSDAAPIFailure)
	})

	t.Run("bad date is not stored", func(t *testing.T) {
		foodLog := &MockFoodLog{}
		svc := newTestNutritionService(nil, foodLog, &MockUSDAClient{foodResult: food})
		_, err := svc.ImportFood(ctx, "u1", "168462", "yesterday", 1)
		assert.ErrorIs(t, err, domain.ErrInvalidDate)
		assert.Empty(t, foodLog.entries)
	})
}

func TestSearchFoods(t *testing.T) {
	ctx := context.Background()
	client := &MockUSDAClient{searchResult: &domain.USDASearchResponse{Foods: []domain.USDAFood{
		{FdcID: 1, Description: "Yogurt, Greek, plain, nonfat", DataType: "SR Legacy"},
		{FdcID: 2, Description: "Frozen yogurt, chocolate", DataType: "Survey (FNDDS)"},
	}}}
	svc := newTestNutritionService(nil, nil, client)

	matches, err := svc.SearchFoods(ctx, "Greek yogurt 170g")

	require.NoError(t, err)
	assert.Equal(t, "greek yogurt", client.lastQuery)
	require.Len(t, matches, 2)
	assert.Equal(t, "1", matches[0].FdcID)

	_, err = svc.SearchFoods(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = newTestNutritionService(nil, nil, nil).SearchFoods(ctx, "yogurt")
	assert.ErrorIs(t, err, domain.ErrFoodDataUnavailable)
}

func TestLogFoodByName(t *testing.T) {
	ctx := context.Background()
	spinach := domain.USDAFood{FdcID: 168462, Description: "Spinach, raw", DataType: "SR Legacy"}

	t.Run("logs the best match", func(t *testing.T) {
		foodLog := &MockFoodLog{}
		client := &MockUSDAClient{
			searchResult: &domain.USDASearchResponse{Foods: []domain.USDAFood{spinach}},
			foodResult:   &spinach,
		}
		svc := newTestNutritionService(nil, foodLog, client)

		entry, match, err := svc.LogFoodByName(ctx, "u1", "Raw spinach", "2024-06-15", 2)
		require.NoError(t, err)
		assert.Equal(t, "168462", match.FdcID)
		assert.Equal(t, "168462", client.lastFdcID)
		assert.Equal(t, "usda:168462", entry.Source)
		assert.Len(t, foodLog.entries, 1)
	})

	t.Run("weak match returns suggestion", func(t *testing.T) {
		foodLog := &MockFoodLog{}
		client := &MockUSDAClient{searchResult: &domain.USDASearchResponse{Foods: []domain.USDAFood{spinach}}}
		svc := newTestNutritionService(nil, foodLog, client)
		metrics := observability.NewMetricsForTesting()
		svc.SetMetrics(metrics)

		entry, match, err := svc.LogFoodByName(ctx, "u1", "birthday cake", "2024-06-15", 1)
		assert.ErrorIs(t, err, domain.ErrLowConfidence)
		assert.Nil(t, entry)
		require.NotNil(t, match)
		assert.Equal(t, "Spinach, raw", match.Description)
		assert.Empty(t, foodLog.entries)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.USDAImports.WithLabelValues("low_confidence")))
	})

	t.Run("search failure", func(t *testing.T) {
		client := &MockUSDAClient{searchError: domain.ErrProductNotFound}
		svc := newTestNutritionService(nil, &MockFoodLog{}, client)

		_, match, err := svc.LogFoodByName(ctx, "u1", "unobtainium", "2024-06-15", 1)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Nil(t, match)
	})
}
