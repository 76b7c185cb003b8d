package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/vitalsync/backend/internal/domain"
	"github.com/vitalsync/backend/internal/infrastructure/usda"
	"github.com/vitalsync/backend/internal/observability"
)

// NutritionServiceConfig holds configuration for the nutrition service
type NutritionServiceConfig struct {
	CacheTTL   time.Duration
	EntryLimit int
	Match      MatchConfig
}

// ReportRequest selects how a report is personalized and filtered
type ReportRequest struct {
	Profile  domain.UserProfile `json:"profile"`
	Mode     string             `json:"mode,omitempty"`
	Category string             `json:"category,omitempty"`
}

// NutritionService turns food logs into percent-of-RDA reports
type NutritionService struct {
	cache      domain.CacheRepository
	foodLog    domain.FoodLogRepository
	usdaClient domain.USDAClient
	rda        *domain.RDATable
	sink       domain.DiagnosticSink
	cacheTTL   time.Duration
	entryLimit int
	matcher    *FoodMatcher
	metrics    *observability.Metrics
}

// NewNutritionService creates a new nutrition service with dependencies.
// cache, foodLog and usdaClient may be nil: reports are then uncached,
// stored logs are unavailable, or USDA import is disabled respectively.
func NewNutritionService(
	cache domain.CacheRepository,
	foodLog domain.FoodLogRepository,
	usdaClient domain.USDAClient,
	rda *domain.RDATable,
	sink domain.DiagnosticSink,
	config NutritionServiceConfig,
) *NutritionService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}
	entryLimit := config.EntryLimit
	if entryLimit <= 0 {
		entryLimit = 500
	}
	if sink == nil {
		sink = domain.Discard
	}

	return &NutritionService{
		cache:      cache,
		foodLog:    foodLog,
		usdaClient: usdaClient,
		rda:        rda,
		sink:       sink,
		cacheTTL:   cacheTTL,
		entryLimit: entryLimit,
		matcher:    NewFoodMatcher(config.Match),
	}
}

// SetMetrics enables report and import counters
func (s *NutritionService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// Analyze runs the full pipeline over entries, which must be ordered newest
// date first. Diagnostics are attached to the report and forwarded to the
// service sink.
func (s *NutritionService) Analyze(entries []domain.FoodEntry, request ReportRequest) *domain.NutritionReport {
	collector := &domain.Collector{}
	sink := domain.MultiSink(collector, s.sink)

	aggregate := Aggregate(entries, sink)
	table := PersonalizeRDA(s.rda, request.Profile)
	reconciled := ReconcileReport(aggregate, table, sink)
	ranked := Rank(reconciled, table, sink)

	if s.metrics != nil {
		s.metrics.ReportsComputed.Inc()
	}
	return &domain.NutritionReport{
		Date:        aggregate.Date,
		Macros:      aggregate.MacroSums,
		Nutrients:   Filter(ranked, request.Mode, request.Category),
		Summary:     Summarize(ranked),
		Diagnostics: collector.Diagnostics(),
	}
}

// DailyReport analyzes the most recent logged day of an owner.
// Flow: check cache -> load food log -> analyze -> cache -> return
func (s *NutritionService) DailyReport(ctx context.Context, ownerID string, request ReportRequest) (*domain.NutritionReport, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.foodLog == nil {
		return nil, fmt.Errorf("%w: no food log configured", domain.ErrNotFound)
	}

	cacheKey := s.generateCacheKey(ctx, ownerID, request)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.countCache("hit")
		return cached, nil
	}
	s.countCache("miss")

	entries, err := s.foodLog.ListFoodEntries(ctx, ownerID, s.entryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading food log: %w", err)
	}

	report := s.Analyze(entries, request)

	// Caching is best effort; a failed write only costs a recomputation.
	_ = s.setInCache(ctx, cacheKey, report)

	return report, nil
}

// LogFood validates and stores a new entry, invalidating cached reports
func (s *NutritionService) LogFood(ctx context.Context, ownerID string, entry domain.FoodEntry) (string, error) {
	if ownerID == "" || strings.TrimSpace(entry.Name) == "" {
		return "", domain.ErrInvalidRequest
	}
	if !ValidDate(entry.Date) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDate, entry.Date)
	}
	if s.foodLog == nil {
		return "", fmt.Errorf("%w: no food log configured", domain.ErrNotFound)
	}

	// Logging always creates a new entry; ids are assigned by the store
	entry.ID = ""
	id, err := s.foodLog.SaveFoodEntry(ctx, ownerID, entry)
	if err != nil {
		return "", fmt.Errorf("saving food entry: %w", err)
	}
	s.bumpReportVersion(ctx, ownerID)
	return id, nil
}

// ImportFood fetches a USDA food, scales it to the given servings of 100 g
// and logs it for date
func (s *NutritionService) ImportFood(ctx context.Context, ownerID, fdcID, date string, servings float64) (*domain.FoodEntry, error) {
	if s.usdaClient == nil {
		return nil, domain.ErrFoodDataUnavailable
	}
	if fdcID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if servings <= 0 {
		servings = 1
	}

	food, err := s.usdaClient.GetFoodDetails(ctx, fdcID)
	if err != nil {
		s.countImport("error")
		return nil, err
	}

	entry := usda.MapToFoodEntry(food, date, servings)
	id, err := s.LogFood(ctx, ownerID, entry)
	if err != nil {
		s.countImport("error")
		return nil, err
	}
	s.countImport("success")
	entry.ID = id
	return &entry, nil
}

// SearchFoods ranks USDA search results for a free-text food name
func (s *NutritionService) SearchFoods(ctx context.Context, query string) ([]domain.FoodMatch, error) {
	if s.usdaClient == nil {
		return nil, domain.ErrFoodDataUnavailable
	}
	cleaned := CleanQuery(query)
	if cleaned == "" {
		return nil, domain.ErrInvalidRequest
	}
	response, err := s.usdaClient.SearchFoods(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	return s.matcher.Rank(ctx, cleaned, response.Foods)
}

// LogFoodByName searches USDA for name, imports the best candidate and logs
// it. A weak best match is rejected with ErrLowConfidence and returned so the
// caller can offer it as a suggestion.
func (s *NutritionService) LogFoodByName(ctx context.Context, ownerID, name, date string, servings float64) (*domain.FoodEntry, *domain.FoodMatch, error) {
	if s.usdaClient == nil {
		return nil, nil, domain.ErrFoodDataUnavailable
	}
	cleaned := CleanQuery(name)
	if cleaned == "" {
		return nil, nil, domain.ErrInvalidRequest
	}
	response, err := s.usdaClient.SearchFoods(ctx, cleaned)
	if err != nil {
		s.countImport("error")
		return nil, nil, err
	}
	match, err := s.matcher.BestMatch(ctx, cleaned, response.Foods)
	if errors.Is(err, domain.ErrLowConfidence) {
		s.countImport("low_confidence")
		return nil, match, err
	}
	if err != nil {
		s.countImport("error")
		return nil, nil, err
	}
	entry, err := s.ImportFood(ctx, ownerID, match.FdcID, date, servings)
	if err != nil {
		return nil, match, err
	}
	return entry, match, nil
}

func (s *NutritionService) countCache(result string) {
	if s.metrics != nil && s.cache != nil {
		s.metrics.ReportCache.WithLabelValues(result).Inc()
	}
}

func (s *NutritionService) countImport(outcome string) {
	if s.metrics != nil {
		s.metrics.USDAImports.WithLabelValues(outcome).Inc()
	}
}

// generateCacheKey creates a cache key for one owner and report variant.
// Format: "report:{owner}:v{version}:{profileHash}:{mode}:{category}"
func (s *NutritionService) generateCacheKey(ctx context.Context, ownerID string, request ReportRequest) string {
	return fmt.Sprintf("report:%s:v%d:%s:%s:%s",
		ownerID,
		s.reportVersion(ctx, ownerID),
		profileHash(request.Profile),
		strings.ToLower(request.Mode),
		strings.ToLower(request.Category),
	)
}

func profileHash(p domain.UserProfile) string {
	data, _ := json.Marshal(p)
	h := fnv.New64a()
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}

func versionKey(ownerID string) string {
	return "report-version:" + ownerID
}

// reportVersion reads the owner's report generation. Logging food bumps it,
// which orphans every cached report of that owner.
func (s *NutritionService) reportVersion(ctx context.Context, ownerID string) int64 {
	if s.cache == nil {
		return 0
	}
	value, err := s.cache.Get(ctx, versionKey(ownerID))
	if err != nil {
		return 0
	}
	switch v := value.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *NutritionService) bumpReportVersion(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	next := s.reportVersion(ctx, ownerID) + 1
	_ = s.cache.Set(ctx, versionKey(ownerID), next, 30*24*time.Hour)
}

// getFromCache retrieves a report from cache
func (s *NutritionService) getFromCache(ctx context.Context, key string) (*domain.NutritionReport, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if report, ok := value.(*domain.NutritionReport); ok {
		return report, nil
	}

	// The memory cache stores JSON-shaped values, so decode back into the report
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Join(domain.ErrCacheMiss, err)
	}
	var report domain.NutritionReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Join(domain.ErrCacheMiss, err)
	}
	return &report, nil
}

// setInCache stores a report in cache
func (s *NutritionService) setInCache(ctx context.Context, key string, report *domain.NutritionReport) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, report, s.cacheTTL)
}
