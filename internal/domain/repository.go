package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// USDAClient defines the interface for interacting with USDA FoodData Central API
type USDAClient interface {
	SearchFoods(ctx context.Context, query string) (*USDASearchResponse, error)
	GetFoodDetails(ctx context.Context, fdcID string) (*USDAFood, error)
}

// FoodLogRepository persists food entries per owner
type FoodLogRepository interface {
	// ListFoodEntries returns the owner's entries ordered by date descending,
	// newest first, which is the order the daily aggregation expects.
	ListFoodEntries(ctx context.Context, ownerID string, limit int) ([]FoodEntry, error)
	SaveFoodEntry(ctx context.Context, ownerID string, entry FoodEntry) (string, error)
}

// TimeseriesRepository persists tracker samples
type TimeseriesRepository interface {
	// ListRecords returns every record stored for the owner as a flat sequence
	ListRecords(ctx context.Context, ownerID string) ([]TimeseriesRecord, error)
	SaveRecord(ctx context.Context, record TimeseriesRecord) error
}
