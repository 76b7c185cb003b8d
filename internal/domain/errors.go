package domain

import "errors"

var (
	// ErrProductNotFound is returned when a food cannot be found in USDA database
	ErrProductNotFound = errors.New("food not found in USDA database")

	// ErrLowConfidence is returned when no USDA candidate matches a food name well enough
	ErrLowConfidence = errors.New("no confident food match")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidDate is returned when a date string is not a real YYYY-MM-DD calendar date
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidTimezone is returned when a timezone is not a known IANA identifier
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidRecordID is returned when a record identifier does not have the owner_YYYYMMDD_HHMMSS shape
	ErrInvalidRecordID = errors.New("invalid record identifier")

	// ErrNotFound is returned when a stored record does not exist
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrUSDAAPIFailure is returned when USDA API request fails
	ErrUSDAAPIFailure = errors.New("USDA API request failed")

	// ErrFoodDataUnavailable is returned when food import is requested but no USDA client is configured
	ErrFoodDataUnavailable = errors.New("food data source not configured")
)
