package usecase

import "github.com/vitalsync/backend/internal/domain"

type conversion struct {
	factor float64
	divide bool
}

// conversions is intentionally limited to the reconciliations food data
// actually needs. Pairs not listed pass values through unchanged.
var conversions = map[[2]domain.Unit]conversion{
	{domain.UnitMilligram, domain.UnitMicrogram}: {factor: 1000},
	{domain.UnitMicrogram, domain.UnitMilligram}: {factor: 1000, divide: true},
	{domain.UnitGram, domain.UnitMilligram}:      {factor: 1000},
}

// Convert converts value from one unit to another. Unsupported pairs return
// value unchanged; use Convertible to tell the two cases apart.
func Convert(value float64, from, to domain.Unit) float64 {
	c, ok := conversions[[2]domain.Unit{from, to}]
	if !ok {
		return value
	}
	if c.divide {
		return value / c.factor
	}
	return value * c.factor
}

// Convertible reports whether Convert has a rule for from -> to
func Convertible(from, to domain.Unit) bool {
	_, ok := conversions[[2]domain.Unit{from, to}]
	return ok
}
