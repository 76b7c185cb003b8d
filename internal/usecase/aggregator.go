package usecase

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vitalsync/backend/internal/domain"
)

const (
	// MaxIntakeValue is the largest single micronutrient amount accepted
	MaxIntakeValue = 10000

	// highTotalThreshold flags daily totals that are probably unit mistakes
	highTotalThreshold = 1000
)

// macroKeys never count as micronutrients even if a food log puts them there
var macroKeys = map[string]bool{
	"protein":  true,
	"carbs":    true,
	"fat":      true,
	"calories": true,
	"name":     true,
	"unit":     true,
}

// mcgBiasedMinerals are routinely reported in mcg by food sources although
// their reference values are in mg
var mcgBiasedMinerals = map[string]bool{
	"zinc":     true,
	"selenium": true,
	"copper":   true,
}

// highTotalExempt nutrients legitimately exceed highTotalThreshold mg a day
var highTotalExempt = map[string]bool{
	"calcium":   true,
	"vitamin_c": true,
}

// Aggregate folds the most recent day of entries into macro and micronutrient
// totals. entries must be ordered newest date first: only entries sharing the
// date of entries[0] are counted. Inputs are never modified.
func Aggregate(entries []domain.FoodEntry, sink domain.DiagnosticSink) domain.AggregateReport {
	if sink == nil {
		sink = domain.Discard
	}
	report := domain.AggregateReport{MicroSums: make(map[string]domain.NutrientValue)}
	if len(entries) == 0 {
		return report
	}

	report.Date = entries[0].Date
	for _, entry := range entries {
		if entry.Date != report.Date {
			continue
		}
		report.MacroSums.Protein += float64(entry.Protein)
		report.MacroSums.Carbs += float64(entry.Carbs)
		report.MacroSums.Fat += float64(entry.Fat)
		report.MacroSums.Calories += float64(entry.Calories)

		addMicronutrients(report.MicroSums, entry, sink)
	}

	for _, key := range sortedKeys(report.MicroSums) {
		total := report.MicroSums[key]
		if total.Value > highTotalThreshold && !highTotalExempt[key] {
			sink.Report(domain.Diagnostic{
				Kind:     domain.DiagHighTotal,
				Nutrient: key,
				Value:    total.Value,
				Unit:     total.Unit,
				Message:  fmt.Sprintf("unusually high %s total: %g %s", key, total.Value, total.Unit),
			})
		}
	}
	return report
}

func addMicronutrients(sums map[string]domain.NutrientValue, entry domain.FoodEntry, sink domain.DiagnosticSink) {
	for _, key := range sortedKeys(entry.Micronutrients) {
		if macroKeys[strings.ToLower(key)] {
			continue
		}
		raw := entry.Micronutrients[key]

		nv, ok := NormalizeIntake(raw, domain.UnitMilligram)
		if !ok {
			sink.Report(domain.Diagnostic{
				Kind:     domain.DiagUnexpectedFormat,
				Nutrient: key,
				Message:  fmt.Sprintf("unrecognized value for %s in %q: %s", key, entry.Name, describeIntake(raw)),
			})
			continue
		}

		if mcgBiasedMinerals[key] && nv.Unit == domain.UnitMicrogram {
			converted := Convert(nv.Value, domain.UnitMicrogram, domain.UnitMilligram)
			sink.Report(domain.Diagnostic{
				Kind:     domain.DiagUnitConverted,
				Nutrient: key,
				Value:    converted,
				Unit:     domain.UnitMilligram,
				Message:  fmt.Sprintf("converted %s from %g mcg to %g mg", key, nv.Value, converted),
			})
			nv = domain.NutrientValue{Value: converted, Unit: domain.UnitMilligram}
		}

		if nv.Value < 0 || nv.Value > MaxIntakeValue {
			sink.Report(domain.Diagnostic{
				Kind:     domain.DiagOutOfRange,
				Nutrient: key,
				Value:    nv.Value,
				Unit:     nv.Unit,
				Message:  fmt.Sprintf("suspicious %s value in %q: %g %s, skipping", key, entry.Name, nv.Value, nv.Unit),
			})
			continue
		}

		total := sums[key]
		total.Value += nv.Value
		total.Unit = nv.Unit
		sums[key] = total
	}
}

// SortNewestFirst orders entries by date descending, keeping the relative
// order of entries that share a date. Aggregate expects this order.
func SortNewestFirst(entries []domain.FoodEntry) {
	slices.SortStableFunc(entries, func(a, b domain.FoodEntry) int {
		return cmp.Compare(b.Date, a.Date)
	})
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	return slices.Sorted(maps.Keys(m))
}
