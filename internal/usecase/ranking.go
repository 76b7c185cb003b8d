package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vitalsync/backend/internal/domain"
)

const (
	// highPercentThreshold flags percentages that usually mean a missed unit conversion
	highPercentThreshold = 10000

	deficientDisplayCutoff = 90
	deficientSummaryCutoff = 70
	optimalSummaryCutoff   = 100
)

// Display modes accepted by Filter
const (
	DisplayAll       = "all"
	DisplayDeficient = "deficient"
	DisplayOptimal   = "optimal"
)

// Rank computes percent-of-RDA for every usable table key and sorts the rows
// ascending so the largest deficiencies come first. Ties keep table order.
func Rank(reconciled domain.ReconciledIntake, table *domain.RDATable, sink domain.DiagnosticSink) []domain.RankedNutrient {
	if sink == nil {
		sink = domain.Discard
	}
	ranked := make([]domain.RankedNutrient, 0, table.Len())

	for _, key := range table.Keys() {
		entry, _ := table.Get(key)
		rda, ok := entry.Amount()
		if !ok {
			continue
		}

		intake := reconciled[key].Value
		percent := 0.0
		if rda > 0 {
			percent = intake / rda * 100
		}
		if percent > highPercentThreshold {
			sink.Report(domain.Diagnostic{
				Kind:     domain.DiagHighPercent,
				Nutrient: key,
				Value:    percent,
				Message:  fmt.Sprintf("extremely high percentage for %s: %.1f%%, possible unit error", key, percent),
			})
		}

		ranked = append(ranked, domain.RankedNutrient{
			Key:           key,
			Name:          DisplayName(key),
			RawValue:      intake,
			Unit:          entry.Unit,
			RDA:           rda,
			RDAUnit:       entry.Unit,
			IsAdjustedRDA: entry.IsAdjusted,
			PercentOfRDA:  percent,
			Category:      CategoryOf(key),
			Status:        StatusFor(percent),
			Description:   entry.Description,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PercentOfRDA < ranked[j].PercentOfRDA
	})
	return ranked
}

// DisplayName turns a nutrient key such as "vitamin_b12" into "Vitamin B12"
func DisplayName(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// CategoryOf classifies a nutrient key as vitamins or minerals
func CategoryOf(key string) string {
	if strings.Contains(key, "vitamin") {
		return domain.CategoryVitamins
	}
	return domain.CategoryMinerals
}

// StatusFor buckets a percent-of-RDA into a coverage band
func StatusFor(percent float64) string {
	switch {
	case percent >= 100:
		return "optimal"
	case percent >= 70:
		return "good"
	case percent >= 50:
		return "fair"
	case percent >= 30:
		return "low"
	default:
		return "deficient"
	}
}

// Filter narrows ranked rows by display mode and category. Empty values mean all.
func Filter(ranked []domain.RankedNutrient, mode, category string) []domain.RankedNutrient {
	out := make([]domain.RankedNutrient, 0, len(ranked))
	for _, n := range ranked {
		switch mode {
		case DisplayDeficient:
			if n.PercentOfRDA >= deficientDisplayCutoff {
				continue
			}
		case DisplayOptimal:
			if n.PercentOfRDA < deficientDisplayCutoff {
				continue
			}
		}
		if category != "" && category != domain.CategoryAll && n.Category != category {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Summarize counts deficient and optimal rows
func Summarize(ranked []domain.RankedNutrient) domain.RankSummary {
	summary := domain.RankSummary{Total: len(ranked)}
	for _, n := range ranked {
		if n.PercentOfRDA < deficientSummaryCutoff {
			summary.Deficient++
		}
		if n.PercentOfRDA >= optimalSummaryCutoff {
			summary.Optimal++
		}
	}
	return summary
}
