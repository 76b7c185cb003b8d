package usecase

import (
	"math"
	"slices"
	"strings"

	"github.com/vitalsync/backend/internal/domain"
)

var activityMultipliers = map[string]float64{
	"Very High": 1.2,
	"High":      1.15,
	"Moderate":  1.1,
	"Low":       1.05,
	"Sedentary": 1.0,
}

type severityFactors struct {
	primary   float64
	secondary float64
}

var covidFactors = map[string]severityFactors{
	"Mild":        {primary: 1.2, secondary: 1.1},
	"Moderate":    {primary: 1.5, secondary: 1.3},
	"Severe":      {primary: 1.8, secondary: 1.5},
	"Very Severe": {primary: 2.0, secondary: 1.7},
}

var (
	underweightBoost = []string{"vitamin_a", "vitamin_c", "vitamin_d", "iron", "zinc"}
	obesityBoost     = []string{"vitamin_d", "magnesium", "vitamin_e"}
	pregnancyBoost   = []string{"folate", "iron", "calcium", "vitamin_d"}
	lactationBoost   = []string{"calcium", "vitamin_a", "vitamin_c", "vitamin_b6"}
	activityBoost    = []string{"magnesium", "iron", "vitamin_b1", "vitamin_b2", "vitamin_b3", "vitamin_b6"}
	anemiaBoost      = []string{"iron", "vitamin_b12", "folate", "vitamin_c"}
	covidPrimary     = []string{"vitamin_c", "vitamin_d", "zinc", "selenium"}
	covidSecondary   = []string{"vitamin_a", "vitamin_e", "vitamin_b6", "vitamin_b12", "folate", "iron"}
	covidTertiary    = []string{"magnesium", "copper", "vitamin_b1", "vitamin_b2", "vitamin_b3"}
)

// PersonalizeRDA returns a copy of base with every target scaled for the
// profile. Values are rounded to one decimal and IsAdjusted is set when the
// rounded value differs from the base. Unusable entries are copied as is.
func PersonalizeRDA(base *domain.RDATable, profile domain.UserProfile) *domain.RDATable {
	out := base.Clone()
	for _, key := range out.Keys() {
		entry, _ := out.Get(key)
		value, ok := entry.Amount()
		if !ok {
			continue
		}

		adjusted := math.Round(value*multiplierFor(key, entry, profile)*10) / 10
		entry.Value = &adjusted
		entry.IsAdjusted = adjusted != value
		out.Set(key, entry)
	}
	return out
}

func multiplierFor(key string, entry domain.RDAEntry, p domain.UserProfile) float64 {
	m := 1.0
	female := strings.EqualFold(p.Gender, "female")

	if female && entry.FemaleAdjust > 0 {
		m *= entry.FemaleAdjust
	}

	if p.Age > 0 {
		switch {
		case p.Age >= 70:
			m *= pick(key, map[string]float64{"vitamin_d": 1.2, "vitamin_b12": 1.1, "calcium": 1.15})
		case p.Age >= 50:
			m *= pick(key, map[string]float64{"vitamin_d": 1.1, "vitamin_b12": 1.05})
		case p.Age <= 18:
			m *= pick(key, map[string]float64{"calcium": 1.15, "iron": 1.1})
		}
	}

	if p.WeightKg > 0 && p.HeightCm > 0 {
		heightM := p.HeightCm / 100
		bmi := p.WeightKg / (heightM * heightM)
		switch {
		case bmi < 18.5 && slices.Contains(underweightBoost, key):
			m *= 1.15
		case bmi > 30 && slices.Contains(obesityBoost, key):
			m *= 1.2
		}
	}

	if female {
		switch {
		case p.Pregnant && slices.Contains(pregnancyBoost, key):
			m *= 1.5
		case p.Pregnant:
			m *= 1.2
		case p.Lactating && slices.Contains(lactationBoost, key):
			m *= 1.4
		case p.Lactating:
			m *= 1.2
		}
	}

	if p.ActivityLevel != "" && slices.Contains(activityBoost, key) {
		if factor, ok := activityMultipliers[p.ActivityLevel]; ok {
			m *= factor
		}
	}

	if slices.Contains(p.MedicalConditions, "anemia") && slices.Contains(anemiaBoost, key) {
		m *= 1.5
	}

	if p.CovidSeverity != "" {
		factors, ok := covidFactors[p.CovidSeverity]
		if !ok {
			factors = covidFactors["Moderate"]
		}
		switch {
		case slices.Contains(covidPrimary, key):
			m *= factors.primary
		case slices.Contains(covidSecondary, key):
			m *= factors.secondary
		case slices.Contains(covidTertiary, key):
			m *= 1.1
		}
	}
	return m
}

func pick(key string, factors map[string]float64) float64 {
	if f, ok := factors[key]; ok {
		return f
	}
	return 1
}
