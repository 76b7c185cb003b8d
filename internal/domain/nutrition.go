package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unit is a mass unit attached to a nutrient amount
type Unit string

const (
	UnitMilligram Unit = "mg"
	UnitMicrogram Unit = "mcg"
	UnitGram      Unit = "g"
)

// NormalizeUnit maps the spellings seen in food logs and USDA payloads onto
// the canonical units. Anything unrecognized is returned trimmed but otherwise
// untouched so that it surfaces later as an unresolved unit.
func NormalizeUnit(s string) Unit {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "mg":
		return UnitMilligram
	case "mcg", "ug", "μg", "µg":
		return UnitMicrogram
	case "g":
		return UnitGram
	default:
		return Unit(trimmed)
	}
}

// Known reports whether u is one of the canonical mass units
func (u Unit) Known() bool {
	return u == UnitMilligram || u == UnitMicrogram || u == UnitGram
}

// NutrientValue is a normalized amount of a single nutrient
type NutrientValue struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// leadingNumber matches the numeric prefix of a string the way a lenient
// float parser would ("12.5mg" -> "12.5")
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber extracts the leading decimal number of s. The second result is
// false when s does not start with a number.
func ParseNumber(s string) (float64, bool) {
	match := leadingNumber.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Quantity is a macro amount that tolerates numeric strings on the wire.
// Anything that is not a number decodes to zero.
type Quantity float64

// UnmarshalJSON implements json.Unmarshaler
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Quantity(coerceNumber(raw))
	return nil
}

func coerceNumber(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case string:
		n, _ := ParseNumber(v)
		return n
	default:
		return 0
	}
}

// FoodEntry is one logged food with its macros and micronutrients
type FoodEntry struct {
	ID             string         `json:"id,omitempty"`
	Date           string         `json:"date"`
	Time           string         `json:"time,omitempty"`
	Name           string         `json:"name"`
	Protein        Quantity       `json:"protein"`
	Carbs          Quantity       `json:"carbs"`
	Fat            Quantity       `json:"fat"`
	Calories       Quantity       `json:"calories"`
	Micronutrients Micronutrients `json:"micronutrients,omitempty"`
	Source         string         `json:"source,omitempty"`
}

// MacroSums holds the daily macronutrient totals
type MacroSums struct {
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
}

// AggregateReport is the result of folding one day of food entries
type AggregateReport struct {
	Date      string                   `json:"date"`
	MacroSums MacroSums                `json:"macroSums"`
	MicroSums map[string]NutrientValue `json:"microSums"`
}

// Intake returns the micronutrient sums as raw intake values for reconciliation
func (r AggregateReport) Intake() map[string]RawIntake {
	intake := make(map[string]RawIntake, len(r.MicroSums))
	for key, v := range r.MicroSums {
		intake[key] = ValueUnitIntake{Value: v.Value, Unit: v.Unit}
	}
	return intake
}

// ReconciledIntake maps every valid RDA key to an intake in that key's RDA unit
type ReconciledIntake map[string]NutrientValue

// Nutrient categories
const (
	CategoryAll      = "all"
	CategoryVitamins = "vitamins"
	CategoryMinerals = "minerals"
)

// RankedNutrient is one row of the percent-of-RDA report
type RankedNutrient struct {
	Key           string  `json:"key"`
	Name          string  `json:"name"`
	RawValue      float64 `json:"rawValue"`
	Unit          Unit    `json:"unit"`
	RDA           float64 `json:"rda"`
	RDAUnit       Unit    `json:"rdaUnit"`
	IsAdjustedRDA bool    `json:"isAdjustedRDA"`
	PercentOfRDA  float64 `json:"percentOfRDA"`
	Category      string  `json:"category"`
	Status        string  `json:"status"`
	Description   string  `json:"description,omitempty"`
}

// RankSummary counts nutrients by coverage
type RankSummary struct {
	Total     int `json:"total"`
	Deficient int `json:"deficient"`
	Optimal   int `json:"optimal"`
}

// NutritionReport is the full daily micronutrient analysis
type NutritionReport struct {
	Date        string           `json:"date"`
	Macros      MacroSums        `json:"macros"`
	Nutrients   []RankedNutrient `json:"nutrients"`
	Summary     RankSummary      `json:"summary"`
	Diagnostics []Diagnostic     `json:"diagnostics,omitempty"`
}

// UserProfile carries the demographics used to personalize RDA targets
type UserProfile struct {
	Gender            string   `json:"gender,omitempty" yaml:"gender"`
	Age               int      `json:"age,omitempty" yaml:"age"`
	WeightKg          float64  `json:"weight,omitempty" yaml:"weight"`
	HeightCm          float64  `json:"height,omitempty" yaml:"height"`
	Pregnant          bool     `json:"pregnancy,omitempty" yaml:"pregnancy"`
	Lactating         bool     `json:"lactating,omitempty" yaml:"lactating"`
	ActivityLevel     string   `json:"activity_level,omitempty" yaml:"activity_level"`
	MedicalConditions []string `json:"medical_conditions,omitempty" yaml:"medical_conditions"`
	CovidSeverity     string   `json:"covid_severity,omitempty" yaml:"covid_severity"`
}

// USDAFood represents a food item from the USDA FoodData Central API
type USDAFood struct {
	FdcID       int            `json:"fdcId"`
	Description string         `json:"description"`
	DataType    string         `json:"dataType"`
	FoodClass   string         `json:"foodClass,omitempty"`
	Nutrients   []USDANutrient `json:"foodNutrients"`
}

// USDANutrient represents a single nutrient from USDA data.
// Search results use the flat fields while food details nest them under "nutrient".
type USDANutrient struct {
	NutrientID     int                 `json:"nutrientId"`
	NutrientName   string              `json:"nutrientName"`
	NutrientNumber string              `json:"nutrientNumber,omitempty"`
	UnitName       string              `json:"unitName"`
	Value          float64             `json:"value"`
	Amount         float64             `json:"amount,omitempty"`
	Nutrient       *USDANutrientDetail `json:"nutrient,omitempty"`
}

// USDANutrientDetail is the nested nutrient description in food detail responses
type USDANutrientDetail struct {
	ID       int    `json:"id"`
	Number   string `json:"number"`
	Name     string `json:"name"`
	UnitName string `json:"unitName"`
}

// USDASearchResponse represents the response from USDA search API
type USDASearchResponse struct {
	Foods       []USDAFood `json:"foods"`
	TotalHits   int        `json:"totalHits"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
}

// FoodMatch is a scored USDA candidate for a free-text food name
type FoodMatch struct {
	FdcID         string   `json:"fdcId"`
	Description   string   `json:"description"`
	DataType      string   `json:"dataType,omitempty"`
	Score         float64  `json:"score"`
	MatchedTokens []string `json:"matchedTokens,omitempty"`
}
