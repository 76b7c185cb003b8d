package usecase

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/vitalsync/backend/internal/domain"
)

var (
	punctuationPattern = regexp.MustCompile(`[^\w\s]`)
	// "12 oz", "1.5 cups", "200g", "2 slices"
	portionPattern = regexp.MustCompile(`\b\d+\.?\d*\s*(fl\s*)?(oz|ounces?|lbs?|g|grams?|kg|ml|cups?|tbsp|tsp|slices?|pieces?|servings?)\b`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// Token weights for scoring
const (
	weightFood        = 3.0
	weightDescriptive = 2.0
	weightDefault     = 1.0
	fuzzyWeightFactor = 0.8
)

// USDA data type bonuses. Whole foods are preferred over branded products
// because their micronutrient panels are complete.
var dataTypeBonus = map[string]float64{
	"Foundation":     8,
	"SR Legacy":      6,
	"Survey (FNDDS)": 4,
	"Branded":        0,
}

// foodTerms carry the most weight when scoring a candidate
var foodTerms = map[string]bool{
	"chicken": true, "beef": true, "pork": true, "fish": true, "salmon": true,
	"turkey": true, "shrimp": true, "tuna": true, "oysters": true, "liver": true,
	"milk": true, "cheese": true, "yogurt": true, "egg": true, "eggs": true,
	"bread": true, "rice": true, "pasta": true, "oats": true, "quinoa": true,
	"apple": true, "banana": true, "orange": true, "spinach": true, "kale": true,
	"broccoli": true, "carrot": true, "potato": true, "tomato": true, "avocado": true,
	"beans": true, "lentils": true, "almonds": true, "nuts": true, "seeds": true,
	"strawberries": true, "blueberries": true, "peppers": true, "tofu": true,
}

// descriptiveTerms distinguish preparations of the same food
var descriptiveTerms = map[string]bool{
	"raw": true, "cooked": true, "boiled": true, "baked": true, "fried": true,
	"grilled": true, "roasted": true, "steamed": true, "canned": true, "frozen": true,
	"dried": true, "whole": true, "skim": true, "nonfat": true, "lean": true,
	"brown": true, "white": true, "red": true, "green": true, "fortified": true,
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"with": true, "in": true, "for": true, "some": true, "my": true,
	"ns": true, "nfs": true, "as": true, "to": true,
}

// MatchConfig holds configuration for the food matcher
type MatchConfig struct {
	MinConfidence      float64
	FuzzyEditDistance  int
	EnableDebugLogging bool
}

// FoodMatcher picks the USDA food that best describes a free-text meal name
type FoodMatcher struct {
	minConfidence float64
	editDistance  int
	debug         bool
}

// NewFoodMatcher creates a matcher. Zero values mean a 40% threshold and an
// edit distance of 1.
func NewFoodMatcher(config MatchConfig) *FoodMatcher {
	minConfidence := config.MinConfidence
	if minConfidence <= 0 {
		minConfidence = 40
	}
	editDistance := config.FuzzyEditDistance
	if editDistance <= 0 {
		editDistance = 1
	}
	return &FoodMatcher{minConfidence: minConfidence, editDistance: editDistance, debug: config.EnableDebugLogging}
}

// CleanQuery strips portions and punctuation from a meal name so it can be
// sent to the USDA search endpoint
func CleanQuery(name string) string {
	cleaned := portionPattern.ReplaceAllString(strings.ToLower(name), " ")
	cleaned = punctuationPattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(cleaned, " "))
}

// Rank scores every candidate against query, best first. Candidates below
// the confidence threshold are kept; callers decide what to do with them.
func (m *FoodMatcher) Rank(ctx context.Context, query string, foods []domain.USDAFood) ([]domain.FoodMatch, error) {
	queryTokens := tokenize(CleanQuery(query))
	if len(queryTokens) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	matches := make([]domain.FoodMatch, 0, len(foods))
	for _, food := range foods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, matched := m.score(queryTokens, food)
		if m.debug {
			log.Printf("[MATCH] %q vs %q (%s): %.1f %v", query, food.Description, food.DataType, score, matched)
		}
		matches = append(matches, domain.FoodMatch{
			FdcID:         strconv.Itoa(food.FdcID),
			Description:   food.Description,
			DataType:      food.DataType,
			Score:         score,
			MatchedTokens: matched,
		})
	}
	sortMatches(matches)
	return matches, nil
}

// BestMatch returns the top candidate, or ErrLowConfidence alongside it when
// the score is under the threshold
func (m *FoodMatcher) BestMatch(ctx context.Context, query string, foods []domain.USDAFood) (*domain.FoodMatch, error) {
	if len(foods) == 0 {
		return nil, domain.ErrProductNotFound
	}
	matches, err := m.Rank(ctx, query, foods)
	if err != nil {
		return nil, err
	}
	best := matches[0]
	if best.Score < m.minConfidence {
		return &best, domain.ErrLowConfidence
	}
	return &best, nil
}

// score combines weighted query coverage (70%) with a Jaccard overlap (30%)
// and adds a data type bonus. The result is capped at 100.
func (m *FoodMatcher) score(queryTokens []string, food domain.USDAFood) (float64, []string) {
	foodTokens := tokenize(food.Description)
	if len(foodTokens) == 0 {
		return 0, nil
	}

	var totalWeight, matchedWeight float64
	var matched []string
	exact := 0
	for _, qt := range queryTokens {
		w := tokenWeight(qt)
		totalWeight += w
		switch {
		case containsToken(foodTokens, qt):
			matchedWeight += w
			matched = append(matched, qt)
			exact++
		case m.fuzzyContains(foodTokens, qt):
			matchedWeight += w * fuzzyWeightFactor
			matched = append(matched, qt+"~")
		}
	}

	coverage := matchedWeight / totalWeight
	jaccard := float64(exact) / float64(unionSize(queryTokens, foodTokens))
	score := (coverage*0.7+jaccard*0.3)*100 + dataTypeBonus[food.DataType]

	// USDA descriptions lead with the food itself ("Spinach, raw")
	if len(matched) > 0 && foodTokens[0] == queryTokens[0] {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score, matched
}

func (m *FoodMatcher) fuzzyContains(tokens []string, token string) bool {
	for _, t := range tokens {
		if fuzzyTokenMatch(t, token, m.editDistance) {
			return true
		}
	}
	return false
}

func sortMatches(matches []domain.FoodMatch) {
	// insertion sort keeps equal scores in USDA relevance order
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Score > matches[j-1].Score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}

func tokenWeight(token string) float64 {
	switch {
	case foodTerms[token]:
		return weightFood
	case descriptiveTerms[token]:
		return weightDescriptive
	default:
		return weightDefault
	}
}

// tokenize lowercases s and drops punctuation, stop words, numbers and
// single letters
func tokenize(s string) []string {
	words := strings.Fields(punctuationPattern.ReplaceAllString(strings.ToLower(s), " "))
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= 1 || stopWords[w] || isNumeric(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func unionSize(a, b []string) int {
	set := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		set[t] = true
	}
	return len(set)
}

// fuzzyTokenMatch reports whether two tokens of 4+ characters are within
// threshold edits of each other
func fuzzyTokenMatch(a, b string, threshold int) bool {
	if a == b {
		return true
	}
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > threshold {
		return false
	}
	return levenshteinDistance(a, b) <= threshold
}

// levenshteinDistance is the classic two-row edit distance
func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}
