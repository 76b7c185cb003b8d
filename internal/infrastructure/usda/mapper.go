package usda

import (
	"fmt"

	"github.com/vitalsync/backend/internal/domain"
)

// USDA Nutrient IDs for key macronutrients
const (
	NutrientIDEnergy       = 1008 // Calories (kcal)
	NutrientIDProtein      = 1003 // Protein (g)
	NutrientIDCarbohydrate = 1005 // Carbohydrates (g)
	NutrientIDTotalFat     = 1004 // Total Fat (g)
)

// micronutrientKeys maps USDA nutrient IDs to the keys of the RDA table
var micronutrientKeys = map[int]string{
	1106: "vitamin_a",   // Vitamin A, RAE (UG)
	1162: "vitamin_c",   // Vitamin C, total ascorbic acid (MG)
	1114: "vitamin_d",   // Vitamin D (D2 + D3) (UG)
	1109: "vitamin_e",   // Vitamin E (alpha-tocopherol) (MG)
	1175: "vitamin_b6",  // Vitamin B-6 (MG)
	1178: "vitamin_b12", // Vitamin B-12 (UG)
	1177: "folate",      // Folate, total (UG)
	1089: "iron",        // Iron, Fe (MG)
	1087: "calcium",     // Calcium, Ca (MG)
	1090: "magnesium",   // Magnesium, Mg (MG)
	1095: "zinc",        // Zinc, Zn (MG)
	1103: "selenium",    // Selenium, Se (UG)
	1098: "copper",      // Copper, Cu (MG)
	1165: "vitamin_b1",  // Thiamin (MG)
	1166: "vitamin_b2",  // Riboflavin (MG)
	1167: "vitamin_b3",  // Niacin (MG)
}

// MapToFoodEntry converts a USDA food (values per 100 g) into a food log
// entry for date, scaled by servings
func MapToFoodEntry(food *domain.USDAFood, date string, servings float64) domain.FoodEntry {
	entry := domain.FoodEntry{
		Date:           date,
		Name:           food.Description,
		Micronutrients: domain.Micronutrients{},
		Source:         fmt.Sprintf("usda:%d", food.FdcID),
	}

	for _, n := range food.Nutrients {
		id, value, unit := flatten(n)
		value *= servings
		switch id {
		case NutrientIDEnergy:
			entry.Calories = domain.Quantity(value)
		case NutrientIDProtein:
			entry.Protein = domain.Quantity(value)
		case NutrientIDCarbohydrate:
			entry.Carbs = domain.Quantity(value)
		case NutrientIDTotalFat:
			entry.Fat = domain.Quantity(value)
		default:
			if key, ok := micronutrientKeys[id]; ok {
				entry.Micronutrients[key] = domain.ValueUnitIntake{Value: value, Unit: domain.NormalizeUnit(unit)}
			}
		}
	}

	return entry
}

// flatten reads a nutrient from either the search or the detail response shape
func flatten(n domain.USDANutrient) (int, float64, string) {
	id, value, unit := n.NutrientID, n.Value, n.UnitName
	if n.Nutrient != nil {
		if id == 0 {
			id = n.Nutrient.ID
		}
		if unit == "" {
			unit = n.Nutrient.UnitName
		}
	}
	if value == 0 && n.Amount != 0 {
		value = n.Amount
	}
	return id, value, unit
}

// FindNutrientValue finds a specific nutrient value by ID
func FindNutrientValue(nutrients []domain.USDANutrient, nutrientID int) float64 {
	for _, nutrient := range nutrients {
		if id, value, _ := flatten(nutrient); id == nutrientID {
			return value
		}
	}
	return 0.0
}
