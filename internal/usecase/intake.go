package usecase

import (
	"fmt"

	"github.com/vitalsync/backend/internal/domain"
)

// NormalizeIntake turns a raw intake into a value/unit pair. Bare numbers,
// numeric strings and objects without a unit take fallback as their unit.
// The second result is false for InvalidIntake.
func NormalizeIntake(in domain.RawIntake, fallback domain.Unit) (domain.NutrientValue, bool) {
	switch v := in.(type) {
	case domain.NumberIntake:
		return domain.NutrientValue{Value: float64(v), Unit: fallback}, true
	case domain.TextIntake:
		n, _ := domain.ParseNumber(string(v))
		return domain.NutrientValue{Value: n, Unit: fallback}, true
	case domain.ValueUnitIntake:
		unit := v.Unit
		if unit == "" {
			unit = fallback
		}
		return domain.NutrientValue{Value: v.Value, Unit: unit}, true
	case domain.InvalidIntake:
		return domain.NutrientValue{}, false
	case nil:
		return domain.NutrientValue{}, false
	default:
		panic(fmt.Sprintf("usecase: unhandled intake type %T", in))
	}
}

func describeIntake(in domain.RawIntake) string {
	if inv, ok := in.(domain.InvalidIntake); ok {
		return inv.Raw
	}
	return fmt.Sprintf("%v", in)
}
