package usecase

import (
	"fmt"

	"github.com/vitalsync/backend/internal/domain"
)

// Reconcile aligns intake to the units of the RDA table. The result has one
// entry for every usable table key; intake keys missing from the table are
// dropped. Problems are reported to sink and never abort the computation.
func Reconcile(intake map[string]domain.RawIntake, table *domain.RDATable, sink domain.DiagnosticSink) domain.ReconciledIntake {
	if sink == nil {
		sink = domain.Discard
	}
	out := make(domain.ReconciledIntake, table.Len())

	for _, key := range table.Keys() {
		entry, _ := table.Get(key)
		if _, ok := entry.Amount(); !ok {
			sink.Report(domain.Diagnostic{
				Kind:     domain.DiagInvalidReference,
				Nutrient: key,
				Message:  fmt.Sprintf("invalid RDA data for %s: value or unit missing", key),
			})
			continue
		}

		raw, present := intake[key]
		if !present {
			out[key] = domain.NutrientValue{Value: 0, Unit: entry.Unit}
			continue
		}
		out[key] = reconcileOne(key, raw, entry.Unit, sink)
	}
	return out
}

// ReconcileReport reconciles the micronutrient sums of an aggregate
func ReconcileReport(report domain.AggregateReport, table *domain.RDATable, sink domain.DiagnosticSink) domain.ReconciledIntake {
	return Reconcile(report.Intake(), table, sink)
}

func reconcileOne(key string, raw domain.RawIntake, rdaUnit domain.Unit, sink domain.DiagnosticSink) domain.NutrientValue {
	switch v := raw.(type) {
	case domain.ValueUnitIntake:
		if v.Unit == "" {
			break
		}
		if v.Unit == rdaUnit {
			return domain.NutrientValue{Value: v.Value, Unit: v.Unit}
		}
		if Convertible(v.Unit, rdaUnit) {
			return domain.NutrientValue{Value: Convert(v.Value, v.Unit, rdaUnit), Unit: rdaUnit}
		}
		sink.Report(domain.Diagnostic{
			Kind:     domain.DiagUnresolvedUnit,
			Nutrient: key,
			Value:    v.Value,
			Unit:     v.Unit,
			Message:  fmt.Sprintf("no conversion from %s to %s for %s, value kept as is", v.Unit, rdaUnit, key),
		})
		return domain.NutrientValue{Value: v.Value, Unit: v.Unit}
	case domain.NumberIntake, domain.TextIntake:
		nv, _ := NormalizeIntake(v, rdaUnit)
		return nv
	}

	sink.Report(domain.Diagnostic{
		Kind:     domain.DiagUnexpectedFormat,
		Nutrient: key,
		Message:  fmt.Sprintf("unexpected intake format for %s: %s", key, describeIntake(raw)),
	})
	return domain.NutrientValue{Value: 0, Unit: rdaUnit}
}
