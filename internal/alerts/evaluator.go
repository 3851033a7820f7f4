package alerts

import (
	"fmt"

	"github.com/ecotrack/energy-dashboard/internal/domain"
)

// Scope selects which alerts apply: a concrete project id, or nil for the
// "all projects" view where only global alerts match.
type Scope struct {
	ProjectID *int64
}

// Totals are the current period totals the thresholds are compared against.
type Totals struct {
	Consumption float64
	Generation  float64
}

// InScope reports whether an alert applies under the scope: global alerts
// always, project alerts only when the active project matches exactly.
func InScope(alert domain.Alert, scope Scope) bool {
	if alert.Global {
		return true
	}
	if alert.ProjectID == nil || scope.ProjectID == nil {
		return false
	}
	return *alert.ProjectID == *scope.ProjectID
}

// Evaluate runs every in-scope, active alert against the totals and returns
// the triggered messages in input order. Comparisons are strict: a value
// equal to the threshold never triggers.
func Evaluate(alerts []domain.Alert, scope Scope, totals Totals) []string {
	var triggered []string
	for _, alert := range alerts {
		if !InScope(alert, scope) || !alert.Active {
			continue
		}

		value := totals.Consumption
		if alert.Type == domain.DataTypeGeneration {
			value = totals.Generation
		}

		fired := (alert.Condition == domain.ConditionAbove && value > alert.Threshold) ||
			(alert.Condition == domain.ConditionBelow && value < alert.Threshold)
		if !fired {
			continue
		}

		triggered = append(triggered, fmt.Sprintf(
			"%s: %s is %s threshold of %g kWh (Current: %.1f kWh)",
			alert.Name, alert.Type, alert.Condition, alert.Threshold, value,
		))
	}
	return triggered
}
