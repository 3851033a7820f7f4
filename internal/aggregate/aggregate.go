package aggregate

import (
	"math"

	"github.com/ecotrack/energy-dashboard/internal/domain"
)

// GreenSplit partitions a by-source total into renewable and non-renewable
// sums. Renewable + NonRenewable always equals the input total.
type GreenSplit struct {
	Renewable    float64 `json:"renewable"`
	NonRenewable float64 `json:"non_renewable"`
}

// GreenVsNonGreen sums a by-source mapping using the renewable predicate.
func GreenVsNonGreen(bySource map[domain.EnergySourceType]float64) GreenSplit {
	var split GreenSplit
	for source, value := range bySource {
		if domain.Renewable(source) {
			split.Renewable += value
		} else {
			split.NonRenewable += value
		}
	}
	return split
}

// ImpactFactors are the policy conversion constants behind the environmental
// impact card. They are deliberately illustrative averages, not measurements,
// so they stay configurable rather than buried in the math.
type ImpactFactors struct {
	CO2KgPerKWh    float64
	TreesPerTonCO2 float64
	CostUSDPerKWh  float64
}

// DefaultImpactFactors mirror the product's published assumptions:
// 0.42 kg CO2 per grid kWh, 45 trees to absorb a ton of CO2 per year,
// $0.12 per kWh.
var DefaultImpactFactors = ImpactFactors{
	CO2KgPerKWh:    0.42,
	TreesPerTonCO2: 45,
	CostUSDPerKWh:  0.12,
}

// Impact is the derived environmental footprint of renewable generation.
type Impact struct {
	CO2SavedKg      float64 `json:"co2_saved_kg"`
	TreesEquivalent int     `json:"trees_equivalent"`
	CostSavingsUSD  float64 `json:"cost_savings_usd"`
}

// EnvironmentalImpact converts renewable generation into CO2 saved, a tree
// equivalent, and cost savings using the given factors.
func EnvironmentalImpact(renewableGenerationKWh float64, factors ImpactFactors) Impact {
	co2SavedKg := renewableGenerationKWh * factors.CO2KgPerKWh
	return Impact{
		CO2SavedKg:      co2SavedKg,
		TreesEquivalent: int(math.Round(co2SavedKg / 1000 * factors.TreesPerTonCO2)),
		CostSavingsUSD:  renewableGenerationKWh * factors.CostUSDPerKWh,
	}
}

// SourceDistributionPercentages converts a by-source mapping to percentages
// of the total. A zero total yields zero for every key, never NaN.
func SourceDistributionPercentages(bySource map[domain.EnergySourceType]float64) map[domain.EnergySourceType]float64 {
	percentages := make(map[domain.EnergySourceType]float64, len(bySource))

	var total float64
	for _, value := range bySource {
		total += value
	}

	for source, value := range bySource {
		if total == 0 {
			percentages[source] = 0
			continue
		}
		percentages[source] = 100 * value / total
	}
	return percentages
}

// BySource converts a string-keyed by-source map from the API into the typed
// form the helpers consume.
func BySource(raw map[string]float64) map[domain.EnergySourceType]float64 {
	typed := make(map[domain.EnergySourceType]float64, len(raw))
	for source, value := range raw {
		typed[domain.EnergySourceType(source)] = value
	}
	return typed
}

// RenewableGeneration sums the renewable share of a generation by-source map.
func RenewableGeneration(bySource map[domain.EnergySourceType]float64) float64 {
	return GreenVsNonGreen(bySource).Renewable
}
