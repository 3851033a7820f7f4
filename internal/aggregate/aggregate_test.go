package aggregate_test

import (
	"math"
	"testing"

	"github.com/ecotrack/energy-dashboard/internal/aggregate"
	"github.com/ecotrack/energy-dashboard/internal/domain"
)

const tolerance = 1e-9

func TestGreenVsNonGreen_PartitionsBySources(t *testing.T) {
	bySource := map[domain.EnergySourceType]float64{
		domain.SourceSolar: 40,
		domain.SourceWind:  10,
		domain.SourceGrid:  60,
	}

	split := aggregate.GreenVsNonGreen(bySource)

	if split.Renewable != 50 {
		t.Errorf("Expected renewable 50, got %f", split.Renewable)
	}
	if split.NonRenewable != 60 {
		t.Errorf("Expected non-renewable 60, got %f", split.NonRenewable)
	}
}

func TestGreenVsNonGreen_SumInvariant(t *testing.T) {
	bySource := map[domain.EnergySourceType]float64{
		domain.SourceSolar:      12.5,
		domain.SourceHydro:      0.1,
		domain.SourceGeothermal: 7.77,
		domain.SourceBiomass:    3.2,
		domain.SourceGrid:       91.03,
	}

	var total float64
	for _, v := range bySource {
		total += v
	}

	split := aggregate.GreenVsNonGreen(bySource)
	if math.Abs(split.Renewable+split.NonRenewable-total) > tolerance {
		t.Errorf("Expected renewable+nonRenewable == %f, got %f", total, split.Renewable+split.NonRenewable)
	}
}

func TestEnvironmentalImpact_KnownFixture(t *testing.T) {
	impact := aggregate.EnvironmentalImpact(40, aggregate.DefaultImpactFactors)

	if math.Abs(impact.CO2SavedKg-16.8) > tolerance {
		t.Errorf("Expected 16.8 kg CO2 saved, got %f", impact.CO2SavedKg)
	}
	if impact.TreesEquivalent != 1 {
		t.Errorf("Expected 1 tree equivalent, got %d", impact.TreesEquivalent)
	}
	if math.Abs(impact.CostSavingsUSD-4.8) > tolerance {
		t.Errorf("Expected $4.80 savings, got %f", impact.CostSavingsUSD)
	}
}

func TestEnvironmentalImpact_ZeroGeneration(t *testing.T) {
	impact := aggregate.EnvironmentalImpact(0, aggregate.DefaultImpactFactors)

	if impact.CO2SavedKg != 0 || impact.TreesEquivalent != 0 || impact.CostSavingsUSD != 0 {
		t.Errorf("Expected zero impact, got %+v", impact)
	}
}

func TestEnvironmentalImpact_CustomFactors(t *testing.T) {
	factors := aggregate.ImpactFactors{CO2KgPerKWh: 1, TreesPerTonCO2: 1000, CostUSDPerKWh: 0.5}
	impact := aggregate.EnvironmentalImpact(10, factors)

	if impact.CO2SavedKg != 10 {
		t.Errorf("Expected 10 kg, got %f", impact.CO2SavedKg)
	}
	if impact.TreesEquivalent != 10 {
		t.Errorf("Expected 10 trees, got %d", impact.TreesEquivalent)
	}
	if impact.CostSavingsUSD != 5 {
		t.Errorf("Expected $5, got %f", impact.CostSavingsUSD)
	}
}

func TestSourceDistributionPercentages_ZeroTotalIsAllZeros(t *testing.T) {
	bySource := map[domain.EnergySourceType]float64{
		domain.SourceSolar: 0,
		domain.SourceGrid:  0,
	}

	percentages := aggregate.SourceDistributionPercentages(bySource)

	for source, p := range percentages {
		if p != 0 {
			t.Errorf("Expected 0%% for %s, got %f", source, p)
		}
		if math.IsNaN(p) {
			t.Errorf("Got NaN percentage for %s", source)
		}
	}
}

func TestSourceDistributionPercentages_SumTo100(t *testing.T) {
	bySource := map[domain.EnergySourceType]float64{
		domain.SourceSolar:   40,
		domain.SourceWind:    25,
		domain.SourceBiomass: 11.5,
		domain.SourceGrid:    60,
	}

	percentages := aggregate.SourceDistributionPercentages(bySource)

	var sum float64
	for _, p := range percentages {
		sum += p
	}
	if math.Abs(sum-100) > 0.01 {
		t.Errorf("Expected percentages to sum to 100, got %f", sum)
	}
}

func TestSourceDistributionPercentages_SingleSourceIs100(t *testing.T) {
	percentages := aggregate.SourceDistributionPercentages(map[domain.EnergySourceType]float64{
		domain.SourceHydro: 3.3,
	})

	if math.Abs(percentages[domain.SourceHydro]-100) > tolerance {
		t.Errorf("Expected 100%%, got %f", percentages[domain.SourceHydro])
	}
}

func TestRenewableGeneration_IgnoresGrid(t *testing.T) {
	got := aggregate.RenewableGeneration(map[domain.EnergySourceType]float64{
		domain.SourceSolar: 40,
		domain.SourceGrid:  60,
	})

	if got != 40 {
		t.Errorf("Expected 40 kWh renewable generation, got %f", got)
	}
}
