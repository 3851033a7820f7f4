package chart

import (
	"fmt"

	"github.com/ecotrack/energy-dashboard/internal/domain"
)

// Request identifies one chart configuration. The (View, DataType,
// Resolution) triple is handled exhaustively in Build; unknown combinations
// are rejected instead of probed for optional fields.
type Request struct {
	View          domain.ChartView
	DataType      domain.DataType
	Resolution    domain.Resolution
	DateRange     DateRange
	SourceFilters []domain.EnergySourceType
}

// GraphData is the payload for line/bar charts. Series not selected by the
// data type are empty, never absent.
type GraphData struct {
	View   domain.ChartView `json:"view"`
	Title  string           `json:"title"`
	Series SeriesSet        `json:"series"`
}

// PieSlice is one labeled, colored slice of a distribution chart.
type PieSlice struct {
	Source domain.EnergySourceType `json:"source"`
	Label  string                  `json:"label"`
	Value  float64                 `json:"value"`
	Color  domain.SourceStyle      `json:"color"`
}

// PieData is the payload for source-distribution charts.
type PieData struct {
	View   domain.ChartView `json:"view"`
	Title  string           `json:"title"`
	Slices []PieSlice       `json:"slices"`
}

// Data is the tagged chart payload: exactly one of Graph or Pie is set,
// keyed by Kind.
type Data struct {
	Kind  domain.ChartView `json:"kind"`
	Graph *GraphData       `json:"graph,omitempty"`
	Pie   *PieData         `json:"pie,omitempty"`
}

// Build assembles the chart payload for a request. Graph charts read the
// selected time series; pie charts read the by-source totals.
func Build(req Request, data Datasets, consumptionBySource, generationBySource map[string]float64) (Data, error) {
	switch req.View {
	case domain.ChartViewGraph:
		set := SelectSeries(req.Resolution, req.DateRange, req.SourceFilters, data)
		switch req.DataType {
		case domain.DataTypeConsumption:
			set.Generation = Series{}
		case domain.DataTypeGeneration:
			set.Consumption = Series{}
		case domain.DataTypeBoth:
			// Keep both sides.
		default:
			return Data{}, fmt.Errorf("unknown data type %q", req.DataType)
		}
		return Data{
			Kind: domain.ChartViewGraph,
			Graph: &GraphData{
				View:   domain.ChartViewGraph,
				Title:  Title(req.Resolution),
				Series: set,
			},
		}, nil

	case domain.ChartViewPie:
		var bySource map[string]float64
		switch req.DataType {
		case domain.DataTypeConsumption:
			bySource = consumptionBySource
		case domain.DataTypeGeneration:
			bySource = generationBySource
		case domain.DataTypeBoth:
			bySource = mergeBySource(consumptionBySource, generationBySource)
		default:
			return Data{}, fmt.Errorf("unknown data type %q", req.DataType)
		}
		return Data{
			Kind: domain.ChartViewPie,
			Pie: &PieData{
				View:   domain.ChartViewPie,
				Title:  "Source Distribution",
				Slices: slices(bySource, req.SourceFilters),
			},
		}, nil

	default:
		return Data{}, fmt.Errorf("unknown chart view %q", req.View)
	}
}

// Title names the overview chart for a resolution.
func Title(resolution domain.Resolution) string {
	switch resolution {
	case domain.ResolutionHourly:
		return "Hourly Energy Overview"
	case domain.ResolutionDaily:
		return "Daily Energy Overview"
	case domain.ResolutionWeekly:
		return "Weekly Energy Overview"
	default:
		return "Energy Overview"
	}
}

// slices orders the pie in the canonical source order so colors stay stable
// across renders.
func slices(bySource map[string]float64, filters []domain.EnergySourceType) []PieSlice {
	out := make([]PieSlice, 0, len(bySource))
	for _, source := range domain.AllSources {
		value, ok := bySource[string(source)]
		if !ok {
			continue
		}
		if !sourceAllowed(source, filters) {
			continue
		}
		out = append(out, PieSlice{
			Source: source,
			Label:  domain.StyleFor(source).Label,
			Value:  value,
			Color:  domain.StyleFor(source),
		})
	}
	return out
}

func mergeBySource(a, b map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(a)+len(b))
	for k, v := range a {
		merged[k] += v
	}
	for k, v := range b {
		merged[k] += v
	}
	return merged
}
