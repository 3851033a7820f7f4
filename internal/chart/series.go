package chart

import (
	"sort"
	"time"

	"github.com/ecotrack/energy-dashboard/internal/domain"
)

// Point is one chart-ready sample: X is the bucket label (timestamp or date),
// Y is the kWh value.
type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Series is a time-ordered sequence of points.
type Series []Point

// DateRange bounds a query window. Start after End is allowed and simply
// yields empty hourly output.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Datasets carries every upstream dataset a chart may draw from. Missing
// datasets stay nil and produce empty series.
type Datasets struct {
	RawConsumption    []domain.Record
	RawGeneration     []domain.Record
	DailyConsumption  []domain.AggregatePoint
	DailyGeneration   []domain.AggregatePoint
	WeeklyConsumption []domain.AggregatePoint
	WeeklyGeneration  []domain.AggregatePoint
}

// SeriesSet is the pair of aligned series a chart renders.
type SeriesSet struct {
	Consumption Series `json:"consumption"`
	Generation  Series `json:"generation"`
}

// SelectSeries produces the consumption and generation series for the
// requested resolution. Hourly reads raw records, filtered to the date range
// (inclusive) and the source filter set, stably sorted by timestamp. Daily
// and weekly pass the pre-aggregated buckets through sorted by bucket date.
func SelectSeries(resolution domain.Resolution, dateRange DateRange, filters []domain.EnergySourceType, data Datasets) SeriesSet {
	switch resolution {
	case domain.ResolutionHourly:
		return SeriesSet{
			Consumption: hourlySeries(data.RawConsumption, dateRange, filters),
			Generation:  hourlySeries(data.RawGeneration, dateRange, filters),
		}
	case domain.ResolutionDaily:
		return SeriesSet{
			Consumption: bucketSeries(data.DailyConsumption),
			Generation:  bucketSeries(data.DailyGeneration),
		}
	case domain.ResolutionWeekly:
		return SeriesSet{
			Consumption: bucketSeries(data.WeeklyConsumption),
			Generation:  bucketSeries(data.WeeklyGeneration),
		}
	default:
		return SeriesSet{Consumption: Series{}, Generation: Series{}}
	}
}

func hourlySeries(records []domain.Record, dateRange DateRange, filters []domain.EnergySourceType) Series {
	keep := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.Timestamp.Before(dateRange.Start) || r.Timestamp.After(dateRange.End) {
			continue
		}
		if !sourceAllowed(r.SourceType, filters) {
			continue
		}
		keep = append(keep, r)
	}

	// Stable: ties across sources preserve input order.
	sort.SliceStable(keep, func(i, j int) bool {
		return keep[i].Timestamp.Before(keep[j].Timestamp)
	})

	series := make(Series, 0, len(keep))
	for _, r := range keep {
		series = append(series, Point{X: r.Timestamp.Format(time.RFC3339), Y: r.ValueKWh})
	}
	return series
}

func bucketSeries(buckets []domain.AggregatePoint) Series {
	ordered := make([]domain.AggregatePoint, len(buckets))
	copy(ordered, buckets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date < ordered[j].Date
	})

	series := make(Series, 0, len(ordered))
	for _, b := range ordered {
		series = append(series, Point{X: b.Date, Y: b.ValueKWh})
	}
	return series
}

// sourceAllowed treats an empty filter set as "keep all".
func sourceAllowed(source domain.EnergySourceType, filters []domain.EnergySourceType) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if f == source {
			return true
		}
	}
	return false
}
