// Package view assembles the dashboard read model: it fans out the upstream
// queries for one view, joins them, and runs the derived-data pipeline
// (chart transform, aggregation helpers, alert evaluation) over the result.
package view

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecotrack/energy-dashboard/internal/aggregate"
	"github.com/ecotrack/energy-dashboard/internal/alerts"
	"github.com/ecotrack/energy-dashboard/internal/api"
	"github.com/ecotrack/energy-dashboard/internal/chart"
	"github.com/ecotrack/energy-dashboard/internal/daterange"
	"github.com/ecotrack/energy-dashboard/internal/domain"
	"github.com/ecotrack/energy-dashboard/internal/logging"
	"github.com/ecotrack/energy-dashboard/internal/store"
	"github.com/ecotrack/energy-dashboard/pkg/metrics"
)

// Fetcher is the slice of the energy API the dashboard reads from.
type Fetcher interface {
	Summary(ctx context.Context, startDate, endDate string, projectID *int64) (*domain.EnergySummary, error)
	Consumption(ctx context.Context, filter api.Filter) ([]domain.Record, error)
	Generation(ctx context.Context, filter api.Filter) ([]domain.Record, error)
	DailyConsumption(ctx context.Context, filter api.Filter) (*domain.AggregateResponse, error)
	DailyGeneration(ctx context.Context, filter api.Filter) (*domain.AggregateResponse, error)
	WeeklyConsumption(ctx context.Context, filter api.Filter) (*domain.AggregateResponse, error)
	WeeklyGeneration(ctx context.Context, filter api.Filter) (*domain.AggregateResponse, error)
}

// Request identifies one dashboard view.
type Request struct {
	ProjectID     *int64
	StartDate     string
	EndDate       string
	Resolution    domain.Resolution
	View          domain.ChartView
	DataType      domain.DataType
	SourceFilters []domain.EnergySourceType
}

// Dashboard is the assembled, chart-ready view.
type Dashboard struct {
	Summary             *domain.EnergySummary               `json:"summary,omitempty"`
	Chart               chart.Data                          `json:"chart"`
	ConsumptionBySource map[domain.EnergySourceType]float64 `json:"consumption_by_source"`
	GenerationBySource  map[domain.EnergySourceType]float64 `json:"generation_by_source"`
	SourcePercentages   map[domain.EnergySourceType]float64 `json:"source_percentages"`
	GreenSplit          aggregate.GreenSplit                `json:"green_split"`
	Impact              aggregate.Impact                    `json:"impact"`
	AvgEfficiency       *float64                            `json:"avg_efficiency,omitempty"`
	TriggeredAlerts     []string                            `json:"triggered_alerts"`
}

// Service builds dashboard views.
type Service struct {
	fetcher  Fetcher
	alerts   *store.Collection[domain.Alert]
	notifier *alerts.Notifier
	factors  aggregate.ImpactFactors
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewService wires the view assembler.
func NewService(
	fetcher Fetcher,
	alertStore *store.Collection[domain.Alert],
	notifier *alerts.Notifier,
	factors aggregate.ImpactFactors,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Service {
	return &Service{
		fetcher:  fetcher,
		alerts:   alertStore,
		notifier: notifier,
		factors:  factors,
		metrics:  collector,
		logger:   logger,
	}
}

// upstream holds the joined results of the parallel fetch fan-out.
type upstream struct {
	summary    *domain.EnergySummary
	rawCons    []domain.Record
	rawGen     []domain.Record
	dailyCons  *domain.AggregateResponse
	dailyGen   *domain.AggregateResponse
	weeklyCons *domain.AggregateResponse
	weeklyGen  *domain.AggregateResponse
}

// Build fetches everything the view needs in parallel, waits for the whole
// fan-out, then runs the pipeline. A failed fetch degrades its dataset to
// empty instead of failing the view; a cancelled context aborts and the
// partial result is discarded.
func (s *Service) Build(ctx context.Context, req Request) (*Dashboard, error) {
	logger := logging.WithProject(s.logger, req.ProjectID)
	start := time.Now()

	up, err := s.fetchAll(ctx, req, logger)
	if err != nil {
		return nil, err
	}
	s.metrics.UpstreamFanoutDuration.Observe(time.Since(start).Seconds())

	data := chart.Datasets{
		RawConsumption: up.rawCons,
		RawGeneration:  up.rawGen,
	}
	consBySource := map[string]float64{}
	genBySource := map[string]float64{}
	var avgEfficiency *float64

	if up.dailyCons != nil {
		data.DailyConsumption = up.dailyCons.DailyConsumption
		consBySource = up.dailyCons.BySource
	}
	if up.dailyGen != nil {
		data.DailyGeneration = up.dailyGen.DailyGeneration
		genBySource = up.dailyGen.BySource
		avgEfficiency = up.dailyGen.AvgEfficiency
	}
	if up.weeklyCons != nil {
		data.WeeklyConsumption = up.weeklyCons.WeeklyConsumption
	}
	if up.weeklyGen != nil {
		data.WeeklyGeneration = up.weeklyGen.WeeklyGeneration
	}

	chartData, err := chart.Build(chart.Request{
		View:          req.View,
		DataType:      req.DataType,
		Resolution:    req.Resolution,
		DateRange:     parseRange(req.StartDate, req.EndDate),
		SourceFilters: req.SourceFilters,
	}, data, consBySource, genBySource)
	if err != nil {
		return nil, err
	}

	typedCons := aggregate.BySource(consBySource)
	typedGen := aggregate.BySource(genBySource)
	renewableGen := aggregate.RenewableGeneration(typedGen)

	dashboard := &Dashboard{
		Summary:             up.summary,
		Chart:               chartData,
		ConsumptionBySource: typedCons,
		GenerationBySource:  typedGen,
		SourcePercentages:   aggregate.SourceDistributionPercentages(typedCons),
		GreenSplit:          aggregate.GreenVsNonGreen(typedCons),
		Impact:              aggregate.EnvironmentalImpact(renewableGen, s.factors),
		AvgEfficiency:       avgEfficiency,
		TriggeredAlerts:     []string{},
	}

	dashboard.TriggeredAlerts = s.checkAlerts(ctx, req.ProjectID, up.summary, logger)
	s.metrics.ViewsBuiltTotal.Inc()
	return dashboard, nil
}

func (s *Service) fetchAll(ctx context.Context, req Request, logger *zap.Logger) (*upstream, error) {
	filter := api.Filter{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		SourceTypes: req.SourceFilters,
		ProjectID:   req.ProjectID,
	}

	var up upstream
	g, gctx := errgroup.WithContext(ctx)

	// Each fetch degrades to an empty dataset on failure; only context
	// cancellation aborts the group.
	g.Go(func() error {
		summary, err := s.fetcher.Summary(gctx, req.StartDate, req.EndDate, req.ProjectID)
		if err == nil {
			up.summary = summary
		} else {
			s.noteFetchError(gctx, "summary", err, logger)
		}
		return gctx.Err()
	})
	g.Go(func() error {
		records, err := s.fetcher.Consumption(gctx, filter)
		if err == nil {
			up.rawCons = records
		} else {
			s.noteFetchError(gctx, "consumption", err, logger)
		}
		return gctx.Err()
	})
	g.Go(func() error {
		records, err := s.fetcher.Generation(gctx, filter)
		if err == nil {
			up.rawGen = records
		} else {
			s.noteFetchError(gctx, "generation", err, logger)
		}
		return gctx.Err()
	})
	g.Go(func() error {
		agg, err := s.fetcher.DailyConsumption(gctx, filter)
		up.dailyCons = s.degradeAggregate(gctx, "daily_consumption", agg, err, logger)
		return gctx.Err()
	})
	g.Go(func() error {
		agg, err := s.fetcher.DailyGeneration(gctx, filter)
		up.dailyGen = s.degradeAggregate(gctx, "daily_generation", agg, err, logger)
		return gctx.Err()
	})
	g.Go(func() error {
		agg, err := s.fetcher.WeeklyConsumption(gctx, filter)
		up.weeklyCons = s.degradeAggregate(gctx, "weekly_consumption", agg, err, logger)
		return gctx.Err()
	})
	g.Go(func() error {
		agg, err := s.fetcher.WeeklyGeneration(gctx, filter)
		up.weeklyGen = s.degradeAggregate(gctx, "weekly_generation", agg, err, logger)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &up, nil
}

func (s *Service) checkAlerts(ctx context.Context, projectID *int64, summary *domain.EnergySummary, logger *zap.Logger) []string {
	stored, err := s.alerts.All(ctx)
	if err != nil {
		logger.Warn("failed to load alerts from store", zap.Error(err))
		return []string{}
	}

	totals := alerts.Totals{}
	if summary != nil {
		totals.Consumption = summary.TotalConsumption
		totals.Generation = summary.TotalGeneration
	}

	triggered := s.notifier.Check(ctx, stored, alerts.Scope{ProjectID: projectID}, totals)
	if triggered == nil {
		return []string{}
	}
	s.metrics.AlertsTriggeredTotal.Add(float64(len(triggered)))
	return triggered
}

func (s *Service) noteFetchError(ctx context.Context, endpoint string, err error, logger *zap.Logger) {
	if ctx.Err() != nil {
		return
	}
	s.metrics.UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
	logger.Error("upstream fetch failed, view degrades to empty dataset",
		zap.String("endpoint", endpoint),
		zap.Error(err),
	)
}

func (s *Service) degradeAggregate(ctx context.Context, endpoint string, agg *domain.AggregateResponse, err error, logger *zap.Logger) *domain.AggregateResponse {
	if err != nil {
		s.noteFetchError(ctx, endpoint, err, logger)
		return nil
	}
	return agg
}

// parseRange widens the date-only boundaries to cover the whole end day so
// a record stamped anywhere on the end date stays inside the window.
func parseRange(startDate, endDate string) chart.DateRange {
	start, startErr := time.Parse(daterange.DateFormat, startDate)
	end, endErr := time.Parse(daterange.DateFormat, endDate)
	if startErr != nil || endErr != nil {
		// An unparseable boundary yields an empty window, and therefore an
		// empty hourly series, rather than an error.
		return chart.DateRange{Start: time.Unix(1, 0), End: time.Unix(0, 0)}
	}
	return chart.DateRange{
		Start: start,
		End:   end.AddDate(0, 0, 1).Add(-time.Nanosecond),
	}
}
