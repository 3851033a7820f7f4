package view_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/aggregate"
	"github.com/ecotrack/energy-dashboard/internal/alerts"
	"github.com/ecotrack/energy-dashboard/internal/api"
	"github.com/ecotrack/energy-dashboard/internal/domain"
	"github.com/ecotrack/energy-dashboard/internal/store"
	"github.com/ecotrack/energy-dashboard/internal/view"
	"github.com/ecotrack/energy-dashboard/pkg/metrics"
)

// One collector per test binary; prometheus registration is global.
var testMetrics = metrics.NewCollector("viewtest")

// fakeFetcher serves canned upstream responses and records which endpoints
// were hit. The fan-out calls it concurrently.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []string

	summary    *domain.EnergySummary
	summaryErr error

	consumption []domain.Record
	generation  []domain.Record

	dailyCons    *domain.AggregateResponse
	dailyConsErr error
	dailyGen     *domain.AggregateResponse
	weeklyCons   *domain.AggregateResponse
	weeklyGen    *domain.AggregateResponse
}

func (f *fakeFetcher) record(endpoint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, endpoint)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) Summary(ctx context.Context, startDate, endDate string, projectID *int64) (*domain.EnergySummary, error) {
	f.record("summary")
	return f.summary, f.summaryErr
}

func (f *fakeFetcher) Consumption(ctx context.Context, filter api.Filter) ([]domain.Record, error) {
	f.record("consumption")
	return f.consumption, nil
}

func (f *fakeFetcher) Generation(ctx context.Context, filter api.Filter) ([]domain.Record, error) {
	f.record("generation")
	return f.generation, nil
}

func (f *fakeFetcher) DailyConsumption(ctx context.Context, filter api.Filter) (*domain.AggregateResponse, error) {
	f.record("daily_consumption")
	return f.dailyCons, f.dailyConsErr
}

func (f *fakeFetcher) DailyGeneration(ctx context.Context, filter api.Filter) (*domain.AggregateResponse, error) {
	f.record("daily_generation")
	return f.dailyGen, nil
}

func (f *fakeFetcher) WeeklyConsumption(ctx context.Context, filter api.Filter) (*domain.AggregateResponse, error) {
	f.record("weekly_consumption")
	return f.weeklyCons, nil
}

func (f *fakeFetcher) WeeklyGeneration(ctx context.Context, filter api.Filter) (*domain.AggregateResponse, error) {
	f.record("weekly_generation")
	return f.weeklyGen, nil
}

func newTestService(t *testing.T, fetcher *fakeFetcher) (*view.Service, *store.Collection[domain.Alert]) {
	t.Helper()
	kv, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	alertStore := store.NewCollection[domain.Alert](kv, store.KeyAlerts, zap.NewNop())
	notifier := alerts.NewNotifier(nil, zap.NewNop())
	svc := view.NewService(fetcher, alertStore, notifier, aggregate.DefaultImpactFactors, testMetrics, zap.NewNop())
	return svc, alertStore
}

func graphRequest() view.Request {
	return view.Request{
		StartDate:  "2024-03-01",
		EndDate:    "2024-03-15",
		Resolution: domain.ResolutionDaily,
		View:       domain.ChartViewGraph,
		DataType:   domain.DataTypeBoth,
	}
}

func TestBuild_JoinsEveryUpstreamFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc, _ := newTestService(t, fetcher)

	dashboard, err := svc.Build(context.Background(), graphRequest())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if dashboard == nil {
		t.Fatal("Build returned a nil dashboard")
	}
	if got := fetcher.callCount(); got != 7 {
		t.Errorf("upstream fetches = %d, want 7", got)
	}
}

func TestBuild_DerivesAggregatesFromDailyResponses(t *testing.T) {
	fetcher := &fakeFetcher{
		summary: &domain.EnergySummary{TotalConsumption: 40, TotalGeneration: 12},
		dailyCons: &domain.AggregateResponse{
			DailyConsumption: []domain.AggregatePoint{{Date: "2024-03-01", ValueKWh: 40}},
			BySource:         map[string]float64{"solar": 10, "wind": 8, "grid": 22},
		},
		dailyGen: &domain.AggregateResponse{
			DailyGeneration: []domain.AggregatePoint{{Date: "2024-03-01", ValueKWh: 12}},
			BySource:        map[string]float64{"solar": 10, "grid": 2},
		},
	}
	svc, _ := newTestService(t, fetcher)

	dashboard, err := svc.Build(context.Background(), graphRequest())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if dashboard.GreenSplit.Renewable != 18 || dashboard.GreenSplit.NonRenewable != 22 {
		t.Errorf("green split = %+v, want renewable 18, non-renewable 22", dashboard.GreenSplit)
	}
	if got := dashboard.SourcePercentages[domain.SourceGrid]; got != 55 {
		t.Errorf("grid percentage = %v, want 55", got)
	}
	// Renewable generation is 10 kWh of solar; grid generation is excluded.
	if got := dashboard.Impact.CO2SavedKg; got != 4.2 {
		t.Errorf("co2 saved = %v, want 4.2", got)
	}
	if dashboard.Chart.Kind != domain.ChartViewGraph || dashboard.Chart.Graph == nil {
		t.Errorf("chart = %+v, want a graph payload", dashboard.Chart)
	}
	if len(dashboard.Chart.Graph.Series.Consumption) != 1 {
		t.Errorf("consumption series length = %d, want 1", len(dashboard.Chart.Graph.Series.Consumption))
	}
}

func TestBuild_FailedFetchDegradesToEmptyDataset(t *testing.T) {
	fetcher := &fakeFetcher{
		summaryErr:   errors.New("upstream 503"),
		dailyConsErr: errors.New("upstream 503"),
		dailyGen: &domain.AggregateResponse{
			BySource: map[string]float64{"solar": 5},
		},
	}
	svc, _ := newTestService(t, fetcher)

	dashboard, err := svc.Build(context.Background(), graphRequest())
	if err != nil {
		t.Fatalf("Build must degrade, not fail: %v", err)
	}

	if dashboard.Summary != nil {
		t.Error("summary should be absent when its fetch fails")
	}
	if len(dashboard.ConsumptionBySource) != 0 {
		t.Errorf("consumption by source = %v, want empty", dashboard.ConsumptionBySource)
	}
	// The surviving fetches still contribute.
	if dashboard.Impact.CO2SavedKg != 2.1 {
		t.Errorf("co2 saved = %v, want 2.1 from the surviving generation fetch", dashboard.Impact.CO2SavedKg)
	}
}

func TestBuild_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc, _ := newTestService(t, &fakeFetcher{})
	if _, err := svc.Build(ctx, graphRequest()); err == nil {
		t.Fatal("Build must fail on a cancelled context")
	}
}

func TestBuild_TriggersStoredAlerts(t *testing.T) {
	fetcher := &fakeFetcher{
		summary: &domain.EnergySummary{TotalConsumption: 150},
	}
	svc, alertStore := newTestService(t, fetcher)

	_, err := alertStore.Create(context.Background(), domain.Alert{
		Name:      "high usage",
		Type:      domain.DataTypeConsumption,
		Threshold: 100,
		Condition: domain.ConditionAbove,
		Active:    true,
	}, nil, true)
	if err != nil {
		t.Fatalf("Create alert: %v", err)
	}

	dashboard, err := svc.Build(context.Background(), graphRequest())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := "high usage: consumption is above threshold of 100 kWh (Current: 150.0 kWh)"
	if len(dashboard.TriggeredAlerts) != 1 || dashboard.TriggeredAlerts[0] != want {
		t.Errorf("triggered = %v, want [%q]", dashboard.TriggeredAlerts, want)
	}
}

func TestBuild_UnknownViewFails(t *testing.T) {
	svc, _ := newTestService(t, &fakeFetcher{})

	req := graphRequest()
	req.View = domain.ChartView("sparkline")
	if _, err := svc.Build(context.Background(), req); err == nil {
		t.Fatal("Build must reject an unknown chart view")
	}
}
