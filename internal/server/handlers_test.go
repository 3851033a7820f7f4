package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/aggregate"
	"github.com/ecotrack/energy-dashboard/internal/alerts"
	"github.com/ecotrack/energy-dashboard/internal/api"
	"github.com/ecotrack/energy-dashboard/internal/daterange"
	"github.com/ecotrack/energy-dashboard/internal/domain"
	"github.com/ecotrack/energy-dashboard/internal/server"
	"github.com/ecotrack/energy-dashboard/internal/store"
	"github.com/ecotrack/energy-dashboard/internal/view"
	"github.com/ecotrack/energy-dashboard/pkg/metrics"
)

// One collector per test binary; prometheus registration is global.
var testMetrics = metrics.NewCollector("servertest")

// stubFetcher serves an empty upstream so handler tests exercise the HTTP
// surface, not the pipeline.
type stubFetcher struct{}

func (stubFetcher) Summary(context.Context, string, string, *int64) (*domain.EnergySummary, error) {
	return &domain.EnergySummary{}, nil
}
func (stubFetcher) Consumption(context.Context, api.Filter) ([]domain.Record, error) {
	return nil, nil
}
func (stubFetcher) Generation(context.Context, api.Filter) ([]domain.Record, error) {
	return nil, nil
}
func (stubFetcher) DailyConsumption(context.Context, api.Filter) (*domain.AggregateResponse, error) {
	return &domain.AggregateResponse{}, nil
}
func (stubFetcher) DailyGeneration(context.Context, api.Filter) (*domain.AggregateResponse, error) {
	return &domain.AggregateResponse{}, nil
}
func (stubFetcher) WeeklyConsumption(context.Context, api.Filter) (*domain.AggregateResponse, error) {
	return &domain.AggregateResponse{}, nil
}
func (stubFetcher) WeeklyGeneration(context.Context, api.Filter) (*domain.AggregateResponse, error) {
	return &domain.AggregateResponse{}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	kv, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	alertStore := store.NewCollection[domain.Alert](kv, store.KeyAlerts, logger)
	vizStore := store.NewCollection[domain.SavedVisualization](kv, store.KeyVisualizations, logger)
	dates := daterange.NewManager(kv, logger)

	views := view.NewService(
		stubFetcher{},
		alertStore,
		alerts.NewNotifier(nil, logger),
		aggregate.DefaultImpactFactors,
		testMetrics,
		logger,
	)

	h := server.NewHandler(views, stubUpstream{}, alertStore, vizStore, dates, kv, logger)
	return server.New(h, testMetrics)
}

// stubUpstream serves one canned project and a fixed insight set.
type stubUpstream struct{}

func (stubUpstream) Register(_ context.Context, email, username, _ string) (*domain.User, error) {
	return &domain.User{ID: 1, Username: username, Email: email}, nil
}

func (stubUpstream) Projects(context.Context) ([]domain.Project, error) {
	return []domain.Project{{ID: 5, Name: "rooftop array"}}, nil
}

func (stubUpstream) Project(_ context.Context, id int64) (*domain.Project, error) {
	return &domain.Project{ID: id, Name: "rooftop array"}, nil
}

func (stubUpstream) CreateProject(_ context.Context, name, description, location string) (*domain.Project, error) {
	return &domain.Project{ID: 6, Name: name, Description: description, Location: location}, nil
}

func (stubUpstream) UpdateProject(_ context.Context, id int64, name, description, location string) (*domain.Project, error) {
	return &domain.Project{ID: id, Name: name, Description: description, Location: location}, nil
}

func (stubUpstream) DeleteProject(context.Context, int64) error { return nil }

func (stubUpstream) Recommendations(context.Context, *int64) ([]domain.Recommendation, error) {
	return []domain.Recommendation{{Type: "shift_load", Title: "Shift load to midday"}}, nil
}

func (stubUpstream) Trends(_ context.Context, months int) (*domain.Trends, error) {
	trends := make([]domain.MonthlyTrend, months)
	return &domain.Trends{MonthlyTrends: trends}, nil
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestAlerts_CRUDLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// Empty store lists as an empty array, not null.
	rec := doJSON(t, router, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/alerts", map[string]any{
		"name":      "high usage",
		"type":      "consumption",
		"threshold": 100,
		"condition": "above",
		"global":    true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Alert
	decodeInto(t, rec, &created)
	require.NotEmpty(t, created.ID)
	require.True(t, created.Active)
	require.True(t, created.Global)

	rec = doJSON(t, router, http.MethodPost, "/api/alerts/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var listed []domain.Alert
	rec = doJSON(t, router, http.MethodGet, "/api/alerts", nil)
	decodeInto(t, rec, &listed)
	require.Len(t, listed, 1)
	require.False(t, listed[0].Active)

	rec = doJSON(t, router, http.MethodDelete, "/api/alerts/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/alerts", nil)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestCreateAlert_Validation(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"type": "consumption", "threshold": 1, "condition": "above"}},
		{"negative threshold", map[string]any{"name": "x", "type": "consumption", "threshold": -1, "condition": "above"}},
		{"bad type", map[string]any{"name": "x", "type": "both", "threshold": 1, "condition": "above"}},
		{"bad condition", map[string]any{"name": "x", "type": "generation", "threshold": 1, "condition": "near"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/alerts", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp server.ErrorResponse
			decodeInto(t, rec, &resp)
			require.Equal(t, http.StatusBadRequest, resp.Code)
			require.NotEmpty(t, resp.Message)
		})
	}
}

func TestToggleAlert_UnknownID(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodPost, "/api/alerts/nope/toggle", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVisualizations_SaveAndLoadAppliesDates(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/visualizations", map[string]any{
		"name":          "march solar",
		"startDate":     "2024-03-01",
		"endDate":       "2024-03-31",
		"chartView":     "pie",
		"dataType":      "generation",
		"sourceFilters": []string{"solar"},
		"global":        true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.SavedVisualization
	decodeInto(t, rec, &created)
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, router, http.MethodPost, "/api/visualizations/"+created.ID+"/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded domain.SavedVisualization
	decodeInto(t, rec, &loaded)
	require.Equal(t, domain.ChartViewPie, loaded.ChartView)

	// Loading a preset overwrites the live date range.
	var state daterange.State
	rec = doJSON(t, router, http.MethodGet, "/api/daterange", nil)
	decodeInto(t, rec, &state)
	require.Equal(t, "2024-03-01", state.StartDate)
	require.Equal(t, "2024-03-31", state.EndDate)
	require.Equal(t, daterange.FrameCustom, state.TimeFrame)
}

func TestCreateVisualization_Validation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/visualizations", map[string]any{
		"name":      "bad view",
		"chartView": "sparkline",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/visualizations", map[string]any{
		"name":          "bad source",
		"chartView":     "graph",
		"sourceFilters": []string{"plutonium"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadVisualization_UnknownID(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodPost, "/api/visualizations/nope/load", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutDateRange(t *testing.T) {
	router := newTestRouter(t)

	var state daterange.State
	rec := doJSON(t, router, http.MethodPut, "/api/daterange", map[string]any{"timeFrame": "last_7_days"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &state)
	require.Equal(t, daterange.FrameLast7Days, state.TimeFrame)

	// Explicit dates win over a named frame and force custom.
	rec = doJSON(t, router, http.MethodPut, "/api/daterange", map[string]any{
		"timeFrame": "last_7_days",
		"startDate": "2024-01-01",
		"endDate":   "2024-01-31",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &state)
	require.Equal(t, daterange.FrameCustom, state.TimeFrame)
	require.Equal(t, "2024-01-01", state.StartDate)

	rec = doJSON(t, router, http.MethodPut, "/api/daterange", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTheme(t *testing.T) {
	router := newTestRouter(t)

	var payload struct {
		Theme string `json:"theme"`
	}
	rec := doJSON(t, router, http.MethodGet, "/api/theme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &payload)
	require.Equal(t, "light", payload.Theme)

	rec = doJSON(t, router, http.MethodPut, "/api/theme", map[string]any{"theme": "dark"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/theme", nil)
	decodeInto(t, rec, &payload)
	require.Equal(t, "dark", payload.Theme)

	rec = doJSON(t, router, http.MethodPut, "/api/theme", map[string]any{"theme": "blue"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjects(t *testing.T) {
	router := newTestRouter(t)

	var projects []domain.Project
	rec := doJSON(t, router, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &projects)
	require.Len(t, projects, 1)
	require.Equal(t, "rooftop array", projects[0].Name)

	rec = doJSON(t, router, http.MethodPost, "/api/projects", map[string]any{"name": "basement battery"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/projects", map[string]any{"location": "nameless"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/projects/not-a-number", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/projects/5", map[string]any{"name": "renamed"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/projects/5", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRegister(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "a@example.com",
		"username": "a",
		"password": "longenough",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user domain.User
	decodeInto(t, rec, &user)
	require.Equal(t, "a", user.Username)

	// Short passwords never reach the backend.
	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "a@example.com",
		"username": "a",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsights(t *testing.T) {
	router := newTestRouter(t)

	var recommendations []domain.Recommendation
	rec := doJSON(t, router, http.MethodGet, "/api/recommendations?project_id=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &recommendations)
	require.Len(t, recommendations, 1)

	var trends domain.Trends
	rec = doJSON(t, router, http.MethodGet, "/api/trends", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &trends)
	require.Len(t, trends.MonthlyTrends, 6)

	// months is capped to a year.
	rec = doJSON(t, router, http.MethodGet, "/api/trends?months=48", nil)
	decodeInto(t, rec, &trends)
	require.Len(t, trends.MonthlyTrends, 12)

	rec = doJSON(t, router, http.MethodGet, "/api/trends?months=zero", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDashboard(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/dashboard?source_type=plutonium", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/dashboard?resolution=daily&view=graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dashboard view.Dashboard
	decodeInto(t, rec, &dashboard)
	require.Equal(t, domain.ChartViewGraph, dashboard.Chart.Kind)
	require.NotNil(t, dashboard.TriggeredAlerts)
}
