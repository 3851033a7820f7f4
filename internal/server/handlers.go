package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/daterange"
	"github.com/ecotrack/energy-dashboard/internal/domain"
	"github.com/ecotrack/energy-dashboard/internal/store"
	"github.com/ecotrack/energy-dashboard/internal/view"
)

// Handler carries the dashboard services behind the HTTP surface.
type Handler struct {
	views          *view.Service
	upstream       Upstream
	alerts         *store.Collection[domain.Alert]
	visualizations *store.Collection[domain.SavedVisualization]
	dates          *daterange.Manager
	kv             store.KV
	logger         *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(
	views *view.Service,
	upstream Upstream,
	alerts *store.Collection[domain.Alert],
	visualizations *store.Collection[domain.SavedVisualization],
	dates *daterange.Manager,
	kv store.KV,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		views:          views,
		upstream:       upstream,
		alerts:         alerts,
		visualizations: visualizations,
		dates:          dates,
		kv:             kv,
		logger:         logger,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// GetDashboard handles GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := view.Request{
		ProjectID:  parseProjectID(q.Get("project_id")),
		Resolution: domain.Resolution(defaulted(q.Get("resolution"), string(domain.ResolutionDaily))),
		View:       domain.ChartView(defaulted(q.Get("view"), string(domain.ChartViewGraph))),
		DataType:   domain.DataType(defaulted(q.Get("data_type"), string(domain.DataTypeBoth))),
	}

	// Missing boundaries fall back to the persisted date-range state.
	current := h.dates.Current(r.Context())
	req.StartDate = defaulted(q.Get("start_date"), current.StartDate)
	req.EndDate = defaulted(q.Get("end_date"), current.EndDate)

	for _, raw := range strings.Split(q.Get("source_type"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		source := domain.EnergySourceType(raw)
		if !domain.Known(source) {
			h.sendError(w, "unknown source type \""+raw+"\"", http.StatusBadRequest)
			return
		}
		req.SourceFilters = append(req.SourceFilters, source)
	}

	dashboard, err := h.views.Build(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to build dashboard view", zap.Error(err))
		h.sendError(w, "failed to build dashboard view", http.StatusBadGateway)
		return
	}
	h.respondJSON(w, http.StatusOK, dashboard)
}

// ListAlerts handles GET /api/alerts
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	items, err := h.alerts.List(r.Context(), parseProjectID(r.URL.Query().Get("project_id")))
	if err != nil {
		h.sendError(w, "failed to load alerts", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []domain.Alert{}
	}
	h.respondJSON(w, http.StatusOK, items)
}

type createAlertRequest struct {
	Name      string                `json:"name"`
	Type      domain.DataType       `json:"type"`
	Threshold float64               `json:"threshold"`
	Condition domain.AlertCondition `json:"condition"`
	ProjectID *int64                `json:"project_id"`
	Global    bool                  `json:"global"`
}

// CreateAlert handles POST /api/alerts
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		h.sendError(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Threshold < 0 {
		h.sendError(w, "threshold must be non-negative", http.StatusBadRequest)
		return
	}
	if req.Type != domain.DataTypeConsumption && req.Type != domain.DataTypeGeneration {
		h.sendError(w, "type must be consumption or generation", http.StatusBadRequest)
		return
	}
	if req.Condition != domain.ConditionAbove && req.Condition != domain.ConditionBelow {
		h.sendError(w, "condition must be above or below", http.StatusBadRequest)
		return
	}

	created, err := h.alerts.Create(r.Context(), domain.Alert{
		Name:      req.Name,
		Type:      req.Type,
		Threshold: req.Threshold,
		Condition: req.Condition,
		Active:    true,
	}, req.ProjectID, req.Global)
	if err != nil {
		h.sendError(w, "failed to save alert", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

// ToggleAlert handles POST /api/alerts/{id}/toggle
func (h *Handler) ToggleAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.alerts.Update(r.Context(), id, func(a domain.Alert) domain.Alert {
		a.Active = !a.Active
		return a
	})
	if err != nil {
		h.sendError(w, "alert not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAlert handles DELETE /api/alerts/{id}
func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.alerts.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.sendError(w, "failed to delete alert", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVisualizations handles GET /api/visualizations
func (h *Handler) ListVisualizations(w http.ResponseWriter, r *http.Request) {
	items, err := h.visualizations.List(r.Context(), parseProjectID(r.URL.Query().Get("project_id")))
	if err != nil {
		h.sendError(w, "failed to load visualizations", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []domain.SavedVisualization{}
	}
	h.respondJSON(w, http.StatusOK, items)
}

type createVisualizationRequest struct {
	Name          string                    `json:"name"`
	StartDate     string                    `json:"startDate"`
	EndDate       string                    `json:"endDate"`
	ChartView     domain.ChartView          `json:"chartView"`
	DataType      domain.DataType           `json:"dataType"`
	SourceFilters []domain.EnergySourceType `json:"sourceFilters"`
	TimeFrame     domain.Resolution         `json:"timeFrame"`
	ProjectID     *int64                    `json:"project_id"`
	Global        bool                      `json:"global"`
}

// CreateVisualization handles POST /api/visualizations. The body is a
// snapshot of the live chart-control state at save time.
func (h *Handler) CreateVisualization(w http.ResponseWriter, r *http.Request) {
	var req createVisualizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		h.sendError(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.ChartView != domain.ChartViewGraph && req.ChartView != domain.ChartViewPie {
		h.sendError(w, "chartView must be graph or pie", http.StatusBadRequest)
		return
	}
	for _, source := range req.SourceFilters {
		if !domain.Known(source) {
			h.sendError(w, "unknown source type \""+string(source)+"\"", http.StatusBadRequest)
			return
		}
	}

	created, err := h.visualizations.Create(r.Context(), domain.SavedVisualization{
		Name:          req.Name,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		ChartView:     req.ChartView,
		DataType:      req.DataType,
		SourceFilters: req.SourceFilters,
		TimeFrame:     req.TimeFrame,
	}, req.ProjectID, req.Global)
	if err != nil {
		h.sendError(w, "failed to save visualization", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

// LoadVisualization handles POST /api/visualizations/{id}/load. Loading a
// preset overwrites the live date-range state and returns the full control
// snapshot for the caller to apply.
func (h *Handler) LoadVisualization(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	items, err := h.visualizations.All(r.Context())
	if err != nil {
		h.sendError(w, "failed to load visualizations", http.StatusInternalServerError)
		return
	}

	for _, item := range items {
		if item.ID != id {
			continue
		}
		if _, err := h.dates.SetDates(r.Context(), item.StartDate, item.EndDate); err != nil {
			h.logger.Warn("failed to persist date range from visualization", zap.Error(err))
		}
		h.respondJSON(w, http.StatusOK, item)
		return
	}
	h.sendError(w, "visualization not found", http.StatusNotFound)
}

// DeleteVisualization handles DELETE /api/visualizations/{id}
func (h *Handler) DeleteVisualization(w http.ResponseWriter, r *http.Request) {
	if err := h.visualizations.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.sendError(w, "failed to delete visualization", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDateRange handles GET /api/daterange
func (h *Handler) GetDateRange(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.dates.Current(r.Context()))
}

type putDateRangeRequest struct {
	TimeFrame daterange.TimeFrame `json:"timeFrame"`
	StartDate string              `json:"startDate"`
	EndDate   string              `json:"endDate"`
}

// PutDateRange handles PUT /api/daterange. A named time frame recomputes
// the window; explicit dates are taken verbatim and force custom.
func (h *Handler) PutDateRange(w http.ResponseWriter, r *http.Request) {
	var req putDateRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		state daterange.State
		err   error
	)
	switch {
	case req.StartDate != "" || req.EndDate != "":
		state, err = h.dates.SetDates(r.Context(), req.StartDate, req.EndDate)
	case req.TimeFrame != "":
		state, err = h.dates.SetTimeFrame(r.Context(), req.TimeFrame)
	default:
		h.sendError(w, "timeFrame or explicit dates are required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.sendError(w, "failed to persist date range", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusOK, state)
}

type themePayload struct {
	Theme string `json:"theme"`
}

// GetTheme handles GET /api/theme
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme := "light"
	if data, ok, err := h.kv.Get(r.Context(), store.KeyTheme); err == nil && ok {
		var stored themePayload
		if json.Unmarshal(data, &stored) == nil && stored.Theme != "" {
			theme = stored.Theme
		}
	}
	h.respondJSON(w, http.StatusOK, themePayload{Theme: theme})
}

// PutTheme handles PUT /api/theme
func (h *Handler) PutTheme(w http.ResponseWriter, r *http.Request) {
	var req themePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Theme != "light" && req.Theme != "dark" {
		h.sendError(w, "theme must be light or dark", http.StatusBadRequest)
		return
	}

	data, _ := json.Marshal(req)
	if err := h.kv.Set(r.Context(), store.KeyTheme, data); err != nil {
		h.sendError(w, "failed to persist theme", http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusOK, req)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) sendError(w http.ResponseWriter, message string, code int) {
	h.respondJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

func parseProjectID(raw string) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func defaulted(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
