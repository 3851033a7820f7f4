// Package server exposes the dashboard read model and the persisted
// view-state collections over a small JSON HTTP surface.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/pkg/metrics"
)

// New builds the router with all dashboard routes registered.
func New(h *Handler, collector *metrics.Collector) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument(collector))

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", h.GetDashboard).Methods(http.MethodGet)

	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)

	api.HandleFunc("/projects", h.ListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", h.CreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", h.GetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", h.UpdateProject).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}", h.DeleteProject).Methods(http.MethodDelete)

	api.HandleFunc("/recommendations", h.GetRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/trends", h.GetTrends).Methods(http.MethodGet)

	api.HandleFunc("/alerts", h.ListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts", h.CreateAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id}/toggle", h.ToggleAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id}", h.DeleteAlert).Methods(http.MethodDelete)

	api.HandleFunc("/visualizations", h.ListVisualizations).Methods(http.MethodGet)
	api.HandleFunc("/visualizations", h.CreateVisualization).Methods(http.MethodPost)
	api.HandleFunc("/visualizations/{id}/load", h.LoadVisualization).Methods(http.MethodPost)
	api.HandleFunc("/visualizations/{id}", h.DeleteVisualization).Methods(http.MethodDelete)

	api.HandleFunc("/daterange", h.GetDateRange).Methods(http.MethodGet)
	api.HandleFunc("/daterange", h.PutDateRange).Methods(http.MethodPut)

	api.HandleFunc("/theme", h.GetTheme).Methods(http.MethodGet)
	api.HandleFunc("/theme", h.PutTheme).Methods(http.MethodPut)

	return r
}

// statusRecorder captures the response code for the request metric.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(collector *metrics.Collector) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			collector.RecordAPIRequest(route, r.Method, strconv.Itoa(rec.status))
			collector.APIRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

// LogRoutes logs the mounted surface once at startup.
func LogRoutes(logger *zap.Logger, port int) {
	logger.Info("dashboard http surface ready",
		zap.Int("port", port),
		zap.Strings("routes", []string{
			"/health", "/metrics", "/api/dashboard", "/api/projects",
			"/api/recommendations", "/api/trends",
			"/api/alerts", "/api/visualizations", "/api/daterange", "/api/theme",
		}),
	)
}
