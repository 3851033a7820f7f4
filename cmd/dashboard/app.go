package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/aggregate"
	"github.com/ecotrack/energy-dashboard/internal/alerts"
	"github.com/ecotrack/energy-dashboard/internal/api"
	"github.com/ecotrack/energy-dashboard/internal/config"
	"github.com/ecotrack/energy-dashboard/internal/daterange"
	"github.com/ecotrack/energy-dashboard/internal/domain"
	"github.com/ecotrack/energy-dashboard/internal/mq"
	"github.com/ecotrack/energy-dashboard/internal/server"
	"github.com/ecotrack/energy-dashboard/internal/store"
	"github.com/ecotrack/energy-dashboard/internal/view"
	"github.com/ecotrack/energy-dashboard/pkg/metrics"
)

func startServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *zap.Logger,
	router *mux.Router,
	client *api.Client,
) {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServicePort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Without a static token the service authenticates itself
			// against the energy API before serving.
			if cfg.API.Token == "" && cfg.API.Username != "" {
				token, err := client.Login(ctx, cfg.API.Username, cfg.API.Password)
				if err != nil {
					return fmt.Errorf("failed to authenticate against energy API: %w", err)
				}
				logger.Info("authenticated against energy API",
					zap.String("username", token.Username),
					zap.Int64("user_id", token.UserID),
				)
			}

			server.LogRoutes(logger, cfg.ServicePort)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("http server exited", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down http server")
			return srv.Shutdown(ctx)
		},
	})
}

// ProvideMetrics creates the prometheus collector
func ProvideMetrics() *metrics.Collector {
	return metrics.NewCollector("energy_dashboard")
}

// ProvideKV selects the view-state store backend from configuration
func ProvideKV(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (store.KV, error) {
	if cfg.Store.Backend == "redis" {
		return store.NewRedisStore(lc, logger, cfg.Store.RedisAddr, cfg.Store.RedisPrefix)
	}
	return store.NewFileStore(cfg.Store.FileDir)
}

// ProvideAlertCollection creates the persisted alert collection
func ProvideAlertCollection(kv store.KV, logger *zap.Logger) *store.Collection[domain.Alert] {
	return store.NewCollection[domain.Alert](kv, store.KeyAlerts, logger)
}

// ProvideVisualizationCollection creates the persisted visualization collection
func ProvideVisualizationCollection(kv store.KV, logger *zap.Logger) *store.Collection[domain.SavedVisualization] {
	return store.NewCollection[domain.SavedVisualization](kv, store.KeyVisualizations, logger)
}

// ProvideDateRangeManager creates the persisted date-range state manager
func ProvideDateRangeManager(kv store.KV, logger *zap.Logger) *daterange.Manager {
	return daterange.NewManager(kv, logger)
}

// ProvideAPIClient creates the energy API client
func ProvideAPIClient(cfg *config.Config, logger *zap.Logger) *api.Client {
	return api.NewClient(cfg.API, logger)
}

// ProvideAlertPublisher connects the alert-event publisher when a broker is
// configured; otherwise alert events stay local.
func ProvideAlertPublisher(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("RABBITMQ_URL not set, alert event publishing disabled")
		return nil, nil
	}

	conn, err := mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}
	return mq.NewPublisher(conn, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey, logger)
}

// ProvideNotifier creates the alert notifier
func ProvideNotifier(publisher *mq.Publisher, logger *zap.Logger) *alerts.Notifier {
	if publisher == nil {
		return alerts.NewNotifier(nil, logger)
	}
	return alerts.NewNotifier(publisher, logger)
}

// ProvideViewService creates the dashboard view assembler
func ProvideViewService(
	cfg *config.Config,
	client *api.Client,
	alertStore *store.Collection[domain.Alert],
	notifier *alerts.Notifier,
	collector *metrics.Collector,
	logger *zap.Logger,
) *view.Service {
	factors := aggregate.ImpactFactors{
		CO2KgPerKWh:    cfg.Impact.CO2KgPerKWh,
		TreesPerTonCO2: cfg.Impact.TreesPerTonCO2,
		CostUSDPerKWh:  cfg.Impact.CostUSDPerKWh,
	}
	return view.NewService(client, alertStore, notifier, factors, collector, logger)
}

// ProvideHandler creates the HTTP handler set
func ProvideHandler(
	views *view.Service,
	client *api.Client,
	alertStore *store.Collection[domain.Alert],
	vizStore *store.Collection[domain.SavedVisualization],
	dates *daterange.Manager,
	kv store.KV,
	logger *zap.Logger,
) *server.Handler {
	return server.NewHandler(views, client, alertStore, vizStore, dates, kv, logger)
}

// ProvideRouter creates the mux router
func ProvideRouter(h *server.Handler, collector *metrics.Collector) *mux.Router {
	return server.New(h, collector)
}
