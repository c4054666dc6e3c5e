package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ragforge/console/config"
	"github.com/ragforge/console/internal/backend"
	"github.com/ragforge/console/internal/data"
	httpx "github.com/ragforge/console/internal/http"
	"github.com/ragforge/console/internal/observability/metrics"
	"github.com/ragforge/console/internal/observability/statsd"
	"github.com/ragforge/console/internal/service"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Watch   *service.WatchService
	Janitor *service.Janitor
	History *data.JobRunRepo
	Cache   *data.SnapshotCacheRepo
	Metrics *statsd.Client
	Health  []httpx.HealthCheck
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires the backend client, repositories, and application
// services from configuration and open connections.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	backendClient, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.RequestTimeout,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build backend client: %w", err)
	}

	snapshotTTL := cfg.Watch.SnapshotTTL
	if cfg.Cache.SnapshotTTL > 0 {
		snapshotTTL = cfg.Cache.SnapshotTTL
	}
	cache := data.NewSnapshotCacheRepo(deps.RedisClient, snapshotTTL)
	history := data.NewJobRunRepo(deps.DB)

	metricsSink := buildMetricsSink(logger, cfg.Observability.Metrics)

	watch := service.NewWatchService(service.WatchServiceOptions{
		Backend: backendClient,
		Cache:   cache,
		History: history,
		Config:  cfg.Watch,
		Logger:  logger,
		Metrics: metrics.NewWatchMetrics(metricsSink),
		// Transports share one client without a global timeout; streams are
		// long-lived and polls carry per-request contexts.
		Client: &http.Client{},
	})

	janitor := service.NewJanitor(history, cfg.History, logger)

	db := deps.DB
	health := []httpx.HealthCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return db.PingContext(ctx) }},
		{Name: "redis", Check: cache.Health},
	}

	return ServiceContainer{
		Watch:   watch,
		Janitor: janitor,
		History: history,
		Cache:   cache,
		Metrics: metricsSink,
		Health:  health,
	}, nil
}

func buildMetricsSink(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. Blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	var server *http.Server
	if enabled[config.ServiceModeHTTP] {
		server = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	if enabled[config.ServiceModeJanitor] {
		group.Go(func() error {
			if runErr := cfg.Services.Janitor.Run(groupCtx); runErr != nil {
				return fmt.Errorf("janitor failed: %w", runErr)
			}
			return nil
		})
	}

	// Block until a signal arrives or a background service fails.
	<-groupCtx.Done()
	logger.Info("shutting down services...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
	defer cancel()

	if shutdownErr := ShutdownHTTPServer(ShutdownConfig{
		Context: shutdownCtx,
		Server:  server,
		Watch:   cfg.Services.Watch,
		Logger:  logger,
	}); shutdownErr != nil {
		logger.Error("graceful stop failed", "error", shutdownErr)
	}

	if cfg.Services.Metrics != nil {
		if closeErr := cfg.Services.Metrics.Close(); closeErr != nil {
			logger.Warn("closing statsd client failed", "error", closeErr)
		}
	}

	return group.Wait()
}
