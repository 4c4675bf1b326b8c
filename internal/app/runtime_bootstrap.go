package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/3n8/openclaw-plugins/internal/actions"
	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/gateway"
	"github.com/3n8/openclaw-plugins/internal/heartbeat"
	"github.com/3n8/openclaw-plugins/internal/httpapi"
	"github.com/3n8/openclaw-plugins/internal/matrix"
	"github.com/3n8/openclaw-plugins/internal/mcp"
	"github.com/3n8/openclaw-plugins/internal/scheduler"
	"github.com/3n8/openclaw-plugins/internal/store"
	"github.com/3n8/openclaw-plugins/internal/target"
	"github.com/3n8/openclaw-plugins/internal/telemetry"
	"github.com/3n8/openclaw-plugins/internal/watcher"
)

func New(cfg config.Config, version string, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registry := heartbeat.NewRegistry()

	source, err := config.NewSource(cfg.ConfigFile, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("load channel config: %w", err)
	}
	source.SetHeartbeatReporter(registry)

	var sqlStore *store.Store
	var audit gateway.AuditStore
	if cfg.AuditEnabled {
		sqlStore, err = store.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := sqlStore.AutoMigrate(context.Background()); err != nil {
			sqlStore.Close()
			return nil, err
		}
		audit = sqlStore
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := telemetry.NewMetrics(promRegistry)
	if err != nil {
		closeStore(sqlStore)
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	pool := matrix.NewPool(source, time.Duration(cfg.HTTPTimeoutSec)*time.Second)
	client := matrix.NewClient(pool, logger)
	router := actions.NewRouter(client, actions.Options{
		// Placeholder rules follow config reloads.
		Predicate: target.PredicateFunc(func(ref string) bool {
			return source.Current().Placeholders.Predicate().IsPlaceholder(ref)
		}),
		Tracer:        telemetry.Multi(telemetry.NewSlogTracer(logger.With("component", "router")), metrics),
		FallbackLimit: cfg.FallbackLimit,
	})
	service := gateway.New(source, router, audit, logger)
	mcpServer := mcp.NewServer(service, version, logger)

	var pruner scheduler.Pruner
	if sqlStore != nil {
		pruner = sqlStore
	}
	schedulerService, err := scheduler.New(pruner, cfg.AuditRetentionCron, cfg.AuditRetentionDays, logger)
	if err != nil {
		closeStore(sqlStore)
		return nil, err
	}
	schedulerService.SetHeartbeatReporter(registry)

	var watchService *watcher.Service
	if cfg.WatchConfig {
		watchService, err = watcher.New([]string{cfg.ConfigFile}, logger, source.OnFileChange)
		if err != nil {
			closeStore(sqlStore)
			return nil, err
		}
		watchService.SetHeartbeatReporter(registry)
	} else {
		registry.Disabled("watcher", "config watching disabled")
	}

	handler := httpapi.NewRouter(httpapi.Dependencies{
		Config:    cfg,
		Gateway:   service,
		Heartbeat: registry,
		Metrics:   promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		MCP:       mcpServer.Handler(),
		Logger:    logger.With("component", "api"),
		Version:   version,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		source:     source,
		store:      sqlStore,
		gateway:    service,
		mcp:        mcpServer,
		httpServer: httpServer,
		watcher:    watchService,
		scheduler:  schedulerService,
		heartbeat:  registry,
	}, nil
}

// Gateway exposes the action service for one-shot commands.
func (r *Runtime) Gateway() *gateway.Service {
	return r.gateway
}

func (r *Runtime) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

func closeStore(sqlStore *store.Store) {
	if sqlStore != nil {
		sqlStore.Close()
	}
}
