package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/gateway"
	"github.com/vyrodovalexey/avaroute/internal/health"
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/proxy"
	"github.com/vyrodovalexey/avaroute/internal/router"
)

const metricsNamespace = "gateway"

// application holds all application components.
type application struct {
	gateway       *gateway.Gateway
	metrics       *observability.Metrics
	metricsServer *gateway.Listener
	tracer        *observability.Tracer
	config        *config.GatewayConfig
}

// initApplication wires every component from cfg. The start marker is set
// first so uptime covers the whole start sequence.
func initApplication(cfg *config.GatewayConfig, logger observability.Logger) *application {
	start := health.NewStartMarker(time.Now())

	metrics := observability.NewMetrics(metricsNamespace)
	metrics.SetBuildInfo(version, gitCommit, buildTime)

	tracer := initTracer(cfg, logger)

	routerMetrics := router.NewMetrics(metricsNamespace)
	routerMetrics.MustRegister(metrics.Registry())

	table, err := router.NewTable(cfg.Routes, router.WithMetrics(routerMetrics))
	if err != nil {
		fatalWithSync(logger, "failed to build route table", observability.Error(err))
		return nil
	}
	for _, r := range table.Routes() {
		logger.Debug("route loaded", observability.String("route", r.String()))
	}

	dispatcher := initDispatcher(cfg, table, logger, metrics)

	healthMetrics := health.GetHealthMetrics()
	healthMetrics.MustRegister(metrics.Registry())
	collector := health.NewCollector(
		health.NewSystemSampler(cfg.Health.CPUSampleInterval.Duration()),
		start,
		health.WithLogger(logger),
		health.WithMetrics(healthMetrics),
	)

	gw, err := gateway.New(cfg, table, dispatcher, collector,
		gateway.WithLogger(logger),
		gateway.WithMetrics(metrics),
		gateway.WithServiceName(cfg.Observability.Tracing.ServiceName),
	)
	if err != nil {
		fatalWithSync(logger, "failed to create gateway", observability.Error(err))
		return nil
	}

	return &application{
		gateway: gw,
		metrics: metrics,
		tracer:  tracer,
		config:  cfg,
	}
}

// initDispatcher creates the dispatcher, with per-route circuit breakers
// when circuit_breaker.enabled is set.
func initDispatcher(
	cfg *config.GatewayConfig,
	table *router.Table,
	logger observability.Logger,
	metrics *observability.Metrics,
) *proxy.Dispatcher {
	proxyMetrics := proxy.NewMetrics(metricsNamespace)
	proxyMetrics.MustRegister(metrics.Registry())

	opts := []proxy.Option{
		proxy.WithLogger(logger),
		proxy.WithMetrics(proxyMetrics),
	}

	if cfg.CircuitBreaker.Enabled {
		opts = append(opts, proxy.WithCircuitBreakers(table.Routes(), proxy.BreakerConfig{
			Threshold: cfg.CircuitBreaker.Threshold,
			Timeout:   cfg.CircuitBreaker.Timeout.Duration(),
		}))
		logger.Info("circuit breakers enabled",
			observability.Int("threshold", cfg.CircuitBreaker.Threshold),
			observability.Duration("timeout", cfg.CircuitBreaker.Timeout.Duration()),
		)
	}

	return proxy.NewDispatcher(cfg.Upstream, opts...)
}

// initTracer initializes the tracer.
func initTracer(cfg *config.GatewayConfig, logger observability.Logger) *observability.Tracer {
	tracing := cfg.Observability.Tracing

	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:    tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   tracing.OTLPEndpoint,
		SamplingRate:   tracing.Rate(),
		Enabled:        tracing.Enabled,
	})
	if err != nil {
		fatalWithSync(logger, "failed to initialize tracer", observability.Error(err))
		return nil
	}

	return tracer
}

// newMetricsServer creates the listener that serves the metrics registry,
// or nil when metrics are disabled.
func newMetricsServer(app *application, logger observability.Logger) *gateway.Listener {
	m := app.config.Observability.Metrics
	if !m.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.Path, app.metrics.Handler())

	addr := fmt.Sprintf("%s:%d", app.config.Server.Host, m.Port)
	logger.Info("metrics server configured",
		observability.String("address", addr),
		observability.String("metrics_path", m.Path),
	)

	return gateway.NewListener("metrics", addr, mux, gateway.WithListenerLogger(logger))
}
