package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/health"
	"github.com/vyrodovalexey/avaroute/internal/middleware"
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/proxy"
	"github.com/vyrodovalexey/avaroute/internal/router"
)

// State represents the gateway state.
type State int32

const (
	// StateStopped indicates the gateway is stopped.
	StateStopped State = iota
	// StateStarting indicates the gateway is starting.
	StateStarting
	// StateRunning indicates the gateway is running.
	StateRunning
	// StateStopping indicates the gateway is stopping.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Dispatcher forwards a matched request to its upstream.
type Dispatcher interface {
	Dispatch(ctx context.Context, route *router.Route, req *proxy.Request) proxy.Outcome
}

// Gateway is the HTTP front: it owns the engine and the listener.
type Gateway struct {
	config     *config.GatewayConfig
	logger     observability.Logger
	metrics    *observability.Metrics
	engine     *gin.Engine
	listener   *Listener
	table      *router.Table
	dispatcher Dispatcher
	collector  *health.Collector
	state      atomic.Int32

	serviceName     string
	shutdownTimeout time.Duration
}

// Option is a functional option for configuring the gateway.
type Option func(*Gateway)

// WithLogger sets the logger for the gateway.
func WithLogger(logger observability.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithMetrics enables the HTTP request metrics middleware.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithServiceName sets the instrumentation name of server spans.
func WithServiceName(name string) Option {
	return func(g *Gateway) {
		g.serviceName = name
	}
}

// WithShutdownTimeout overrides server.shutdown_timeout.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.shutdownTimeout = timeout
	}
}

// New creates a gateway and builds its engine. The listener is created by
// Start.
func New(
	cfg *config.GatewayConfig,
	table *router.Table,
	dispatcher Dispatcher,
	collector *health.Collector,
	opts ...Option,
) (*Gateway, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if table == nil || dispatcher == nil || collector == nil {
		return nil, ErrMissingComponent
	}

	g := &Gateway{
		config:          cfg,
		logger:          observability.NopLogger(),
		table:           table,
		dispatcher:      dispatcher,
		collector:       collector,
		serviceName:     middleware.TracerName,
		shutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.shutdownTimeout <= 0 {
		g.shutdownTimeout = config.DefaultShutdownTimeout
	}

	g.engine = g.buildEngine()
	g.state.Store(int32(StateStopped))

	return g, nil
}

// buildEngine wires the middleware chain and the three endpoints.
func (g *Gateway) buildEngine() *gin.Engine {
	engine := gin.New()
	zl := observability.Zap(g.logger)

	engine.Use(
		middleware.Recovery(zl),
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{ServiceName: g.serviceName}),
		middleware.Logging(zl),
	)
	if g.metrics != nil {
		engine.Use(middleware.Metrics(g.metrics))
	}
	engine.Use(middleware.ConcurrencyLimit(int64(g.config.Server.Workers)))

	engine.GET("/", indexHandler)
	engine.GET("/health", health.Handler(g.collector))
	engine.Any("/proxy/*path", g.proxyHandler)

	return engine
}

// Start binds server.host:server.port and starts serving.
func (g *Gateway) Start(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return ErrGatewayNotStopped
	}

	address := g.config.Server.Address()
	g.logger.Info("starting gateway",
		observability.String("address", address),
		observability.Int("routes", g.table.Len()),
		observability.Int("workers", g.config.Server.Workers),
	)

	g.listener = NewListener("http", address, g.engine, WithListenerLogger(g.logger))
	if err := g.listener.Start(ctx); err != nil {
		g.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to start listener: %w", err)
	}

	g.state.Store(int32(StateRunning))
	g.logger.Info("gateway started",
		observability.String("address", g.listener.Addr().String()),
	)

	return nil
}

// Stop drains in-flight requests and stops the listener. Without a
// deadline on ctx the shutdown timeout applies.
func (g *Gateway) Stop(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return ErrGatewayNotRunning
	}

	g.logger.Info("stopping gateway")

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.shutdownTimeout)
		defer cancel()
	}

	err := g.listener.Stop(ctx)
	g.state.Store(int32(StateStopped))

	if err != nil {
		g.logger.Error("gateway stopped with error", observability.Error(err))
		return err
	}

	g.logger.Info("gateway stopped")
	return nil
}

// State returns the current gateway state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// IsRunning returns true if the gateway is running.
func (g *Gateway) IsRunning() bool {
	return g.State() == StateRunning
}

// Addr returns the bound listener address, or nil when not started.
func (g *Gateway) Addr() net.Addr {
	if g.listener == nil {
		return nil
	}
	return g.listener.Addr()
}

// Config returns the gateway configuration.
func (g *Gateway) Config() *config.GatewayConfig {
	return g.config
}

// Handler returns the engine as an http.Handler.
func (g *Gateway) Handler() http.Handler {
	return g.engine
}
