package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/router"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

// dispatchTracer follows the globally installed tracer provider.
var dispatchTracer = otel.Tracer("avaroute/proxy")

// Dispatcher forwards requests to route upstreams.
type Dispatcher struct {
	client   *http.Client
	logger   observability.Logger
	metrics  *Metrics
	breakers map[string]*gobreaker.CircuitBreaker

	breakerRoutes []*router.Route
	breakerConfig *BreakerConfig
}

// Option is a functional option for configuring the dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for the dispatcher.
func WithLogger(logger observability.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics recorder for the dispatcher.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithHTTPClient replaces the pooled client built from configuration.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		d.client = client
	}
}

// WithCircuitBreakers guards every route in routes with its own breaker.
func WithCircuitBreakers(routes []*router.Route, cfg BreakerConfig) Option {
	return func(d *Dispatcher) {
		d.breakerRoutes = routes
		d.breakerConfig = &cfg
	}
}

// NewDispatcher creates a dispatcher whose client pools connections
// according to cfg.
func NewDispatcher(cfg config.UpstreamConfig, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.client == nil {
		d.client = &http.Client{Transport: NewTransport(cfg)}
	}

	if d.breakerConfig != nil {
		d.breakers = newBreakers(d.breakerRoutes, *d.breakerConfig, d.logger, d.metrics)
	}

	return d
}

// Dispatch forwards req to route's upstream and classifies the result.
// The call is bounded by route.Timeout and aborted when ctx is cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, route *router.Route, req *Request) Outcome {
	start := time.Now()
	// Wildcards match on a byte prefix, so /api/* with /apiary targets
	// <upstream>/ary rather than a sibling of the route.
	target := TargetURL(route, req.Path, req.RawQuery)

	ctx, span := dispatchTracer.Start(ctx, "proxy.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gateway.route", route.Name),
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", target.String()),
		),
	)
	defer span.End()

	var outcome Outcome
	if breaker, ok := d.breakers[route.Name]; ok {
		outcome = d.forwardGuarded(ctx, breaker, route, target, req)
	} else {
		outcome = d.forward(ctx, route, target, req)
	}

	duration := time.Since(start)
	d.observe(ctx, span, route, target, outcome, duration)

	return outcome
}

// forwardGuarded runs the call through the route's breaker. Only
// timeouts and transport failures count against the upstream.
func (d *Dispatcher) forwardGuarded(
	ctx context.Context,
	breaker *gobreaker.CircuitBreaker,
	route *router.Route,
	target *url.URL,
	req *Request,
) Outcome {
	var outcome Outcome
	_, err := breaker.Execute(func() (interface{}, error) {
		outcome = d.forward(ctx, route, target, req)
		if outcome.Kind == UpstreamTimeout || outcome.Kind == UpstreamUnreachable {
			return nil, outcome.Err
		}
		return nil, nil
	})

	if isBreakerRejection(err) {
		return Outcome{
			Kind: UpstreamUnreachable,
			Err: NewProxyError("circuit_breaker", route.Name, target.String(),
				"call rejected", fmt.Errorf("%w: %w", ErrUpstreamUnreachable, ErrCircuitOpen)),
		}
	}
	return outcome
}

func (d *Dispatcher) forward(parent context.Context, route *router.Route, target *url.URL, req *Request) Outcome {
	ctx, cancel := context.WithTimeout(parent, route.Timeout)
	defer cancel()

	outReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), req.Body)
	if err != nil {
		return Outcome{
			Kind: UpstreamUnreachable,
			Err: NewProxyError("build_request", route.Name, target.String(),
				"failed to build upstream request", fmt.Errorf("%w: %w", ErrUpstreamUnreachable, err)),
		}
	}
	if req.ContentLength > 0 {
		outReq.ContentLength = req.ContentLength
	}

	if req.Header != nil {
		copyEndToEndHeaders(outReq.Header, req.Header)
	}
	setForwardedHeaders(outReq.Header, req)
	if requestID := util.RequestIDFromContext(parent); requestID != "" {
		outReq.Header.Set(RequestIDHeader, requestID)
	}
	observability.InjectTraceContext(ctx, outReq)

	resp, err := d.client.Do(outReq)
	if err != nil {
		return classifyFailure(parent, ctx, route, target, "send", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome := classifyFailure(parent, ctx, route, target, "read_body", resp.StatusCode, err)
		if outcome.Kind == UpstreamUnreachable && parent.Err() == nil {
			// A broken body stream on a live request is a decode failure.
			outcome.Kind = UpstreamDecodeFailed
			outcome.Err = NewProxyError("read_body", route.Name, target.String(),
				"failed to read upstream body", fmt.Errorf("%w: %w", ErrUpstreamDecode, err))
		}
		return outcome
	}

	text, err := decodeBody(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return Outcome{
			Kind:           UpstreamDecodeFailed,
			UpstreamStatus: resp.StatusCode,
			Err:            NewProxyError("decode_body", route.Name, target.String(), "failed to decode upstream body", err),
		}
	}

	return Outcome{
		Kind:           Forwarded,
		Body:           text,
		UpstreamStatus: resp.StatusCode,
	}
}

// classifyFailure maps a transport error to a timeout or unreachable
// outcome. Cancellation of the inbound request is reported as
// unreachable wrapping context.Canceled.
func classifyFailure(
	parent, callCtx context.Context,
	route *router.Route,
	target *url.URL,
	op string,
	status int,
	err error,
) Outcome {
	if errors.Is(parent.Err(), context.Canceled) {
		return Outcome{
			Kind:           UpstreamUnreachable,
			UpstreamStatus: status,
			Err: NewProxyError(op, route.Name, target.String(), "client cancelled request",
				fmt.Errorf("%w: %w", ErrUpstreamUnreachable, context.Canceled)),
		}
	}

	if isTimeout(callCtx, err) {
		return Outcome{
			Kind:           UpstreamTimeout,
			UpstreamStatus: status,
			Err: NewProxyError(op, route.Name, target.String(),
				fmt.Sprintf("no response within %s", route.Timeout), fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)),
		}
	}

	return Outcome{
		Kind:           UpstreamUnreachable,
		UpstreamStatus: status,
		Err: NewProxyError(op, route.Name, target.String(), "upstream call failed",
			fmt.Errorf("%w: %w", ErrUpstreamUnreachable, err)),
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (d *Dispatcher) observe(
	ctx context.Context,
	span trace.Span,
	route *router.Route,
	target *url.URL,
	outcome Outcome,
	duration time.Duration,
) {
	if outcome.UpstreamStatus != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", outcome.UpstreamStatus))
	}
	span.SetAttributes(attribute.String("gateway.outcome", outcome.Kind.String()))

	if d.metrics != nil {
		d.metrics.RecordUpstream(route.Name, outcome.Kind, duration)
	}

	logger := d.logger.WithContext(ctx)
	fields := []observability.Field{
		observability.String("route", route.Name),
		observability.String("target", target.String()),
		observability.String("outcome", outcome.Kind.String()),
		observability.Int("upstream_status", outcome.UpstreamStatus),
		observability.Duration("duration", duration),
	}

	if outcome.Kind == Forwarded {
		span.SetStatus(codes.Ok, "")
		logger.Debug("upstream call completed", fields...)
		return
	}

	span.RecordError(outcome.Err)
	span.SetStatus(codes.Error, outcome.Kind.String())
	logger.Warn("upstream call failed", append(fields, observability.Error(outcome.Err))...)
}

// TargetURL joins the route upstream with the part of path that follows
// the wildcard prefix and appends the inbound query string.
//
//	/svc/* + /svc/items?id=1 -> <upstream>/items?id=1
func TargetURL(route *router.Route, path, rawQuery string) *url.URL {
	target := *route.Upstream

	if rem := route.Remainder(path); rem != "" {
		if !strings.HasPrefix(rem, "/") {
			rem = "/" + rem
		}
		target.Path = strings.TrimSuffix(target.Path, "/") + rem
		target.RawPath = ""
	}

	switch {
	case rawQuery == "":
	case target.RawQuery == "":
		target.RawQuery = rawQuery
	default:
		target.RawQuery = target.RawQuery + "&" + rawQuery
	}

	return &target
}
