package proxy

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/router"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

func testUpstreamConfig() config.UpstreamConfig {
	cfg := config.GatewayConfig{}
	cfg.ApplyDefaults()
	return cfg.Upstream
}

func newRoute(t *testing.T, rc config.RouteConfig) *router.Route {
	t.Helper()

	if rc.Timeout == 0 {
		rc.Timeout = 2
	}
	if rc.Method == "" {
		rc.Method = "*"
	}
	table, err := router.NewTable([]config.RouteConfig{rc})
	require.NoError(t, err)
	return table.Routes()[0]
}

func inbound(method, path string) *Request {
	return &Request{
		Method:     method,
		Path:       path,
		Header:     http.Header{},
		Host:       "gateway.local",
		RemoteAddr: "10.0.0.1:5555",
	}
}

func TestDispatch_ForwardsRemainderVerbatim(t *testing.T) {
	t.Parallel()

	seen := make(chan *http.Request, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Clone(context.Background())
		_, _ = io.WriteString(w, `{"items":[1,2,3]}`)
	}))
	defer upstream.Close()

	route := newRoute(t, config.RouteConfig{Path: "/svc/*", Upstream: upstream.URL})
	d := NewDispatcher(testUpstreamConfig())

	req := inbound(http.MethodGet, "/svc/items")
	req.RawQuery = "page=2"
	ctx := util.ContextWithRequestID(context.Background(), "req-42")

	out := d.Dispatch(ctx, route, req)

	require.Equal(t, Forwarded, out.Kind, "err: %v", out.Err)
	assert.Equal(t, `{"items":[1,2,3]}`, out.Body)
	assert.Equal(t, http.StatusOK, out.HTTPStatus())
	assert.Equal(t, http.StatusOK, out.UpstreamStatus)
	assert.NoError(t, out.Err)

	got := <-seen
	assert.Equal(t, "/items", got.URL.Path)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "page=2", got.URL.RawQuery)
	assert.Equal(t, "10.0.0.1", got.Header.Get("X-Forwarded-For"))
	assert.Equal(t, "gateway.local", got.Header.Get("X-Forwarded-Host"))
	assert.Equal(t, "req-42", got.Header.Get(RequestIDHeader))
}

func TestDispatch_ForwardsMethodAndBody(t *testing.T) {
	t.Parallel()

	type seenRequest struct{ method, body string }
	seen := make(chan seenRequest, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen <- seenRequest{method: r.Method, body: string(b)}
		_, _ = io.WriteString(w, "created")
	}))
	defer upstream.Close()

	route := newRoute(t, config.RouteConfig{Path: "/orders", Method: "POST", Upstream: upstream.URL})
	d := NewDispatcher(testUpstreamConfig())

	req := inbound(http.MethodPost, "/orders")
	req.Body = strings.NewReader(`{"qty":1}`)

	out := d.Dispatch(context.Background(), route, req)

	require.Equal(t, Forwarded, out.Kind)
	assert.Equal(t, "created", out.Body)
	got := <-seen
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, `{"qty":1}`, got.body)
}

func TestDispatch_UpstreamErrorStatusIsForwarded(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "missing")
	}))
	defer upstream.Close()

	route := newRoute(t, config.RouteConfig{Path: "/x", Upstream: upstream.URL})
	out := NewDispatcher(testUpstreamConfig()).Dispatch(context.Background(), route, inbound(http.MethodGet, "/x"))

	assert.Equal(t, Forwarded, out.Kind)
	assert.Equal(t, "missing", out.Body)
	assert.Equal(t, http.StatusNotFound, out.UpstreamStatus)
	assert.Equal(t, http.StatusOK, out.HTTPStatus())
}

func TestDispatch_Timeout(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer upstream.Close()

	route := newRoute(t, config.RouteConfig{Path: "/slow", Upstream: upstream.URL, Timeout: 1})
	d := NewDispatcher(testUpstreamConfig())

	start := time.Now()
	out := d.Dispatch(context.Background(), route, inbound(http.MethodGet, "/slow"))
	elapsed := time.Since(start)

	assert.Equal(t, UpstreamTimeout, out.Kind)
	assert.Equal(t, http.StatusBadGateway, out.HTTPStatus())
	assert.True(t, errors.Is(out.Err, ErrUpstreamTimeout))
	assert.GreaterOrEqual(t, elapsed, time.Second)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestDispatch_StoppedUpstream(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	route := newRoute(t, config.RouteConfig{Path: "/svc/*", Upstream: url})
	out := NewDispatcher(testUpstreamConfig()).Dispatch(context.Background(), route, inbound(http.MethodGet, "/svc/items"))

	assert.Equal(t, UpstreamUnreachable, out.Kind)
	assert.Equal(t, http.StatusBadGateway, out.HTTPStatus())
	assert.True(t, errors.Is(out.Err, ErrUpstreamUnreachable))
	assert.True(t, IsProxyError(out.Err))
	assert.Zero(t, out.UpstreamStatus)
}

func TestDispatch_ClientCancellation(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		close(entered)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer upstream.Close()

	route := newRoute(t, config.RouteConfig{Path: "/slow", Upstream: upstream.URL, Timeout: 10})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-entered
		cancel()
	}()

	out := NewDispatcher(testUpstreamConfig()).Dispatch(ctx, route, inbound(http.MethodGet, "/slow"))

	assert.Equal(t, UpstreamUnreachable, out.Kind)
	assert.True(t, errors.Is(out.Err, context.Canceled))
}

func TestDispatch_DecodeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"invalid utf8", "text/plain", []byte{0xff, 0xfe, 0xfd}},
		{"invalid utf8 declared", "text/plain; charset=utf-8", []byte{'o', 'k', 0xc3}},
		{"unknown charset", "text/plain; charset=x-made-up", []byte("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write(tt.body)
			}))
			defer upstream.Close()

			route := newRoute(t, config.RouteConfig{Path: "/bin", Upstream: upstream.URL})
			out := NewDispatcher(testUpstreamConfig()).Dispatch(context.Background(), route, inbound(http.MethodGet, "/bin"))

			assert.Equal(t, UpstreamDecodeFailed, out.Kind)
			assert.Equal(t, http.StatusInternalServerError, out.HTTPStatus())
			assert.True(t, errors.Is(out.Err, ErrUpstreamDecode))
			assert.Equal(t, http.StatusOK, out.UpstreamStatus)
		})
	}
}

func TestDispatch_DecodesDeclaredCharset(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer upstream.Close()

	route := newRoute(t, config.RouteConfig{Path: "/latin", Upstream: upstream.URL})
	out := NewDispatcher(testUpstreamConfig()).Dispatch(context.Background(), route, inbound(http.MethodGet, "/latin"))

	require.Equal(t, Forwarded, out.Kind)
	assert.Equal(t, "café", out.Body)
}

func TestDispatch_CircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	url := upstream.URL
	upstream.Close()

	route := newRoute(t, config.RouteConfig{Name: "flaky", Path: "/f", Upstream: url})
	metrics := NewMetrics("test")
	d := NewDispatcher(testUpstreamConfig(),
		WithMetrics(metrics),
		WithCircuitBreakers([]*router.Route{route}, BreakerConfig{Threshold: 2, Timeout: time.Minute}),
	)

	for i := 0; i < 2; i++ {
		out := d.Dispatch(context.Background(), route, inbound(http.MethodGet, "/f"))
		assert.Equal(t, UpstreamUnreachable, out.Kind)
		assert.False(t, errors.Is(out.Err, ErrCircuitOpen))
	}

	out := d.Dispatch(context.Background(), route, inbound(http.MethodGet, "/f"))
	assert.Equal(t, UpstreamUnreachable, out.Kind)
	assert.True(t, errors.Is(out.Err, ErrCircuitOpen))
	assert.Equal(t, http.StatusBadGateway, out.HTTPStatus())
	assert.Zero(t, calls.Load())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.breakerState.WithLabelValues("flaky")))
}

func TestDispatch_RecordsMetrics(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer upstream.Close()

	route := newRoute(t, config.RouteConfig{Name: "svc", Path: "/svc", Upstream: upstream.URL})
	metrics := NewMetrics("test")
	d := NewDispatcher(testUpstreamConfig(), WithMetrics(metrics))

	d.Dispatch(context.Background(), route, inbound(http.MethodGet, "/svc"))

	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.upstreamRequests.WithLabelValues("svc", Forwarded.String())))
}

func TestDispatch_DropsHopHeaders(t *testing.T) {
	t.Parallel()

	seen := make(chan http.Header, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Clone()
		_, _ = io.WriteString(w, "ok")
	}))
	defer upstream.Close()

	route := newRoute(t, config.RouteConfig{Path: "/h", Upstream: upstream.URL})
	req := inbound(http.MethodGet, "/h")
	req.Header.Set("Proxy-Authorization", "secret")
	req.Header.Set("Connection", "X-Internal")
	req.Header.Set("X-Internal", "drop me")
	req.Header.Set("X-Custom", "keep me")
	req.Header.Set("X-Forwarded-For", "192.0.2.1")

	out := NewDispatcher(testUpstreamConfig()).Dispatch(context.Background(), route, req)

	require.Equal(t, Forwarded, out.Kind)
	got := <-seen
	assert.Empty(t, got.Get("Proxy-Authorization"))
	assert.Empty(t, got.Get("X-Internal"))
	assert.Equal(t, "keep me", got.Get("X-Custom"))
	assert.Equal(t, "192.0.2.1, 10.0.0.1", got.Get("X-Forwarded-For"))
	assert.Equal(t, "http", got.Get("X-Forwarded-Proto"))
}

func TestDispatch_GzipUpstreamWithClientAcceptEncoding(t *testing.T) {
	t.Parallel()

	const payload = "hello upstream"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			_, _ = io.WriteString(w, payload)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, payload)
		_ = gz.Close()
	}))
	t.Cleanup(upstream.Close)

	route := newRoute(t, config.RouteConfig{Path: "/gz", Upstream: upstream.URL})
	d := NewDispatcher(testUpstreamConfig())

	tests := []struct {
		name           string
		acceptEncoding string
	}{
		{"no client preference", ""},
		{"gzip", "gzip"},
		{"browser style", "gzip, deflate, br"},
		{"identity only", "identity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := inbound(http.MethodGet, "/gz")
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}

			out := d.Dispatch(context.Background(), route, req)

			require.Equal(t, Forwarded, out.Kind, "err: %v", out.Err)
			assert.Equal(t, payload, out.Body)
			assert.Equal(t, http.StatusOK, out.HTTPStatus())
		})
	}
}

func TestCopyEndToEndHeaders_LeavesEncodingToTransport(t *testing.T) {
	t.Parallel()

	src := http.Header{}
	src.Set("Accept-Encoding", "gzip, br")
	src.Set("Accept", "text/plain")

	dst := http.Header{}
	copyEndToEndHeaders(dst, src)

	assert.Empty(t, dst.Get("Accept-Encoding"))
	assert.Equal(t, "text/plain", dst.Get("Accept"))
}

func TestTargetURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		upstream string
		path     string
		query    string
		want     string
	}{
		{"wildcard remainder", "/svc/*", "http://up:9001", "/svc/items", "", "http://up:9001/items"},
		{"wildcard bare prefix", "/svc/*", "http://up:9001", "/svc", "", "http://up:9001"},
		{"upstream base path", "/svc/*", "http://up/base/", "/svc/items/1", "", "http://up/base/items/1"},
		{"no segment boundary", "/api/*", "http://up", "/apiary", "", "http://up/ary"},
		{"exact route", "/users", "http://up/v1/users", "/users", "", "http://up/v1/users"},
		{"query appended", "/svc/*", "http://up", "/svc/a", "x=1", "http://up/a?x=1"},
		{"query merged", "/svc/*", "http://up?key=k", "/svc/a", "x=1", "http://up/a?key=k&x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			route := newRoute(t, config.RouteConfig{Path: tt.pattern, Upstream: tt.upstream})
			assert.Equal(t, tt.want, TargetURL(route, tt.path, tt.query).String())
		})
	}
}
