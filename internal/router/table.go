package router

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

// Route is a compiled, immutable route definition.
type Route struct {
	Name     string
	Path     string
	Method   string
	Upstream *url.URL
	Timeout  time.Duration

	pathMatcher   PathMatcher
	methodMatcher *MethodMatcher
}

// IsWildcard reports whether the route matches by prefix.
func (r *Route) IsWildcard() bool {
	return r.pathMatcher.Type() == "prefix"
}

// Remainder returns the part of path that follows the wildcard prefix.
// For exact routes it returns an empty string.
//
//	/svc/* + /svc/items -> /items
func (r *Route) Remainder(path string) string {
	if !r.IsWildcard() {
		return ""
	}
	return strings.TrimPrefix(path, r.pathMatcher.Pattern())
}

// String implements fmt.Stringer.
func (r *Route) String() string {
	return fmt.Sprintf("%s %s -> %s", r.Method, r.Path, r.Upstream)
}

// Table is an ordered route table. The zero value is an empty table that
// never matches.
type Table struct {
	routes  []*Route
	metrics *Metrics
}

// Option is a functional option for configuring the table.
type Option func(*Table)

// WithMetrics records lookup outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(t *Table) {
		t.metrics = m
	}
}

// NewTable compiles route configuration into a Table, preserving order.
func NewTable(routes []config.RouteConfig, opts ...Option) (*Table, error) {
	t := &Table{
		routes: make([]*Route, 0, len(routes)),
	}

	for _, opt := range opts {
		opt(t)
	}

	for i := range routes {
		route, err := compileRoute(i, &routes[i])
		if err != nil {
			return nil, err
		}
		t.routes = append(t.routes, route)
	}

	return t, nil
}

func compileRoute(index int, cfg *config.RouteConfig) (*Route, error) {
	field := fmt.Sprintf("routes[%d]", index)

	if cfg.Path == "" || !strings.HasPrefix(cfg.Path, "/") {
		return nil, util.NewConfigError(field+".path", "path must be non-empty and start with /")
	}
	if err := util.ValidateNonEmpty(cfg.Method, "method"); err != nil {
		return nil, util.NewConfigErrorWithCause(field+".method", "method is required", err)
	}
	if cfg.Timeout <= 0 {
		return nil, util.NewConfigError(field+".timeout", "timeout must be positive")
	}
	if err := util.ValidateURL(cfg.Upstream); err != nil {
		return nil, util.NewConfigErrorWithCause(field+".upstream", "invalid upstream", err)
	}

	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, util.NewConfigErrorWithCause(field+".upstream", "invalid upstream", err)
	}

	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("route-%d", index)
	}

	return &Route{
		Name:          name,
		Path:          cfg.Path,
		Method:        cfg.Method,
		Upstream:      upstream,
		Timeout:       cfg.TimeoutDuration(),
		pathMatcher:   NewPathMatcher(cfg.Path),
		methodMatcher: NewMethodMatcher(cfg.Method),
	}, nil
}

// Match resolves a request against the table and records the lookup
// outcome when metrics are configured.
func (t *Table) Match(path, method string) (*Route, bool) {
	route, ok := Match(t, path, method)
	if t != nil && t.metrics != nil {
		t.metrics.RecordLookup(ok)
	}
	return route, ok
}

// Routes returns a copy of the routes in declaration order.
func (t *Table) Routes() []*Route {
	if t == nil {
		return nil
	}
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.routes)
}
