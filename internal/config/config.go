package config

import (
	"fmt"
	"strings"
	"time"
)

// Default values applied to optional configuration sections.
const (
	DefaultShutdownTimeout     = 30 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultDialTimeout         = 10 * time.Second
	DefaultBreakerThreshold    = 5
	DefaultBreakerTimeout      = 30 * time.Second
	DefaultCPUSampleInterval   = 200 * time.Millisecond
	DefaultMetricsPort         = 9090
	DefaultMetricsPath         = "/metrics"
	DefaultTracingServiceName  = "avaroute"
	DefaultTracingOTLPEndpoint = "localhost:4317"
	DefaultTracingSamplingRate = 1.0
	defaultRouteNameFormat     = "route-%d"
	wildcardPathSuffix         = "/*"
	methodWildcard             = "*"
	methodSeparator            = "|"
)

// GatewayConfig is the root configuration document.
type GatewayConfig struct {
	Server         ServerConfig         `yaml:"server" toml:"server" json:"server"`
	Logging        LoggingConfig        `yaml:"logging" toml:"logging" json:"logging"`
	Routes         []RouteConfig        `yaml:"routes" toml:"routes" json:"routes"`
	Upstream       UpstreamConfig       `yaml:"upstream,omitempty" toml:"upstream" json:"upstream,omitempty"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker,omitempty" toml:"circuit_breaker" json:"circuit_breaker,omitempty"`
	Health         HealthConfig         `yaml:"health,omitempty" toml:"health" json:"health,omitempty"`
	Observability  ObservabilityConfig  `yaml:"observability,omitempty" toml:"observability" json:"observability,omitempty"`
}

// ServerConfig holds the listener settings of the gateway front.
type ServerConfig struct {
	Host string `yaml:"host" toml:"host" json:"host"`
	Port int    `yaml:"port" toml:"port" json:"port"`

	// Workers caps the number of requests handled concurrently.
	// Zero means unlimited.
	Workers int `yaml:"workers" toml:"workers" json:"workers"`

	ShutdownTimeout Duration `yaml:"shutdown_timeout,omitempty" toml:"shutdown_timeout" json:"shutdown_timeout,omitempty"`
}

// Address returns the host:port the gateway listens on.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// RouteConfig is a single route entry. Timeout is expressed in whole
// seconds.
type RouteConfig struct {
	Name     string `yaml:"name,omitempty" toml:"name" json:"name,omitempty"`
	Path     string `yaml:"path" toml:"path" json:"path"`
	Method   string `yaml:"method" toml:"method" json:"method"`
	Upstream string `yaml:"upstream" toml:"upstream" json:"upstream"`
	Timeout  int    `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// TimeoutDuration returns the route timeout as a time.Duration.
func (r RouteConfig) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

// IsWildcard reports whether the route path matches by prefix.
func (r RouteConfig) IsWildcard() bool {
	return strings.HasSuffix(r.Path, wildcardPathSuffix)
}

// UpstreamConfig tunes the pooled outbound transport.
type UpstreamConfig struct {
	MaxIdleConns        int      `yaml:"max_idle_conns,omitempty" toml:"max_idle_conns" json:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost int      `yaml:"max_idle_conns_per_host,omitempty" toml:"max_idle_conns_per_host" json:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout     Duration `yaml:"idle_conn_timeout,omitempty" toml:"idle_conn_timeout" json:"idle_conn_timeout,omitempty"`
	DialTimeout         Duration `yaml:"dial_timeout,omitempty" toml:"dial_timeout" json:"dial_timeout,omitempty"`
}

// CircuitBreakerConfig enables one circuit breaker per route.
type CircuitBreakerConfig struct {
	Enabled   bool     `yaml:"enabled" toml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold,omitempty" toml:"threshold" json:"threshold,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" toml:"timeout" json:"timeout,omitempty"`
}

// HealthConfig configures host sampling for the health endpoint.
type HealthConfig struct {
	CPUSampleInterval Duration `yaml:"cpu_sample_interval,omitempty" toml:"cpu_sample_interval" json:"cpu_sample_interval,omitempty"`
}

// ObservabilityConfig represents observability configuration.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics,omitempty" toml:"metrics" json:"metrics,omitempty"`
	Tracing TracingConfig `yaml:"tracing,omitempty" toml:"tracing" json:"tracing,omitempty"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" toml:"path" json:"path,omitempty"`
	Port    int    `yaml:"port,omitempty" toml:"port" json:"port,omitempty"`
}

// TracingConfig represents tracing configuration.
type TracingConfig struct {
	Enabled      bool     `yaml:"enabled" toml:"enabled" json:"enabled"`
	SamplingRate *float64 `yaml:"sampling_rate,omitempty" toml:"sampling_rate" json:"sampling_rate,omitempty"`
	OTLPEndpoint string   `yaml:"otlp_endpoint,omitempty" toml:"otlp_endpoint" json:"otlp_endpoint,omitempty"`
	ServiceName  string   `yaml:"service_name,omitempty" toml:"service_name" json:"service_name,omitempty"`
}

// Rate returns the configured sampling rate or the default.
func (t TracingConfig) Rate() float64 {
	if t.SamplingRate == nil {
		return DefaultTracingSamplingRate
	}
	return *t.SamplingRate
}

// ApplyDefaults fills optional fields that were left unset. Required
// fields are never defaulted; they are reported by the validator.
func (c *GatewayConfig) ApplyDefaults() {
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}

	for i := range c.Routes {
		if c.Routes[i].Name == "" {
			c.Routes[i].Name = fmt.Sprintf(defaultRouteNameFormat, i)
		}
	}

	if c.Upstream.MaxIdleConns == 0 {
		c.Upstream.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.Upstream.MaxIdleConnsPerHost == 0 {
		c.Upstream.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if c.Upstream.IdleConnTimeout == 0 {
		c.Upstream.IdleConnTimeout = Duration(DefaultIdleConnTimeout)
	}
	if c.Upstream.DialTimeout == 0 {
		c.Upstream.DialTimeout = Duration(DefaultDialTimeout)
	}

	if c.CircuitBreaker.Threshold == 0 {
		c.CircuitBreaker.Threshold = DefaultBreakerThreshold
	}
	if c.CircuitBreaker.Timeout == 0 {
		c.CircuitBreaker.Timeout = Duration(DefaultBreakerTimeout)
	}

	if c.Health.CPUSampleInterval == 0 {
		c.Health.CPUSampleInterval = Duration(DefaultCPUSampleInterval)
	}

	c.applyObservabilityDefaults()
}

func (c *GatewayConfig) applyObservabilityDefaults() {
	if c.Observability.Metrics.Port == 0 {
		c.Observability.Metrics.Port = DefaultMetricsPort
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = DefaultMetricsPath
	}
	if c.Observability.Tracing.ServiceName == "" {
		c.Observability.Tracing.ServiceName = DefaultTracingServiceName
	}
	if c.Observability.Tracing.OTLPEndpoint == "" {
		c.Observability.Tracing.OTLPEndpoint = DefaultTracingOTLPEndpoint
	}
}
