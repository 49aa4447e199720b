package config

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/avaroute/internal/util"
)

// Accepted logging settings. "trace" is accepted for compatibility and
// logged at debug level.
var (
	validLogLevels = map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	validLogFormats = map[string]bool{
		"json":    true,
		"console": true,
		"text":    true,
	}
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Is reports whether the collection matches util.ErrConfigInvalid.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid && len(e) > 0
}

// Validator validates gateway configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a gateway configuration.
func ValidateConfig(config *GatewayConfig) error {
	v := NewValidator()
	return v.Validate(config)
}

// Validate validates the configuration and returns every problem found.
func (v *Validator) Validate(config *GatewayConfig) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&config.Server, "server")
	v.validateLogging(&config.Logging, "logging")
	v.validateRoutes(config.Routes)
	v.validateUpstream(&config.Upstream, "upstream")
	v.validateCircuitBreaker(&config.CircuitBreaker, "circuit_breaker")
	v.validateHealth(&config.Health, "health")
	v.validateObservability(&config.Observability, "observability")

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(server *ServerConfig, path string) {
	if server.Host == "" {
		v.addError(path+".host", "host is required")
	} else if err := util.ValidateHost(server.Host); err != nil {
		v.addError(path+".host", err.Error())
	}

	if err := util.ValidatePort(server.Port); err != nil {
		v.addError(path+".port", err.Error())
	}

	if server.Workers < 0 {
		v.addError(path+".workers", "workers cannot be negative")
	}

	if server.ShutdownTimeout.Duration() < 0 {
		v.addError(path+".shutdown_timeout", "shutdown_timeout cannot be negative")
	}
}

func (v *Validator) validateLogging(logging *LoggingConfig, path string) {
	if logging.Level == "" {
		v.addError(path+".level", "level is required")
	} else if !validLogLevels[strings.ToLower(logging.Level)] {
		v.addError(path+".level", fmt.Sprintf("invalid log level: %s", logging.Level))
	}

	if logging.Format == "" {
		v.addError(path+".format", "format is required")
	} else if !validLogFormats[strings.ToLower(logging.Format)] {
		v.addError(path+".format", fmt.Sprintf("invalid log format: %s", logging.Format))
	}
}

// validateRoutes checks every route entry. Duplicate paths are allowed
// (the earlier entry shadows the later one); names must be unique.
func (v *Validator) validateRoutes(routes []RouteConfig) {
	if len(routes) == 0 {
		v.addError("routes", "at least one route is required")
		return
	}

	names := make(map[string]bool, len(routes))
	for i := range routes {
		path := fmt.Sprintf("routes[%d]", i)
		v.validateSingleRoute(&routes[i], path, names)
	}
}

func (v *Validator) validateSingleRoute(route *RouteConfig, path string, names map[string]bool) {
	if route.Name != "" {
		if names[route.Name] {
			v.addError(path+".name", fmt.Sprintf("duplicate route name: %s", route.Name))
		}
		names[route.Name] = true
	}

	switch {
	case route.Path == "":
		v.addError(path+".path", "path is required")
	case !strings.HasPrefix(route.Path, "/"):
		v.addError(path+".path", "path must start with /")
	}

	v.validateRouteMethod(route.Method, path+".method")

	if err := util.ValidateURL(route.Upstream); err != nil {
		v.addError(path+".upstream", err.Error())
	}

	if route.Timeout <= 0 {
		v.addError(path+".timeout", "timeout must be a positive number of seconds")
	}
}

func (v *Validator) validateRouteMethod(method, path string) {
	if strings.TrimSpace(method) == "" {
		v.addError(path, "method is required")
		return
	}
	if method == methodWildcard {
		return
	}
	for _, token := range strings.Split(method, methodSeparator) {
		if strings.TrimSpace(token) == "" {
			v.addError(path, fmt.Sprintf("empty verb in method set: %q", method))
			return
		}
	}
}

func (v *Validator) validateUpstream(upstream *UpstreamConfig, path string) {
	if upstream.MaxIdleConns < 0 {
		v.addError(path+".max_idle_conns", "max_idle_conns cannot be negative")
	}
	if upstream.MaxIdleConnsPerHost < 0 {
		v.addError(path+".max_idle_conns_per_host", "max_idle_conns_per_host cannot be negative")
	}
	if upstream.IdleConnTimeout.Duration() < 0 {
		v.addError(path+".idle_conn_timeout", "idle_conn_timeout cannot be negative")
	}
	if upstream.DialTimeout.Duration() < 0 {
		v.addError(path+".dial_timeout", "dial_timeout cannot be negative")
	}
}

func (v *Validator) validateCircuitBreaker(cb *CircuitBreakerConfig, path string) {
	if !cb.Enabled {
		return
	}
	if cb.Threshold <= 0 {
		v.addError(path+".threshold", "threshold must be positive when enabled")
	}
	if cb.Timeout.Duration() <= 0 {
		v.addError(path+".timeout", "timeout must be positive when enabled")
	}
}

func (v *Validator) validateHealth(h *HealthConfig, path string) {
	if h.CPUSampleInterval.Duration() < 0 {
		v.addError(path+".cpu_sample_interval", "cpu_sample_interval cannot be negative")
	}
}

func (v *Validator) validateObservability(obs *ObservabilityConfig, path string) {
	if obs.Metrics.Path != "" && !strings.HasPrefix(obs.Metrics.Path, "/") {
		v.addError(path+".metrics.path", "metrics path must start with /")
	}

	if obs.Metrics.Port != 0 {
		if err := util.ValidatePort(obs.Metrics.Port); err != nil {
			v.addError(path+".metrics.port", err.Error())
		}
	}

	if obs.Tracing.SamplingRate != nil {
		if rate := *obs.Tracing.SamplingRate; rate < 0 || rate > 1 {
			v.addError(path+".tracing.sampling_rate", "sampling_rate must be between 0 and 1")
		}
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
