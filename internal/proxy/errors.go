package proxy

import (
	"errors"
	"fmt"
)

// Sentinel errors for proxy operations.
var (
	// ErrUpstreamTimeout indicates that the route timeout elapsed.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrUpstreamUnreachable indicates a connection or transport failure.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")

	// ErrUpstreamDecode indicates the upstream body could not be decoded as text.
	ErrUpstreamDecode = errors.New("upstream response could not be decoded")

	// ErrCircuitOpen indicates the route's circuit breaker rejected the call.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ProxyError represents a proxy-related error with details.
type ProxyError struct {
	Op      string // Operation that failed
	Route   string // Route name
	Target  string // Target URL if known
	Message string // Human-readable message
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	prefix := fmt.Sprintf("proxy error [%s]", e.Op)
	if e.Route != "" {
		prefix += " route=" + e.Route
	}
	if e.Target != "" {
		prefix += " target=" + e.Target
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProxyError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ProxyError) Is(target error) bool {
	_, ok := target.(*ProxyError)
	return ok || errors.Is(e.Cause, target)
}

// NewProxyError creates a new ProxyError.
func NewProxyError(op, route, target, message string, cause error) *ProxyError {
	return &ProxyError{
		Op:      op,
		Route:   route,
		Target:  target,
		Message: message,
		Cause:   cause,
	}
}

// IsProxyError checks if an error is a ProxyError.
func IsProxyError(err error) bool {
	var proxyErr *ProxyError
	return errors.As(err, &proxyErr)
}
