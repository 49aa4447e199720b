// Package util provides utility functions and types for the
// routing gateway.
//
// This package contains shared utilities used across the gateway
// including context helpers, error types, and validation functions.
//
// # Context Helpers
//
// Context utilities for request-scoped data:
//
//	ctx = util.ContextWithRequestID(ctx, "req-123")
//	requestID := util.RequestIDFromContext(ctx)
//	ctx = util.ContextWithStartTime(ctx, time.Now())
//	latency := util.ElapsedTime(ctx)
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - ConfigError: configuration validation errors
//   - RouteNotFoundError: no configured route matched a request
//   - Sentinel errors: ErrNotFound, ErrConfigInvalid
//
// # Validation
//
// Input validation helpers for URLs, ports, and hosts:
//
//	err := util.ValidateURL("https://example.com")
//	err := util.ValidatePort(8080)
package util
