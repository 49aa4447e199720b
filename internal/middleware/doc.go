// Package middleware provides the gin middleware chain of the gateway
// front: request IDs, access logging, panic recovery, tracing, request
// metrics and the concurrency limit.
//
// Recommended order, outermost first:
//
//	engine.Use(
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	    middleware.Recovery(logger),
//	    middleware.Tracing(serviceName),
//	    middleware.Metrics(metrics),
//	    middleware.ConcurrencyLimit(workers),
//	)
package middleware
