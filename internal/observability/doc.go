// Package observability provides logging, metrics, and tracing for the
// gateway.
//
// Logging is built on zap and exposed through the Logger interface;
// field constructors are re-exported so callers rarely import zap
// directly. Metrics are kept on a private Prometheus registry that backs
// the /metrics endpoint; other packages register their collectors on
// Registry(). Tracing uses the OpenTelemetry SDK with an OTLP
// gRPC exporter and is a no-op unless enabled.
package observability
