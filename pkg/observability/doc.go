// Package observability provides structured logging, Prometheus metrics,
// health checks, OpenTelemetry wiring, and graceful shutdown helpers.
//
// # Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("school_id", 7).Info("subscription refreshed")
//
// Loggers are stored on the request context by the HTTP layer; use
// observability.FromContext(ctx) inside handlers to pick up request-scoped
// fields (request_id, user_id).
//
// # Metrics
//
// NewMetrics registers the pipeline metrics (request totals, gate denials,
// rate-limit rejections, audit queue depth) on a Prometheus registry exposed
// on the health port.
//
// # Related Packages
//
//   - pkg/middleware: emits gate denial metrics
//   - pkg/audit: emits queue depth / drop metrics
package observability
