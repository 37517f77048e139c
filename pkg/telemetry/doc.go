// Package telemetry groups the observability packages of the service.
//
//   - logging: slog loggers with redaction and request context
//   - metrics: Prometheus collector for HTTP and classification metrics
//   - health: liveness and readiness checks
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
package telemetry
