// Package metrics provides Prometheus metrics for the classification service.
//
// A Collector owns its own registry and exposes:
//
//   - HTTP metrics: request count and latency by route, method and status
//   - Domain metrics: classifications, signups, logins and history queries
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
//	collector.RecordClassification("dynamic")
//	collector.RecordHTTPRequest("/history/{user_id}", "GET", 200, 12*time.Millisecond)
//
// All Record methods are no-ops when metrics are disabled.
package metrics
