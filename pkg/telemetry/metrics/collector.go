package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"creotrail/validator/pkg/config"
)

// Collector owns the Prometheus registry for the service and records HTTP
// and classification metrics.
//
// Route labels are bounded by a CardinalityLimiter; label sets past the
// limit are aggregated under "other".
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics *RequestMetrics
	domainMetrics  *DomainMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector. If registry is nil a fresh registry is
// created, so tests never collide on the global one.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "creotrail"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.domainMetrics = NewDomainMetrics(cfg, registry)

	return c
}

// RecordHTTPRequest records a completed HTTP request.
//
// Parameters:
//   - route: mux path template (e.g. "/history/{user_id}")
//   - method: HTTP method
//   - status: response status code
//   - duration: time spent in the handler chain
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(route + ":" + method) {
		route = "other"
	}

	c.requestMetrics.RecordRequest(route, method, status, duration)
}

// RecordClassification counts a recorded dynamic or static decision.
func (c *Collector) RecordClassification(classification string) {
	if !c.config.Enabled {
		return
	}
	c.domainMetrics.classificationsTotal.WithLabelValues(classification).Inc()
}

// RecordSignup counts a successful signup by role.
func (c *Collector) RecordSignup(role string) {
	if !c.config.Enabled {
		return
	}
	c.domainMetrics.signupsTotal.WithLabelValues(role).Inc()
}

// RecordLogin counts a login attempt by result ("success", "invalid",
// "role_mismatch", "error").
func (c *Collector) RecordLogin(result string) {
	if !c.config.Enabled {
		return
	}
	c.domainMetrics.loginsTotal.WithLabelValues(result).Inc()
}

// RecordHistoryQuery counts a history query by decision layout and output
// format.
func (c *Collector) RecordHistoryQuery(layout, format string, rows int) {
	if !c.config.Enabled {
		return
	}
	c.domainMetrics.historyQueriesTotal.WithLabelValues(layout, format).Inc()
	c.domainMetrics.historyRows.Observe(float64(rows))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label set may be recorded: it is already known or
// the limit has not been reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
