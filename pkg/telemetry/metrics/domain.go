package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"creotrail/validator/pkg/config"
)

// DomainMetrics tracks validator activity.
//
// Metrics:
//   - <ns>_classifications_total: decisions by classification
//   - <ns>_signups_total: registered users by role
//   - <ns>_logins_total: login attempts by result
//   - <ns>_history_queries_total: history queries by layout and format
//   - <ns>_history_rows: rows returned per history query
type DomainMetrics struct {
	classificationsTotal *prometheus.CounterVec
	signupsTotal         *prometheus.CounterVec
	loginsTotal          *prometheus.CounterVec
	historyQueriesTotal  *prometheus.CounterVec
	historyRows          prometheus.Histogram
}

// NewDomainMetrics creates and registers domain metrics with the provided registry.
func NewDomainMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DomainMetrics {
	dm := &DomainMetrics{
		classificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "classifications_total",
				Help:      "Total number of recorded classifications",
			},
			[]string{"classification"},
		),
		signupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "signups_total",
				Help:      "Total number of registered users",
			},
			[]string{"role"},
		),
		loginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "logins_total",
				Help:      "Total number of login attempts",
			},
			[]string{"result"},
		),
		historyQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "history_queries_total",
				Help:      "Total number of history queries",
			},
			[]string{"layout", "format"},
		),
		historyRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "history_rows",
				Help:      "Rows returned per history query",
				Buckets:   []float64{0, 10, 50, 100, 500, 1000, 2000},
			},
		),
	}

	registry.MustRegister(
		dm.classificationsTotal,
		dm.signupsTotal,
		dm.loginsTotal,
		dm.historyQueriesTotal,
		dm.historyRows,
	)

	return dm
}
