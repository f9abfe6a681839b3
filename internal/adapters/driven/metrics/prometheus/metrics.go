// Package prometheus records query activity as Prometheus metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// Ensure QueryMetrics implements the interface.
var _ driven.QueryMetrics = (*QueryMetrics)(nil)

const namespace = "partsearch"

// Query outcome label values.
const (
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

// QueryMetrics holds the engine's collectors on its own registry.
type QueryMetrics struct {
	registry *prometheus.Registry

	queries     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	results     *prometheus.HistogramVec
	followUps   *prometheus.CounterVec
	catalogSize prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *QueryMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &QueryMetrics{
		registry: reg,
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "total",
				Help:      "Total number of queries by strategy and outcome",
			},
			[]string{"strategy", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "duration_seconds",
				Help:      "Query duration in seconds",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"strategy"},
		),
		results: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "results",
				Help:      "Number of results returned per query",
				Buckets:   []float64{0, 1, 3, 5, 10, 25, 50, 100},
			},
			[]string{"strategy"},
		),
		followUps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "followup",
				Name:      "total",
				Help:      "Total number of follow-up answers by type",
			},
			[]string{"type"},
		),
		catalogSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "records",
			Help:      "Number of loaded catalog records",
		}),
	}
}

// ObserveQuery records one completed query.
func (m *QueryMetrics) ObserveQuery(strategy domain.Strategy, results int, elapsed time.Duration, err error) {
	label := string(strategy)
	m.queries.WithLabelValues(label, status(results, err)).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	if err == nil {
		m.results.WithLabelValues(label).Observe(float64(results))
	}
}

// ObserveFollowUp records one follow-up answer.
func (m *QueryMetrics) ObserveFollowUp(kind domain.FollowUpType) {
	m.followUps.WithLabelValues(string(kind)).Inc()
}

// SetCatalogSize publishes the number of loaded records.
func (m *QueryMetrics) SetCatalogSize(n int) {
	m.catalogSize.Set(float64(n))
}

// Registry exposes the collectors for gathering.
func (m *QueryMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *QueryMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func status(results int, err error) string {
	switch {
	case err != nil && domain.IsCallerError(err):
		return StatusInvalid
	case err != nil:
		return StatusError
	case results == 0:
		return StatusEmpty
	default:
		return StatusOK
	}
}
