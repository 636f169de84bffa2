package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Queue related metrics
	AdmissionsTotal  prometheus.Counter
	TransitionsTotal *prometheus.CounterVec
	QueueDepth       *prometheus.GaugeVec

	// ETA refresh metrics
	RefreshPassesTotal prometheus.Counter
	RecomputeDuration  prometheus.Histogram
}

// New creates and registers all application metrics on reg. Tests pass
// a fresh prometheus.NewRegistry() to avoid duplicate registration.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AdmissionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Total number of requests admitted into a queue",
		}),
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Total number of status transitions applied, by target status",
		}, []string{"status"}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of active requests per provider",
		}, []string{"provider"}),
		RefreshPassesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eta_refresh_passes_total",
			Help:      "Total number of scheduled ETA recompute passes",
		}),
		RecomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "eta_recompute_duration_seconds",
			Help:      "Time spent recomputing ETAs across the store",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
	}
}
