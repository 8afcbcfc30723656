// Package metrics exposes Prometheus metrics for the bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fantasybot"

// Metrics holds all Prometheus metrics for the bot, registered on their own registry.
type Metrics struct {
	Registry *prometheus.Registry

	CyclesTotal       *prometheus.CounterVec
	StreamOutcomes    *prometheus.CounterVec
	TransactionsTotal *prometheus.CounterVec
	LineupAlerts      *prometheus.CounterVec
	QuotaRemaining    prometheus.Gauge
	CollectDuration   prometheus.Histogram
	LastCycle         prometheus.Gauge
}

// New creates a Metrics instance with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Decision cycles run, by whether execution was confirmed",
		}, []string{"confirmed"}),
		StreamOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "streaming",
			Name:      "outcomes_total",
			Help:      "Streaming evaluations by outcome and reason code",
		}, []string{"outcome", "code"}),
		TransactionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transaction",
			Name:      "submissions_total",
			Help:      "Write attempts by kind and status",
		}, []string{"kind", "status"}),
		LineupAlerts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lineup",
			Name:      "alerts_total",
			Help:      "Lineup status findings by type",
		}, []string{"type"}),
		QuotaRemaining: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "remaining",
			Help:      "Weekly transactions remaining",
		}),
		CollectDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "snapshot_duration_seconds",
			Help:      "Time to read one platform snapshot",
			Buckets:   prometheus.DefBuckets,
		}),
		LastCycle: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed cycle",
		}),
	}
}

// ObserveCollect records how long a snapshot read took.
func (m *Metrics) ObserveCollect(start time.Time) {
	if m == nil {
		return
	}
	m.CollectDuration.Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
