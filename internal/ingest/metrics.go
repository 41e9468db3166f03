package ingest

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for sync runs.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	runsActive  prometheus.Gauge
	lastSuccess prometheus.Gauge
	items       *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns collectors registered with the global registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors with reg, reusing collectors that
// are already registered under the same name. Any other registration error
// panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		runs: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "releasesync",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Completed sync runs by final status.",
		}, []string{"status"})),
		runDuration: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "releasesync",
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a sync run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		})),
		runsActive: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "releasesync",
			Subsystem: "ingest",
			Name:      "runs_active",
			Help:      "Number of sync runs in progress.",
		})),
		lastSuccess: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "releasesync",
			Subsystem: "ingest",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without failures.",
		})),
		items: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "releasesync",
			Subsystem: "ingest",
			Name:      "items_total",
			Help:      "Items seen per provider by outcome (fetched, dropped, saved, write_error).",
		}, []string{"provider", "outcome"})),
		failures: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "releasesync",
			Subsystem: "ingest",
			Name:      "failures_total",
			Help:      "Classified provider failures.",
		}, []string{"provider", "kind"})),
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsActive.Inc()
}

func (m *Metrics) RunFinished(status string, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.runsActive.Dec()
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
	if status == StatusCompleted {
		m.lastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// ObserveProvider records the counts of one provider stage.
func (m *Metrics) ObserveProvider(ps ProviderSummary) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(ps.Name, "fetched").Add(float64(ps.Fetched))
	m.items.WithLabelValues(ps.Name, "dropped").Add(float64(ps.Dropped))
	m.items.WithLabelValues(ps.Name, "saved").Add(float64(ps.Saved))
	m.items.WithLabelValues(ps.Name, "write_error").Add(float64(ps.WriteErrors))
	for _, f := range ps.Failures {
		m.failures.WithLabelValues(ps.Name, string(f.Kind)).Inc()
	}
}
