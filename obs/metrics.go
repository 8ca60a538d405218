package obs

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Commit outcomes used as the "result" label.
const (
	ResultSaved    = "saved"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultSkipped  = "skipped"
)

// CommitMetrics groups the collectors describing field commits.
type CommitMetrics struct {
	CommitsTotal   *prometheus.CounterVec
	CommitDuration *prometheus.HistogramVec
	InFlight       prometheus.Gauge
}

// NewCommitMetrics registers and returns the commit collectors. A nil
// registerer falls back to the default one.
func NewCommitMetrics(namespace string, reg prometheus.Registerer) *CommitMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &CommitMetrics{
		CommitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_commits_total",
			Help:      "Count of field commit outcomes.",
		}, []string{"field", "result"}),
		CommitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "field_commit_duration_ms",
			Help:      "Latency of remote field saves in milliseconds.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"field", "result"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "field_commits_in_flight",
			Help:      "Current number of field commits awaiting the remote save.",
		}),
	}

	mustRegisterCollector(reg, m.CommitsTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.CommitsTotal = v
		}
	})
	mustRegisterCollector(reg, m.CommitDuration, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.HistogramVec); ok {
			m.CommitDuration = v
		}
	})
	mustRegisterCollector(reg, m.InFlight, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Gauge); ok {
			m.InFlight = v
		}
	})
	return m
}

// Started marks a commit as in flight.
func (m *CommitMetrics) Started() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

// Observe records a resolved commit. Skipped commits never went in flight.
func (m *CommitMetrics) Observe(field, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.CommitsTotal.WithLabelValues(field, result).Inc()
	if result == ResultSkipped {
		return
	}
	m.InFlight.Dec()
	m.CommitDuration.WithLabelValues(field, result).Observe(DurationMillis(d))
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register commit metric: %w", err))
	}
}
