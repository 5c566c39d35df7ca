package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixbrock/dockflow/internal/domain"
)

type Metrics struct {
	transitions *prometheus.CounterVec
	validations *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	resolveTime prometheus.Histogram
	rankings    *prometheus.CounterVec
	throttled   *prometheus.CounterVec
	sessions    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dockflow",
			Name:      "stage_transitions_total",
			Help:      "Workflow stage transitions.",
		}, []string{"from", "to"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dockflow",
			Name:      "sequence_validations_total",
			Help:      "Sequence submissions by outcome.",
		}, []string{"result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dockflow",
			Name:      "structure_resolutions_total",
			Help:      "Structure lookups by outcome.",
		}, []string{"result"}),
		resolveTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dockflow",
			Name:      "structure_resolution_seconds",
			Help:      "Structure lookup latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		rankings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dockflow",
			Name:      "rankings_total",
			Help:      "Candidate rankings by sort key.",
		}, []string{"sort_key"}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dockflow",
			Name:      "submissions_throttled_total",
			Help:      "Lookup starting requests rejected by the submit limiter.",
		}, []string{"path"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dockflow",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.transitions, m.validations, m.resolutions, m.resolveTime, m.rankings, m.throttled, m.sessions)
	}

	return m
}

func (m *Metrics) Transition(from domain.Stage, to domain.Stage) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) Validation(err error) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) Resolution(err error, took time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(result(err)).Inc()
	m.resolveTime.Observe(took.Seconds())
}

func (m *Metrics) Ranking(key domain.SortKey) {
	if m == nil {
		return
	}
	m.rankings.WithLabelValues(string(key)).Inc()
}

func (m *Metrics) Throttled(path string) {
	if m == nil {
		return
	}
	m.throttled.WithLabelValues(path).Inc()
}

func (m *Metrics) Sessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return string(domain.Classify(err))
}
