package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/history/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	transitions *prometheus.CounterVec
	rewinds     prometheus.Counter
	rewindSteps prometheus.Histogram
	decision    *prometheus.HistogramVec

	started sync.Map // location key -> time.Time
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "history_transitions_total",
				Help: "Transitions by lifecycle event and action.",
			},
			[]string{"event", "action"},
		),
		rewinds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "history_rewinds_total",
			Help: "Rejected POP transitions rewound on the adapter.",
		}),
		rewindSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "history_rewind_steps",
			Help:    "Absolute number of entries moved by a rewind.",
			Buckets: []float64{1, 2, 3, 5, 10, 25},
		}),
		decision: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "history_decision_seconds",
				Help:    "Time from transition start to commit, reject or supersede.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.transitions, m.rewinds, m.rewindSteps, m.decision)
	return m
}

// RegisterSessionGauge exposes the number of open sessions reported by count.
func RegisterSessionGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "history_sessions_open",
			Help: "Live histories held by the session manager.",
		},
		func() float64 { return float64(count()) },
	))
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransitionStart: func(_ context.Context, e *domain.TransitionEvent) {
			m.count(e)
			m.started.Store(e.To.Key, e.Timestamp)
		},
		OnTransitionCommit: func(_ context.Context, e *domain.TransitionEvent) {
			m.count(e)
			m.observe("commit", e)
		},
		OnTransitionReject: func(_ context.Context, e *domain.TransitionEvent) {
			m.count(e)
			m.observe("reject", e)
		},
		OnTransitionSuperseded: func(_ context.Context, e *domain.TransitionEvent) {
			m.count(e)
			m.observe("superseded", e)
		},
		OnRewind: func(_ context.Context, e *domain.TransitionEvent) {
			m.count(e)
			m.rewinds.Inc()
			steps := e.Delta
			if steps < 0 {
				steps = -steps
			}
			m.rewindSteps.Observe(float64(steps))
		},
	}
}

func (m *Metrics) count(e *domain.TransitionEvent) {
	m.transitions.WithLabelValues(string(e.Type), string(e.Action)).Inc()
}

func (m *Metrics) observe(outcome string, e *domain.TransitionEvent) {
	v, ok := m.started.LoadAndDelete(e.To.Key)
	if !ok {
		return
	}
	m.decision.WithLabelValues(outcome).Observe(e.Timestamp.Sub(v.(time.Time)).Seconds())
}
