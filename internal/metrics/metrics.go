package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the record engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Committed actions by type
	ActionsAppended *prometheus.CounterVec

	// Correction transitions by transition and result
	CorrectionTransitions *prometheus.CounterVec

	// Duration of a correction transition including retries
	CorrectionLatency *prometheus.HistogramVec

	// Conditional commits that lost a race and were retried
	CommitRetries prometheus.Counter

	IndexFailures prometheus.Counter

	// Requester notification failures by outcome
	NotificationFailures *prometheus.CounterVec
}

// New registers all engine metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActionsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crvs_actions_appended_total",
			Help: "Total actions committed to record histories by type",
		}, []string{"type"}),

		CorrectionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crvs_correction_transitions_total",
			Help: "Correction state machine transitions by transition and result",
		}, []string{"transition", "result"}), // result: "ok", "conflict", "invalid", "error"

		CorrectionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crvs_correction_duration_seconds",
			Help:    "Duration of correction transitions including conditional-write retries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"transition"}),

		CommitRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "crvs_commit_retries_total",
			Help: "Conditional record commits retried after a concurrent update",
		}),

		IndexFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "crvs_index_failures_total",
			Help: "Search index publications that failed after a committed change",
		}),

		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crvs_notification_failures_total",
			Help: "Requester notifications that could not be delivered",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementActionAppended(actionType string) {
	if m != nil {
		m.ActionsAppended.WithLabelValues(actionType).Inc()
	}
}

func (m *Metrics) IncrementTransition(transition, result string) {
	if m != nil {
		m.CorrectionTransitions.WithLabelValues(transition, result).Inc()
	}
}

func (m *Metrics) ObserveTransitionLatency(transition string, d time.Duration) {
	if m != nil {
		m.CorrectionLatency.WithLabelValues(transition).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementCommitRetry() {
	if m != nil {
		m.CommitRetries.Inc()
	}
}

func (m *Metrics) IncrementIndexFailure() {
	if m != nil {
		m.IndexFailures.Inc()
	}
}

func (m *Metrics) IncrementNotificationFailure(outcome string) {
	if m != nil {
		m.NotificationFailures.WithLabelValues(outcome).Inc()
	}
}
