// Package metrics exposes Prometheus instrumentation for the survey service.
// All recording methods are nil-safe so the engine can run without metrics
// in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors registered with the default registry.
type Metrics struct {
	TurnsTotal             *prometheus.CounterVec
	ModelCallDuration      *prometheus.HistogramVec
	CompletionSignals      prometheus.Counter
	ConversationsCompleted prometheus.Counter
}

// New registers and returns the service metrics.
func New() *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "concertsurvey_turns_total",
			Help: "Conversation turns processed, by outcome.",
		}, []string{"outcome"}),
		ModelCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "concertsurvey_model_call_duration_seconds",
			Help:    "Latency of chat completion calls, by status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		CompletionSignals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "concertsurvey_completion_signals_total",
			Help: "Assistant replies that signaled conversation completion.",
		}),
		ConversationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "concertsurvey_conversations_completed_total",
			Help: "Conversations transitioned to the completed status.",
		}),
	}
}

// RecordTurn counts one processed turn with the given outcome.
func (m *Metrics) RecordTurn(outcome string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

// ObserveModelCall records the duration of one model call.
func (m *Metrics) ObserveModelCall(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.ModelCallDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordCompletionSignal counts one completion sentinel observed in a reply.
func (m *Metrics) RecordCompletionSignal() {
	if m == nil {
		return
	}
	m.CompletionSignals.Inc()
}

// RecordConversationCompleted counts one completed conversation.
func (m *Metrics) RecordConversationCompleted() {
	if m == nil {
		return
	}
	m.ConversationsCompleted.Inc()
}
