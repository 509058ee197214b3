package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes recorded in ChatTurns.
const (
	OutcomeReplied  = "replied"
	OutcomeFallback = "fallback"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var (
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsrec_chat_turns_total",
			Help: "Chat turns by outcome",
		},
		[]string{"outcome"},
	)

	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kidsrec_completion_duration_seconds",
			Help:    "Duration of completion calls in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CompletionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsrec_completion_fallbacks_total",
			Help: "Completion failures replaced by the fallback reply, by error kind",
		},
		[]string{"kind"},
	)

	RecommendationsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsrec_recommendations_parsed_total",
			Help: "Recommendations extracted from assistant replies, by kind",
		},
		[]string{"kind"},
	)

	RecommendationBlockRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kidsrec_recommendation_block_recoveries_total",
			Help: "Replies whose recommendation block was malformed and stripped",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kidsrec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// SetBreakerState records a gobreaker state name on the BreakerState gauge.
func SetBreakerState(name, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	BreakerState.WithLabelValues(name).Set(v)
}
