package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Round metrics
	RoundExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_round_executions_total",
			Help: "Total number of negotiation round executions",
		},
		[]string{"status"}, // status: success|error|locked|not_found
	)

	RoundDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parley_round_duration_seconds",
			Help:    "Negotiation round execution duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// Clause metrics
	ClauseDegradations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_clause_degradations_total",
			Help: "Clauses dropped from a round after a skill failure",
		},
		[]string{"clause"},
	)

	ClausesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_clauses_resolved_total",
			Help: "Clauses resolved per round by resolution path",
		},
		[]string{"clause", "path"}, // path: pinned|override|single_sided|compromise
	)

	// Utility metrics
	PartyUtility = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "parley_party_utility",
			Help: "Utility of the latest round per party",
		},
		[]string{"session_id", "party"}, // party: company|investor
	)

	PolicyViolations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_policy_violations_total",
			Help: "Final terms that failed post-solve policy validation",
		},
	)

	// Snippet retrieval metrics
	SnippetRetrievals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_snippet_retrievals_total",
			Help: "Snippet store retrievals by outcome",
		},
		[]string{"status"}, // status: success|degraded
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(RoundExecutions)
	prometheus.MustRegister(RoundDuration)
	prometheus.MustRegister(ClauseDegradations)
	prometheus.MustRegister(ClausesResolved)
	prometheus.MustRegister(PartyUtility)
	prometheus.MustRegister(PolicyViolations)
	prometheus.MustRegister(SnippetRetrievals)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRound records one round execution
func RecordRound(status string, duration time.Duration) {
	RoundExecutions.WithLabelValues(status).Inc()
	RoundDuration.Observe(duration.Seconds())
}
