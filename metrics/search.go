package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "alignsearch"

// Query outcomes recorded by SearchMetrics.Queries.
const (
	StatusOK      = "ok"
	StatusAborted = "aborted"
	StatusError   = "error"
)

// SearchMetrics holds the Prometheus metrics of the search pass.
type SearchMetrics struct {
	Queries   *prometheus.CounterVec
	Documents prometheus.Counter
	Spans     prometheus.Counter
	Tokens    prometheus.Counter
	Admitted  prometheus.Counter
	Duration  prometheus.Histogram
}

// NewSearchMetrics creates the search metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	m := &SearchMetrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total search passes by outcome",
		}, []string{"status"}),

		Documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_matched_total",
			Help:      "Total documents aligned against a query",
		}),

		Spans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spans_aligned_total",
			Help:      "Total document spans aligned",
		}),

		Tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_processed_total",
			Help:      "Total document tokens covered by aligned spans",
		}),

		Admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_admitted_total",
			Help:      "Total matches accepted into a result set",
		}),

		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search pass duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Queries, m.Documents, m.Spans, m.Tokens, m.Admitted, m.Duration)
	}
	return m
}
