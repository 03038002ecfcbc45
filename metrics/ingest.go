package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestMetrics holds the Prometheus metrics of vocabulary embedding.
type IngestMetrics struct {
	TokensEmbedded prometheus.Counter
	BatchesTotal   *prometheus.CounterVec
	BatchDuration  prometheus.Histogram
}

// NewIngestMetrics creates the ingest metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	m := &IngestMetrics{
		TokensEmbedded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_embedded_total",
			Help:      "Total vocabulary tokens vectorized",
		}),

		BatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_batches_total",
			Help:      "Total embedding batches by outcome",
		}, []string{"status"}),

		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_batch_duration_seconds",
			Help:      "Embedding batch duration in seconds, retries included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.TokensEmbedded, m.BatchesTotal, m.BatchDuration)
	}
	return m
}
