package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/alignsearch/ai"
	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/embedding"
	"github.com/poiesic/alignsearch/metrics"
)

// VocabularyEmbedder vectorizes every vocabulary token with an ai.Embedder
// and assembles the vectors into a static embedding.
type VocabularyEmbedder struct {
	embedder  ai.Embedder
	batchSize int
	poolSize  int
	retry     RetryPolicy
	progress  io.Writer
	metrics   *metrics.IngestMetrics
	logger    *slog.Logger
}

// EmbedderOption configures a VocabularyEmbedder.
type EmbedderOption func(*VocabularyEmbedder) error

// WithEmbedderLogger sets a custom logger.
// Default is slog.Default().
func WithEmbedderLogger(logger *slog.Logger) EmbedderOption {
	return func(v *VocabularyEmbedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
		return nil
	}
}

// WithEmbedBatchSize sets the number of tokens per embedding request. Default is 64.
func WithEmbedBatchSize(size int) EmbedderOption {
	return func(v *VocabularyEmbedder) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1, got %d", size)
		}
		v.batchSize = size
		return nil
	}
}

// WithPoolSize sets the number of concurrent embedding requests. Default is 4.
func WithPoolSize(size int) EmbedderOption {
	return func(v *VocabularyEmbedder) error {
		v.poolSize = max(size, 1)
		return nil
	}
}

// WithRetryPolicy sets the retry policy of a single batch.
func WithRetryPolicy(policy RetryPolicy) EmbedderOption {
	return func(v *VocabularyEmbedder) error {
		if policy.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		v.retry = policy
		return nil
	}
}

// WithProgress reports progress to w.
func WithProgress(w io.Writer) EmbedderOption {
	return func(v *VocabularyEmbedder) error {
		v.progress = w
		return nil
	}
}

// WithIngestMetrics records batches in m.
func WithIngestMetrics(m *metrics.IngestMetrics) EmbedderOption {
	return func(v *VocabularyEmbedder) error {
		v.metrics = m
		return nil
	}
}

// NewVocabularyEmbedder creates a vocabulary embedder.
func NewVocabularyEmbedder(embedder ai.Embedder, opts ...EmbedderOption) (*VocabularyEmbedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	v := &VocabularyEmbedder{
		embedder:  embedder,
		batchSize: 64,
		poolSize:  4,
		retry:     DefaultRetryPolicy(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	v.logger = v.logger.With("component", "vocabulary-embedder")
	return v, nil
}

// Embed vectorizes the tokens of vocab into an embedding called name. Row i
// of the result holds the token with vocabulary id i, so the embedding maps
// the vocabulary one to one. The first failing batch cancels the others.
func (v *VocabularyEmbedder) Embed(ctx context.Context, vocab *core.Vocabulary, name string) (*embedding.Static, error) {
	words := make([]string, 0, vocab.Size())
	for _, block := range vocab.Blocks() {
		words = append(words, block...)
	}
	if len(words) == 0 {
		return nil, ErrEmptyVocabulary
	}

	pool, err := ants.NewPool(v.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	tracker := NewProgressTracker(v.progress, len(words), v.batchSize, "tokens")
	tracker.Start()

	vectors := make([][]float32, len(words))
	var wg sync.WaitGroup
	for lo := 0; lo < len(words); lo += v.batchSize {
		if ctx.Err() != nil {
			break
		}
		hi := min(lo+v.batchSize, len(words))
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := v.embedBatch(ctx, words[lo:hi], vectors[lo:hi]); err != nil {
				cancel(err)
				return
			}
			tracker.Increment(hi - lo)
		})
		if err != nil {
			wg.Done()
			cancel(err)
			break
		}
	}
	wg.Wait()
	tracker.Finish()

	if err := context.Cause(ctx); err != nil {
		v.logger.Error("vocabulary embedding failed", "embedded", tracker.Current(), "tokens", len(words), "err", err)
		return nil, err
	}

	dim := len(vectors[0])
	raw := make([]float32, 0, dim*len(words))
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: token %q has %d values, expected %d",
				embedding.ErrDimensionMismatch, words[i], len(vec), dim)
		}
		raw = append(raw, vec...)
	}
	table, err := embedding.NewWordVectors(dim, raw)
	if err != nil {
		return nil, err
	}
	v.logger.Info("embedded vocabulary", "embedding", name, "tokens", len(words), "dim", dim, "elapsed", tracker.Elapsed())
	return embedding.NewStatic(name, words, table)
}

// embedBatch fills out with the vectors of words, retrying transient failures.
func (v *VocabularyEmbedder) embedBatch(ctx context.Context, words []string, out [][]float32) error {
	start := time.Now()
	err := RetryWithBackoff(ctx, v.retry, func(ctx context.Context) error {
		vecs, err := v.embedder.EmbedTexts(ctx, words)
		if err != nil {
			return err
		}
		if len(vecs) != len(words) {
			return Permanent(fmt.Errorf("embedding count mismatch: expected %d, got %d", len(words), len(vecs)))
		}
		for i, vec := range vecs {
			if len(vec) == 0 {
				return Permanent(fmt.Errorf("%w: empty vector for %q", embedding.ErrEmptyEmbedding, words[i]))
			}
		}
		copy(out, vecs)
		return nil
	})

	if v.metrics != nil {
		v.metrics.BatchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			v.metrics.BatchesTotal.WithLabelValues(metrics.StatusError).Inc()
		} else {
			v.metrics.BatchesTotal.WithLabelValues(metrics.StatusOK).Inc()
			v.metrics.TokensEmbedded.Add(float64(len(words)))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to embed batch of %d tokens: %w", len(words), err)
	}
	return nil
}
