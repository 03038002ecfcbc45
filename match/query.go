package match

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/embedding"
)

// Query is a tokenized query together with everything needed to match it:
// token weights, the document-side token filter and one similarity matrix
// per metric. It is immutable after construction except for the abort flag.
type Query struct {
	text    string
	tokens  []core.Token
	opts    Options
	vocab   *core.Vocabulary
	weights []float32
	total   float32
	filter  core.TokenFilter
	metrics []Metric
	debug   DebugHook
	logger  *slog.Logger
	aborted atomic.Bool
}

// Option configures a Query.
type Option func(*Query) error

// WithLogger sets a custom logger for the query and its matchers.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Query) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
		return nil
	}
}

// WithText records the query's source text.
func WithText(text string) Option {
	return func(q *Query) error {
		q.text = text
		return nil
	}
}

// WithDebugHook installs a hook receiving every compared span.
func WithDebugHook(hook DebugHook) Option {
	return func(q *Query) error {
		q.debug = hook
		return nil
	}
}

// WithMetrics supplies ready-made metrics instead of building them from
// embeddings. Every metric must cover the vocabulary and the query tokens
// left after filtering.
func WithMetrics(metrics ...Metric) Option {
	return func(q *Query) error {
		q.metrics = append(q.metrics, metrics...)
		return nil
	}
}

// NewQuery validates opts and prepares tokens for matching against documents
// tokenized with vocab. Query tokens dropped by the POS and tag filters take
// no part in weighting or alignment. Similarity matrices are built once here from the
// embeddings in registry and shared by every document the query is matched against.
func NewQuery(vocab *core.Vocabulary, registry *embedding.Registry, tokens []core.Token, opts Options, options ...Option) (*Query, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if vocab == nil {
		vocab = core.NewVocabulary()
	}

	q := &Query{
		tokens: tokens,
		opts:   opts,
		vocab:  vocab,
		logger: slog.Default(),
	}
	for _, opt := range options {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	q.logger = q.logger.With("component", "query")

	filter, err := core.NewTokenFilter(vocab, opts.POSFilter, opts.TagFilter)
	if err != nil {
		return nil, err
	}
	q.filter = filter
	if !filter.All() {
		kept := make([]core.Token, 0, len(tokens))
		for _, t := range tokens {
			if filter.Keep(t) {
				kept = append(kept, t)
			}
		}
		q.tokens = kept
	}

	if err := q.computeWeights(); err != nil {
		return nil, err
	}

	if len(q.metrics) == 0 {
		if err := q.buildMetrics(registry); err != nil {
			return nil, err
		}
	}
	for _, m := range q.metrics {
		if cols := m.Similarity().Values.Cols; cols != len(q.tokens) {
			return nil, fmt.Errorf("%w: metric %s has %d columns for %d query tokens",
				core.ErrInconsistentVocabulary, m.Name(), cols, len(q.tokens))
		}
	}

	q.logger.Debug("query prepared",
		"tokens", len(q.tokens),
		"metrics", len(q.metrics),
		"algorithm", opts.Algorithm.Name)
	return q, nil
}

func (q *Query) computeWeights() error {
	byTag := make(map[int8]float32, len(q.opts.POSWeights))
	for name, w := range q.opts.POSWeights {
		id, ok := q.vocab.TagID(name)
		if !ok {
			return fmt.Errorf("%w: pos_weights names %q", core.ErrUnknownTag, name)
		}
		byTag[id] = w
	}
	q.weights = make([]float32, len(q.tokens))
	q.total = 0
	for j, t := range q.tokens {
		w := float32(1)
		if tw, ok := byTag[t.Tag]; ok && t.Tag >= 0 {
			w = tw
		}
		q.weights[j] = w
		q.total += w
	}
	return nil
}

func (q *Query) buildMetrics(registry *embedding.Registry) error {
	if registry == nil {
		registry = embedding.NewRegistry()
	}
	measure, err := embedding.NewMeasure(q.opts.Measure)
	if err != nil {
		return err
	}
	build := embedding.BuildOptions{
		Falloff:   q.opts.SimilarityFalloff,
		Threshold: q.opts.SimilarityThreshold,
	}

	static := make(map[string]Metric)
	lookup := func(name string) (Metric, error) {
		emb, err := registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		if m, ok := static[emb.Name()]; ok {
			return m, nil
		}
		mapping := emb.MapVocabulary(q.vocab)
		needle, err := embedding.NewNeedle(mapping, q.tokens)
		if err != nil {
			return nil, err
		}
		m := NewStaticMetric(emb.Name(),
			embedding.BuildSimilarityMatrix(emb.Vectors(), measure, mapping, needle, build))
		static[emb.Name()] = m
		return m, nil
	}

	for _, spec := range q.opts.Metrics {
		if spec.Op == "" {
			m, err := lookup(spec.Embedding)
			if err != nil {
				return err
			}
			q.metrics = append(q.metrics, m)
			continue
		}
		a, err := lookup(spec.A)
		if err != nil {
			return err
		}
		b, err := lookup(spec.B)
		if err != nil {
			return err
		}
		q.metrics = append(q.metrics, NewCompositeMetric(a, b, spec.Op, spec.T))
	}
	return nil
}

// Text returns the query's source text, if recorded.
func (q *Query) Text() string { return q.text }

// Tokens returns the query tokens.
func (q *Query) Tokens() []core.Token { return q.tokens }

// Len returns the number of query tokens.
func (q *Query) Len() int { return len(q.tokens) }

// Weights returns the per-token normalization weights.
func (q *Query) Weights() []float32 { return q.weights }

// TotalWeight returns the sum of all token weights.
func (q *Query) TotalWeight() float32 { return q.total }

// Options returns the options the query was built with.
func (q *Query) Options() Options { return q.opts }

// Metrics returns the query's metrics in configuration order.
func (q *Query) Metrics() []Metric { return q.metrics }

// Filter returns the document-side token filter.
func (q *Query) Filter() core.TokenFilter { return q.filter }

// Vocabulary returns the corpus vocabulary the query was built against.
func (q *Query) Vocabulary() *core.Vocabulary { return q.vocab }

// Logger returns the query's logger.
func (q *Query) Logger() *slog.Logger { return q.logger }

// Abort asks every matcher working on this query to stop at the next span boundary.
func (q *Query) Abort() { q.aborted.Store(true) }

// Aborted reports whether Abort was called.
func (q *Query) Aborted() bool { return q.aborted.Load() }

// NormalizedScore normalizes a raw alignment score with the query's weights
// and submatch weight.
func (q *Query) NormalizedScore(raw float32, aligned []int) float32 {
	return NormalizedScore(raw, aligned, q.weights, q.opts.SubmatchWeight)
}

// NewResultSet creates a result set sized by the query's options.
func (q *Query) NewResultSet() *ResultSet {
	return NewResultSet(q.opts.MaxMatches, q.opts.MinScore)
}

// Match runs the query against a single document.
func (q *Query) Match(doc *core.Document) (*ResultSet, error) {
	results := q.NewResultSet()
	m, err := NewMatcher(q, doc)
	if err != nil {
		return nil, err
	}
	m.Match(results)
	return results, nil
}
