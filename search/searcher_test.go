package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/embedding"
	"github.com/poiesic/alignsearch/match"
	"github.com/poiesic/alignsearch/metrics"
	"github.com/poiesic/alignsearch/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type corpus struct {
	vocab    *core.Vocabulary
	registry *embedding.Registry
	repos    *badger.Repositories
}

// newCorpus stores one document per entry of sentences, over a one-hot
// embedding of words.
func newCorpus(t *testing.T, words []string, docs map[string][]string) *corpus {
	t.Helper()
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})

	rows := make([][]float32, len(words))
	for i := range words {
		rows[i] = make([]float32, len(words))
		rows[i][i] = 1
	}
	c := &corpus{vocab: core.NewVocabulary(), registry: embedding.NewRegistry(), repos: repos}
	c.vocab.Add(words...)
	c.registry.Add(embedding.MustStatic("onehot", words, rows...))

	for title, sentence := range docs {
		doc := &core.Document{
			Id:        core.IDFromContent(title),
			Title:     title,
			Tokens:    c.tokens(sentence...),
			Sentences: []core.Sentence{{TokenAt: 0, NTokens: len(sentence)}},
		}
		_, err := repos.Documents.AddDocuments(context.Background(), doc)
		require.NoError(t, err)
	}
	return c
}

func (c *corpus) tokens(words ...string) []core.Token {
	out := make([]core.Token, len(words))
	for i, w := range words {
		out[i] = core.Token{ID: c.vocab.ID(w), Tag: core.NoTag, POS: core.NoTag}
	}
	return out
}

func (c *corpus) query(t *testing.T, words ...string) *match.Query {
	t.Helper()
	q, err := match.NewQuery(c.vocab, c.registry, c.tokens(words...), match.DefaultOptions())
	require.NoError(t, err)
	return q
}

var words = []string{"w0", "w1", "w2", "w3", "w4"}

func threeDocuments(t *testing.T) *corpus {
	return newCorpus(t, words, map[string][]string{
		"exact":   {"w0", "w1", "w2", "w3"},
		"partial": {"w1", "w3", "w4"},
		"none":    {"w0", "w4", "w0"},
	})
}

type recordingMonitor struct {
	started   int
	documents []core.ID
	progress  []float64
	finished  *Report
}

func (m *recordingMonitor) Start(_ *match.Query, documents int) { m.started = documents }
func (m *recordingMonitor) DocumentMatched(doc *core.Document, _ match.Stats) {
	m.documents = append(m.documents, doc.Id)
}
func (m *recordingMonitor) Progress(fraction float64) { m.progress = append(m.progress, fraction) }
func (m *recordingMonitor) Finish(report *Report)     { m.finished = report }

func TestNewSearcher(t *testing.T) {
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		repos.Close()
		backend.Close()
	}()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Documents)
		require.NoError(t, err)
		defer searcher.Release()
		assert.NotNil(t, searcher)
	})

	t.Run("with options", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Documents,
			WithLogger(slog.Default()),
			WithPoolSize(2),
			WithMetrics(metrics.NewSearchMetrics(nil)))
		require.NoError(t, err)
		defer searcher.Release()
		assert.Equal(t, 2, searcher.pool.Cap())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Documents, WithLogger(nil))
		require.NoError(t, err)
		defer searcher.Release()
		assert.NotNil(t, searcher.logger)
	})

	t.Run("pool size below one", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Documents, WithPoolSize(0))
		require.NoError(t, err)
		defer searcher.Release()
		assert.Equal(t, 1, searcher.pool.Cap())
	})

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewSearcher(nil)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})
}

func TestSearch_EmptyCorpus(t *testing.T) {
	c := newCorpus(t, words, nil)
	searcher, err := NewSearcher(c.repos.Documents)
	require.NoError(t, err)
	defer searcher.Release()

	monitor := &recordingMonitor{}
	report, err := searcher.SearchWithMonitor(context.Background(), c.query(t, "w1"), monitor)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Results.Len())
	assert.Equal(t, 0, report.Documents)
	assert.False(t, report.Aborted)
	assert.Equal(t, []float64{1}, monitor.progress)
	assert.Same(t, report, monitor.finished)
}

func TestSearch_RanksAcrossDocuments(t *testing.T) {
	c := threeDocuments(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewSearchMetrics(reg)
	searcher, err := NewSearcher(c.repos.Documents, WithPoolSize(3), WithMetrics(m))
	require.NoError(t, err)
	defer searcher.Release()

	monitor := &recordingMonitor{}
	report, err := searcher.SearchWithMonitor(context.Background(), c.query(t, "w1", "w2"), monitor)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Documents)
	assert.Equal(t, 3, report.Spans)
	assert.Equal(t, 10, report.Tokens)
	assert.False(t, report.Aborted)

	matches := report.Results.Matches()
	require.NotEmpty(t, matches)
	assert.Equal(t, core.IDFromContent("exact"), matches[0].Digest.Document)
	assert.Equal(t, []int{1, 2}, matches[0].Digest.Alignment)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	for _, found := range matches {
		assert.NotEqual(t, core.IDFromContent("none"), found.Digest.Document)
	}

	assert.Equal(t, 3, monitor.started)
	assert.Len(t, monitor.documents, 3)
	require.Len(t, monitor.progress, 3)
	assert.IsNonDecreasing(t, monitor.progress)
	assert.InDelta(t, 1.0, monitor.progress[2], 1e-9)
	assert.Same(t, report, monitor.finished)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues(metrics.StatusOK)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Documents))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.Tokens))
	assert.Equal(t, float64(report.Admitted), testutil.ToFloat64(m.Admitted))
}

func TestSearch_CancelledContext(t *testing.T) {
	c := threeDocuments(t)
	m := metrics.NewSearchMetrics(nil)
	searcher, err := NewSearcher(c.repos.Documents, WithMetrics(m))
	require.NoError(t, err)
	defer searcher.Release()

	docs := make([]*core.Document, 0, 3)
	for _, title := range []string{"exact", "partial", "none"} {
		doc, err := c.repos.Documents.GetDocument(context.Background(), core.IDFromContent(title))
		require.NoError(t, err)
		docs = append(docs, doc)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := c.query(t, "w1", "w2")
	report, err := searcher.SearchDocuments(ctx, q, docs, nil)
	require.NoError(t, err)
	assert.True(t, report.Aborted)
	assert.True(t, q.Aborted())
	assert.Equal(t, 0, report.Results.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues(metrics.StatusAborted)))
}

func TestSearch_Errors(t *testing.T) {
	c := threeDocuments(t)
	m := metrics.NewSearchMetrics(nil)
	searcher, err := NewSearcher(c.repos.Documents, WithMetrics(m))
	require.NoError(t, err)
	defer searcher.Release()
	ctx := context.Background()

	t.Run("nil query", func(t *testing.T) {
		_, err := searcher.Search(ctx, nil)
		assert.ErrorIs(t, err, ErrQueryRequired)
		_, err = searcher.SearchDocuments(ctx, nil, nil, nil)
		assert.ErrorIs(t, err, ErrQueryRequired)
	})

	t.Run("invalid document", func(t *testing.T) {
		bad := &core.Document{Id: 1, Sentences: []core.Sentence{{TokenAt: 0, NTokens: 4}}}
		_, err := searcher.SearchDocuments(ctx, c.query(t, "w1"), []*core.Document{bad}, nil)
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues(metrics.StatusError)))
	})
}

func TestSearch_ProgressFunc(t *testing.T) {
	c := threeDocuments(t)
	searcher, err := NewSearcher(c.repos.Documents, WithPoolSize(1))
	require.NoError(t, err)
	defer searcher.Release()

	var seen []float64
	_, err = searcher.SearchWithMonitor(context.Background(), c.query(t, "w3"),
		ProgressFunc(func(f float64) { seen = append(seen, f) }))
	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.InDelta(t, 1.0, seen[2], 1e-9)
}
