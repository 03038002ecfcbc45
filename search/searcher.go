package search

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/match"
	"github.com/poiesic/alignsearch/metrics"
	"github.com/poiesic/alignsearch/storage"
)

// Report summarizes a search pass.
type Report struct {
	Results   *match.ResultSet
	Documents int // documents matched
	Spans     int
	Tokens    int
	Admitted  int
	Aborted   bool
	Elapsed   time.Duration
}

// Searcher matches queries against every document of a repository.
type Searcher struct {
	documents storage.DocumentRepository
	pool      *ants.Pool
	metrics   *metrics.SearchMetrics
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPoolSize sets the number of documents matched concurrently.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithMetrics records every search pass in m.
func WithMetrics(m *metrics.SearchMetrics) Option {
	return func(s *Searcher) error {
		s.metrics = m
		return nil
	}
}

// NewSearcher creates a new searcher over documents.
func NewSearcher(documents storage.DocumentRepository, opts ...Option) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	s := &Searcher{
		documents: documents,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}

	if s.pool == nil {
		pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
		if err != nil {
			return nil, err
		}
		s.pool = pool
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Release releases the worker pool.
// The searcher should not be used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Search matches q against every stored document.
func (s *Searcher) Search(ctx context.Context, q *match.Query) (*Report, error) {
	return s.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor matches q against every stored document with monitoring.
// The corpus is read into memory before matching starts, so progress can be
// reported against its total token count.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q *match.Query, monitor SearchMonitor) (*Report, error) {
	if q == nil {
		return nil, ErrQueryRequired
	}
	var docs []*core.Document
	err := s.documents.ForEachDocument(ctx, func(doc *core.Document) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		s.logger.Error("error reading documents", "err", err)
		s.observe(nil, err)
		return nil, err
	}
	return s.SearchDocuments(ctx, q, docs, monitor)
}

// SearchDocuments matches q against docs.
//
// Cancelling ctx aborts q; an aborted query stays aborted. The matches found
// before the abort are returned with Report.Aborted set. A document failing
// validation aborts the pass and its error is returned.
func (s *Searcher) SearchDocuments(ctx context.Context, q *match.Query, docs []*core.Document, monitor SearchMonitor) (*Report, error) {
	if q == nil {
		return nil, ErrQueryRequired
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	start := time.Now()
	total := 0
	for _, doc := range docs {
		total += len(doc.Tokens)
	}

	stop := context.AfterFunc(ctx, q.Abort)
	defer stop()

	report := &Report{Results: q.NewResultSet()}
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		processed int
		firstErr  error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		q.Abort()
	}

	monitor.Start(q, len(docs))
	for _, doc := range docs {
		if ctx.Err() != nil || q.Aborted() {
			q.Abort()
			break
		}
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			m, err := match.NewMatcher(q, doc)
			if err != nil {
				s.logger.Error("error preparing document", "document", doc.Id, "err", err)
				fail(err)
				return
			}
			local := q.NewResultSet()
			stats := m.Match(local)

			mu.Lock()
			defer mu.Unlock()
			report.Results.Extend(local)
			report.Documents++
			report.Spans += stats.Spans
			report.Tokens += stats.Tokens
			report.Admitted += stats.Admitted
			processed += len(doc.Tokens)
			monitor.DocumentMatched(doc, stats)
			if total > 0 {
				monitor.Progress(float64(processed) / float64(total))
			}
		})
		if err != nil {
			wg.Done()
			s.logger.Error("error submitting document", "document", doc.Id, "err", err)
			fail(err)
			break
		}
	}
	wg.Wait()

	if total == 0 {
		monitor.Progress(1)
	}
	report.Aborted = q.Aborted()
	report.Elapsed = time.Since(start)
	if firstErr != nil {
		s.observe(report, firstErr)
		return nil, firstErr
	}

	s.logger.Debug("search finished",
		"documents", report.Documents,
		"spans", report.Spans,
		"matches", report.Results.Len(),
		"aborted", report.Aborted,
		"elapsed", report.Elapsed)
	s.observe(report, nil)
	monitor.Finish(report)
	return report, nil
}

func (s *Searcher) observe(report *Report, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err != nil:
		s.metrics.Queries.WithLabelValues(metrics.StatusError).Inc()
	case report.Aborted:
		s.metrics.Queries.WithLabelValues(metrics.StatusAborted).Inc()
	default:
		s.metrics.Queries.WithLabelValues(metrics.StatusOK).Inc()
	}
	if report == nil {
		return
	}
	s.metrics.Documents.Add(float64(report.Documents))
	s.metrics.Spans.Add(float64(report.Spans))
	s.metrics.Tokens.Add(float64(report.Tokens))
	s.metrics.Admitted.Add(float64(report.Admitted))
	s.metrics.Duration.Observe(report.Elapsed.Seconds())
}
