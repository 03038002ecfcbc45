package match

import (
	"log/slog"

	"github.com/poiesic/alignsearch/alignment"
	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/embedding"
)

// Stats summarizes one matching pass over a document.
type Stats struct {
	Spans    int // spans aligned
	Tokens   int // document tokens covered by aligned spans
	Admitted int // matches accepted by the result set
	Aborted  bool
}

// Matcher aligns a Query against the spans of one Document.
// It owns per-document working buffers and must not be shared.
type Matcher struct {
	query    *Query
	doc      *core.Document
	spans    []core.Span
	variants []variant
	logger   *slog.Logger

	source    []core.Token
	positions []int
}

type variant struct {
	index  int
	metric Metric
	algo   alignment.Algorithm
}

// NewMatcher prepares a matcher for doc. Metrics whose matrix has no
// non-zero cell are skipped. One algorithm instance is created per metric and
// sized for the document's longest span.
func NewMatcher(q *Query, doc *core.Document) (*Matcher, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	m := &Matcher{
		query:  q,
		doc:    doc,
		spans:  q.opts.Partition.Spans(doc),
		logger: q.logger.With("component", "matcher", "document", doc.Id),
	}
	maxLen := MaxSpanLen(m.spans)
	m.source = make([]core.Token, 0, maxLen)
	m.positions = make([]int, 0, maxLen)

	cfg := q.opts.Algorithm
	cfg.POSAware = q.opts.POSMismatchPenalty > 0
	for i, metric := range q.metrics {
		if !metric.Good() {
			continue
		}
		algo, err := alignment.New(cfg)
		if err != nil {
			return nil, err
		}
		algo.Init(maxLen, q.Len())
		m.variants = append(m.variants, variant{index: i, metric: metric, algo: algo})
	}
	return m, nil
}

type candidate struct {
	v     *variant
	slice *spanSlice
	score float32
	match []int
}

// Match aligns every span and adds the best match of each span that beats
// the result set's current worst score. It stops at the first span boundary
// after the query was aborted; matches admitted until then stay valid.
func (m *Matcher) Match(results *ResultSet) Stats {
	var stats Stats
	q := m.query
	if q.Len() == 0 || len(m.variants) == 0 {
		return stats
	}
	bidirectional := q.opts.Bidirectional

	for _, span := range m.spans {
		if q.Aborted() {
			stats.Aborted = true
			m.logger.Debug("matching aborted", "span", span.Id)
			break
		}
		m.load(span)
		if len(m.source) == 0 {
			continue
		}
		stats.Spans++
		stats.Tokens += span.Len

		var best *candidate
		worst := results.WorstScore()
		for i := range m.variants {
			v := &m.variants[i]
			slice := &spanSlice{
				matrix:  v.metric.Similarity(),
				source:  m.source,
				query:   q.tokens,
				weights: q.weights,
				penalty: q.opts.POSMismatchPenalty,
			}

			r := v.algo.Align(slice)
			score := q.NormalizedScore(r.Score, r.Match)
			match := r.Match
			if bidirectional {
				rr := v.algo.Align(alignment.Reverse(slice))
				back := alignment.Unreverse(rr.Match, slice.LenS())
				if rs := q.NormalizedScore(rr.Score, back); rs > score {
					score, match = rs, back
				}
			}

			if score > worst && (best == nil || score > best.score) {
				best = &candidate{v: v, slice: slice, score: score, match: match}
			}
		}

		if q.debug != nil {
			m.dump(span, best)
		}
		if best != nil && results.Add(m.newMatch(span, best)) {
			stats.Admitted++
		}
	}
	return stats
}

// load collects the span's tokens that pass the query filter, remembering
// their span-relative positions.
func (m *Matcher) load(span core.Span) {
	m.source = m.source[:0]
	m.positions = m.positions[:0]
	filter := m.query.filter
	for k, t := range m.doc.Tokens[span.TokenAt : span.TokenAt+span.Len] {
		if filter.Keep(t) {
			m.source = append(m.source, t)
			m.positions = append(m.positions, k)
		}
	}
}

// newMatch builds the match for c with alignment indices mapped back to
// span positions and the per-token score breakdown filled in.
func (m *Matcher) newMatch(span core.Span, c *candidate) *core.Match {
	aligned := make([]int, len(c.match))
	scores := make([]core.TokenScore, len(c.match))
	for j, u := range c.match {
		scores[j].Weight = m.query.weights[j]
		if u == core.Unmatched {
			aligned[j] = core.Unmatched
			scores[j].Source = core.Unmatched
			continue
		}
		aligned[j] = m.positions[u]
		scores[j].Source = m.positions[u]
		scores[j].Similarity = c.slice.Similarity(u, j)
	}
	return &core.Match{
		Metric:    c.v.metric.Name(),
		Variant:   c.v.index,
		Algorithm: c.v.algo.Name(),
		Digest: core.MatchDigest{
			Document:  m.doc.Id,
			Span:      span.Id,
			Alignment: aligned,
		},
		Score:  c.score,
		Scores: scores,
	}
}

func (m *Matcher) dump(span core.Span, best *candidate) {
	d := SpanDump{
		Document: m.doc.Id,
		Span:     span,
		Source:   dumpTokens(m.query.vocab, m.source),
		Query:    dumpTokens(m.query.vocab, m.query.tokens),
	}
	if best != nil {
		d.Metric = best.v.metric.Name()
		d.Algorithm = best.v.algo.Name()
		d.Score = best.score
	}
	m.query.debug(d)
}

// spanSlice views the rows of a shared similarity matrix selected by the
// span's vocabulary ids.
type spanSlice struct {
	matrix  *embedding.SimilarityMatrix
	source  []core.Token
	query   []core.Token
	weights []float32
	penalty float32
}

func (s *spanSlice) LenS() int { return len(s.source) }
func (s *spanSlice) LenT() int { return len(s.query) }

func (s *spanSlice) Similarity(i, j int) float32 {
	row := int(s.source[i].ID)
	if row < 0 || row >= s.matrix.Values.Rows {
		return 0
	}
	v := s.matrix.Values.At(row, j)
	if s.penalty > 0 {
		st, qt := s.source[i].Tag, s.query[j].Tag
		if st >= 0 && qt >= 0 && st != qt {
			v *= 1 - s.penalty
		}
	}
	return v
}

func (s *spanSlice) SourceToken(i int) core.Token { return s.source[i] }
func (s *spanSlice) QueryToken(j int) core.Token  { return s.query[j] }

func (s *spanSlice) MagnitudeS(i int) float32 {
	row := int(s.source[i].ID)
	if row < 0 || row >= len(s.matrix.SourceNorms) {
		return 0
	}
	return s.matrix.SourceNorms[row]
}

func (s *spanSlice) MagnitudeT(j int) float32 { return s.matrix.QueryNorms[j] }
func (s *spanSlice) Weight(j int) float32     { return s.weights[j] }
