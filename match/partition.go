package match

import "github.com/poiesic/alignsearch/core"

// Spans cuts doc into the windows compared to a query. Windows at the end of
// the document are truncated rather than dropped. Sentence windows cover
// whole sentences and are identified by their first sentence; token windows
// are identified by their window index.
func (p Partition) Spans(doc *core.Document) []core.Span {
	size, step := max(p.WindowSize, 1), max(p.WindowStep, 1)

	if p.Level == LevelToken {
		n := len(doc.Tokens)
		spans := make([]core.Span, 0, n/step+1)
		for at, id := 0, 0; at < n; at, id = at+step, id+1 {
			spans = append(spans, core.Span{Id: id, TokenAt: at, Len: min(size, n-at)})
		}
		return spans
	}

	n := len(doc.Sentences)
	spans := make([]core.Span, 0, n/step+1)
	for first := 0; first < n; first += step {
		last := min(first+size, n) - 1
		start := doc.Sentences[first].TokenAt
		end := doc.Sentences[last].TokenAt + doc.Sentences[last].NTokens
		spans = append(spans, core.Span{Id: first, TokenAt: start, Len: end - start})
	}
	return spans
}

// MaxSpanLen returns the length of the longest span.
func MaxSpanLen(spans []core.Span) int {
	n := 0
	for _, s := range spans {
		n = max(n, s.Len)
	}
	return n
}
