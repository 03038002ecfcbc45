package match

import (
	"container/heap"
	"sort"

	"github.com/poiesic/alignsearch/core"
)

// ResultSet keeps the best matches seen so far, at most max of them, each
// scoring at least the configured floor. Once full, WorstScore rises with
// every admission and acts as the admission threshold.
type ResultSet struct {
	max      int
	minScore float32
	h        matchHeap
}

// NewResultSet creates an empty set holding up to maxMatches matches.
func NewResultSet(maxMatches int, minScore float32) *ResultSet {
	return &ResultSet{
		max:      max(maxMatches, 1),
		minScore: minScore,
		h:        make(matchHeap, 0, min(max(maxMatches, 1), 1024)),
	}
}

// Add admits m if it clears the floor and the set has room or m scores
// higher than the current worst match, which is then evicted. It reports
// whether m was kept.
func (r *ResultSet) Add(m *core.Match) bool {
	if m.Score < r.minScore {
		return false
	}
	if len(r.h) < r.max {
		heap.Push(&r.h, m)
		return true
	}
	if m.Score <= r.h[0].Score {
		return false
	}
	r.h[0] = m
	heap.Fix(&r.h, 0)
	return true
}

// WorstScore is the lowest retained score when the set is full, else the floor.
func (r *ResultSet) WorstScore() float32 {
	if len(r.h) < r.max {
		return r.minScore
	}
	return r.h[0].Score
}

// Len returns the number of retained matches.
func (r *ResultSet) Len() int { return len(r.h) }

// MaxMatches returns the capacity.
func (r *ResultSet) MaxMatches() int { return r.max }

// MinScore returns the floor.
func (r *ResultSet) MinScore() float32 { return r.minScore }

// Extend adds every match of other.
func (r *ResultSet) Extend(other *ResultSet) {
	for _, m := range other.h {
		r.Add(m)
	}
}

// BestN returns up to n matches in descending score order.
func (r *ResultSet) BestN(n int) []*core.Match {
	out := make([]*core.Match, len(r.h))
	copy(out, r.h)
	sort.Slice(out, func(i, j int) bool { return r.h.less(out[j], out[i]) })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Matches returns all retained matches in descending score order.
func (r *ResultSet) Matches() []*core.Match {
	return r.BestN(len(r.h))
}

// matchHeap is a min-heap: the root is the match evicted first.
type matchHeap []*core.Match

// less orders by score, breaking ties so that earlier documents and spans rank higher.
func (h matchHeap) less(a, b *core.Match) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.Digest.Document != b.Digest.Document {
		return a.Digest.Document > b.Digest.Document
	}
	return a.Digest.Span > b.Digest.Span
}

func (h matchHeap) Len() int           { return len(h) }
func (h matchHeap) Less(i, j int) bool { return h.less(h[i], h[j]) }
func (h matchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x any) { *h = append(*h, x.(*core.Match)) }

func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	m := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return m
}
