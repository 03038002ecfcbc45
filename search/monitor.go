package search

import (
	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/match"
)

// SearchMonitor observes a search pass. Calls are serialized.
type SearchMonitor interface {
	Start(q *match.Query, documents int)
	DocumentMatched(doc *core.Document, stats match.Stats)
	// Progress reports the fraction of corpus tokens processed, in [0, 1].
	Progress(fraction float64)
	Finish(report *Report)
}

// ProgressFunc is a SearchMonitor that only receives progress updates.
type ProgressFunc func(fraction float64)

var _ SearchMonitor = ProgressFunc(nil)

func (f ProgressFunc) Start(_ *match.Query, _ int)                     {}
func (f ProgressFunc) DocumentMatched(_ *core.Document, _ match.Stats) {}
func (f ProgressFunc) Progress(fraction float64)                       { f(fraction) }
func (f ProgressFunc) Finish(_ *Report)                                {}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *match.Query, _ int)                     {}
func (n *noopMonitor) DocumentMatched(_ *core.Document, _ match.Stats) {}
func (n *noopMonitor) Progress(_ float64)                              {}
func (n *noopMonitor) Finish(_ *Report)                                {}
