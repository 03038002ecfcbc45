package match

import (
	"math"

	"github.com/poiesic/alignsearch/core"
)

// ReferenceScore is the normalization denominator for an alignment that
// matched `matched` out of `total` query weight:
//
//	matched + ((total-matched)/total)^submatch · (total-matched)
//
// With submatch 0 it equals total.
func ReferenceScore(matched, total, submatch float32) float32 {
	if total <= 0 {
		return 0
	}
	unmatched := total - matched
	w := float32(math.Pow(float64(unmatched/total), float64(submatch)))
	return matched + w*unmatched
}

// NormalizedScore divides raw by the reference score of alignment under
// the query token weights. A query without weight scores 0.
func NormalizedScore(raw float32, aligned []int, weights []float32, submatch float32) float32 {
	var matched, total float32
	for j, w := range weights {
		total += w
		if aligned[j] != core.Unmatched {
			matched += w
		}
	}
	ref := ReferenceScore(matched, total, submatch)
	if ref <= 0 {
		return 0
	}
	return raw / ref
}
