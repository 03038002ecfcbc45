package alignment

import (
	"fmt"
	"math"
)

// GapCost is the penalty for skipping n ≥ 1 consecutive tokens. It must be
// non-decreasing in n.
type GapCost interface {
	Cost(n int) float32
}

// ConstantGap charges the same cost for any gap length.
type ConstantGap float32

func (g ConstantGap) Cost(int) float32 { return float32(g) }

// LinearGap charges a fixed cost per skipped token.
type LinearGap float32

func (g LinearGap) Cost(n int) float32 { return float32(g) * float32(n) }

// ExponentialGap approaches 1 as the gap grows: 1 - 2^(-n/Cutoff).
type ExponentialGap struct {
	Cutoff float32
}

func (g ExponentialGap) Cost(n int) float32 {
	return float32(1 - math.Exp2(-float64(n)/float64(g.Cutoff)))
}

// TableGap looks the cost up by gap length: entry n is the cost of a gap of
// n tokens, and longer gaps use the last entry.
type TableGap []float32

func (g TableGap) Cost(n int) float32 {
	return g[min(n, len(g)-1)]
}

// NoGaps forbids gaps entirely.
func NoGaps() TableGap {
	return TableGap{float32(math.Inf(1))}
}

// ValidateGap checks that g is usable by the aligners.
func ValidateGap(g GapCost) error {
	switch v := g.(type) {
	case nil:
		return fmt.Errorf("%w: missing", ErrInvalidGap)
	case TableGap:
		if len(v) == 0 {
			return fmt.Errorf("%w: empty table", ErrInvalidGap)
		}
		for i, c := range v {
			if c < 0 || math.IsNaN(float64(c)) {
				return fmt.Errorf("%w: entry %d is %v", ErrInvalidGap, i, c)
			}
			if i > 0 && c < v[i-1] {
				return fmt.Errorf("%w: table decreases at entry %d", ErrInvalidGap, i)
			}
		}
	case ExponentialGap:
		if !(v.Cutoff > 0) {
			return fmt.Errorf("%w: exponential cutoff must be > 0", ErrInvalidGap)
		}
	case LinearGap:
		if v < 0 || math.IsNaN(float64(v)) {
			return fmt.Errorf("%w: %v per token", ErrInvalidGap, float32(v))
		}
	case ConstantGap:
		if v < 0 || math.IsNaN(float64(v)) {
			return fmt.Errorf("%w: %v", ErrInvalidGap, float32(v))
		}
	}
	return nil
}

func isInf(x float32) bool {
	return math.IsInf(float64(x), 1)
}
