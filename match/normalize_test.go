package match

import (
	"testing"

	"github.com/poiesic/alignsearch/core"
	"github.com/stretchr/testify/assert"
)

func TestReferenceScore(t *testing.T) {
	t.Run("submatch zero is the total", func(t *testing.T) {
		for _, matched := range []float32{0, 1, 2.5, 4} {
			assert.InDelta(t, 4, ReferenceScore(matched, 4, 0), 1e-6)
		}
	})

	t.Run("fully matched or fully unmatched is the total", func(t *testing.T) {
		for _, sw := range []float32{0.5, 1, 3} {
			assert.InDelta(t, 4, ReferenceScore(4, 4, sw), 1e-6)
			assert.InDelta(t, 4, ReferenceScore(0, 4, sw), 1e-6)
		}
	})

	t.Run("partial match discounts unmatched weight", func(t *testing.T) {
		assert.InDelta(t, 3, ReferenceScore(2, 4, 1), 1e-6)
		assert.InDelta(t, 2.5, ReferenceScore(2, 4, 2), 1e-6)
		assert.InDelta(t, 3.0625, ReferenceScore(3, 4, 2), 1e-6)
	})

	t.Run("no weight", func(t *testing.T) {
		assert.Equal(t, float32(0), ReferenceScore(0, 0, 1))
	})
}

func TestNormalizedScore(t *testing.T) {
	u := core.Unmatched
	weights := []float32{1, 1, 1, 1}

	t.Run("submatch zero divides by total weight", func(t *testing.T) {
		for _, aligned := range [][]int{{0, 1, 2, 3}, {0, u, u, 3}, {u, u, u, u}} {
			assert.InDelta(t, 0.5, NormalizedScore(2, aligned, weights, 0), 1e-6)
		}
	})

	t.Run("weights split matched and unmatched mass", func(t *testing.T) {
		// matched weight 3 of 4; reference = 3 + (1/4)^1 · 1
		got := NormalizedScore(2, []int{0, 1, u, 2}, []float32{1, 2, 1, 0}, 1)
		assert.InDelta(t, 2/3.25, got, 1e-6)
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Equal(t, float32(0), NormalizedScore(1, nil, nil, 1))
	})
}
