package alignment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alignWSB(t *testing.T, w *WatermanSmithBeyer, values [][]float32) Result {
	t.Helper()
	s := &MatrixSlice{Values: values}
	w.Init(s.LenS(), s.LenT())
	return w.Align(s)
}

func TestWatermanSmithBeyer(t *testing.T) {
	t.Run("pure diagonal without gaps", func(t *testing.T) {
		r := alignWSB(t, NewWatermanSmithBeyer(nil, DefaultZero), [][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		})
		assert.InDelta(t, 3, r.Score, 1e-6)
		assert.Equal(t, []int{0, 1, 2}, r.Match)
	})

	t.Run("undefined similarity resets the alignment", func(t *testing.T) {
		nan := float32(math.NaN())
		r := alignWSB(t, NewWatermanSmithBeyer(nil, DefaultZero), [][]float32{
			{nan, 0},
			{0, 1},
		})
		assert.InDelta(t, 1, r.Score, 1e-6)
		assert.Equal(t, []int{Unmatched, 1}, r.Match)
	})

	t.Run("zero similarity on the diagonal stays unmatched", func(t *testing.T) {
		r := alignWSB(t, NewWatermanSmithBeyer(nil, DefaultZero), [][]float32{
			{0.9, 0, 0},
			{0, 0, 0},
			{0, 0, 0.8},
		})
		assert.InDelta(t, 1.7, r.Score, 1e-6)
		assert.Equal(t, []int{0, Unmatched, 2}, r.Match)
	})

	t.Run("run inside a longer span", func(t *testing.T) {
		r := alignWSB(t, NewWatermanSmithBeyer(NoGaps(), DefaultZero), [][]float32{
			{0, 0},
			{1, 0},
			{0, 1},
			{0, 0},
			{0, 0},
		})
		assert.InDelta(t, 2, r.Score, 1e-6)
		assert.Equal(t, []int{1, 2}, r.Match)
	})

	t.Run("infinite gap keeps runs apart", func(t *testing.T) {
		r := alignWSB(t, NewWatermanSmithBeyer(NoGaps(), DefaultZero), [][]float32{
			{1, 0},
			{0, 0},
			{0, 1},
		})
		assert.InDelta(t, 1, r.Score, 1e-6)
		assert.Equal(t, []int{0, Unmatched}, r.Match)
	})

	t.Run("linear gap bridges a skipped source token", func(t *testing.T) {
		r := alignWSB(t, NewWatermanSmithBeyer(LinearGap(0.2), DefaultZero), [][]float32{
			{1, 0},
			{0, 0},
			{0, 1},
		})
		assert.InDelta(t, 1.8, r.Score, 1e-6)
		assert.Equal(t, []int{0, 2}, r.Match)
	})

	t.Run("scores below zero threshold reset", func(t *testing.T) {
		r := alignWSB(t, NewWatermanSmithBeyer(nil, DefaultZero), [][]float32{{0.3}})
		assert.Equal(t, float32(0), r.Score)
		assert.Equal(t, []int{Unmatched}, r.Match)

		r = alignWSB(t, NewWatermanSmithBeyer(nil, 0), [][]float32{{0.3}})
		assert.InDelta(t, 0.3, r.Score, 1e-6)
		assert.Equal(t, []int{0}, r.Match)
	})

	t.Run("grows beyond initialized bounds", func(t *testing.T) {
		w := NewWatermanSmithBeyer(nil, DefaultZero)
		w.Init(1, 1)
		r := w.Align(&MatrixSlice{Values: [][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		}})
		assert.InDelta(t, 3, r.Score, 1e-6)
		assert.Equal(t, []int{0, 1, 2}, r.Match)
	})

	t.Run("buffers are reused across slices", func(t *testing.T) {
		w := NewWatermanSmithBeyer(nil, DefaultZero)
		w.Init(3, 3)
		first := w.Align(&MatrixSlice{Values: [][]float32{{1, 0}, {0, 1}}})
		second := w.Align(&MatrixSlice{Values: [][]float32{{0}}})
		require.Equal(t, []int{0, 1}, first.Match)
		assert.Equal(t, []int{Unmatched}, second.Match)
		assert.Equal(t, float32(0), second.Score)
	})
}

func TestReverse(t *testing.T) {
	s := &MatrixSlice{Values: [][]float32{
		{1, 2},
		{3, 4},
		{5, 6},
	}, Weights: []float32{0.25, 1}}
	r := Reverse(s)

	assert.Equal(t, float32(6), r.Similarity(0, 0))
	assert.Equal(t, float32(1), r.Similarity(2, 1))
	assert.Equal(t, float32(1), r.Weight(0))
	assert.Same(t, s, Reverse(r))

	assert.Equal(t, []int{2, Unmatched, 4}, Unreverse([]int{0, Unmatched, 2}, 5))
}

func TestReverseAlignmentMapsBack(t *testing.T) {
	s := &MatrixSlice{Values: [][]float32{
		{1, 0},
		{0, 1},
		{0, 0},
		{0, 0},
	}}
	w := NewWatermanSmithBeyer(nil, DefaultZero)
	w.Init(4, 2)

	forward := w.Align(s)
	backward := w.Align(Reverse(s))
	assert.InDelta(t, forward.Score, backward.Score, 1e-6)
	assert.Equal(t, []int{0, 1}, forward.Match)
	assert.Equal(t, []int{2, 3}, backward.Match)
	assert.Equal(t, forward.Match, Unreverse(backward.Match, s.LenS()))
}
