package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWordVectors(t *testing.T) {
	t.Run("normalizes rows", func(t *testing.T) {
		v, err := NewWordVectors(2, []float32{3, 4, 0, 2})
		require.NoError(t, err)
		assert.Equal(t, 2, v.Rows())
		assert.Equal(t, 2, v.Dim())
		assert.InDeltaSlice(t, []float32{0.6, 0.8}, v.Normalized(0), 1e-6)
		assert.InDeltaSlice(t, []float32{0, 1}, v.Normalized(1), 1e-6)
		assert.InDelta(t, 5, v.Magnitude(0), 1e-6)
	})

	t.Run("zero row stays zero", func(t *testing.T) {
		v, err := NewWordVectors(2, []float32{0, 0})
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0}, v.Normalized(0))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := NewWordVectors(3, []float32{1, 2})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("unmodified magnitudes", func(t *testing.T) {
		v, err := NewWordVectors(2, []float32{0.6, 0.8})
		require.NoError(t, err)
		u, err := v.WithUnmodified([]float32{6, 8})
		require.NoError(t, err)
		assert.InDelta(t, 1, v.Magnitude(0), 1e-6)
		assert.InDelta(t, 10, u.Magnitude(0), 1e-6)

		_, err = v.WithUnmodified([]float32{1})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}
