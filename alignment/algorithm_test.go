package alignment

import (
	"math"
	"testing"

	"github.com/poiesic/alignsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"default", DefaultConfig(), AlgorithmWSB},
		{"rwmd", Config{Name: AlgorithmRWMD}, AlgorithmRWMD},
		{"wrd", Config{Name: AlgorithmWRD}, AlgorithmWRD},
		{"wsb with table", Config{Name: AlgorithmWSB, Gap: TableGap{0, 0.2, 0.5}}, AlgorithmWSB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Name())
		})
	}

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := New(Config{Name: "needleman-wunsch"})
		assert.ErrorIs(t, err, core.ErrUnsupportedAlgorithm)
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.Contains(t, err.Error(), "needleman-wunsch")
	})

	t.Run("invalid gap", func(t *testing.T) {
		_, err := New(Config{Name: AlgorithmWSB, Gap: TableGap{}})
		assert.ErrorIs(t, err, ErrInvalidGap)
		assert.ErrorIs(t, err, core.ErrInvalidOptionValue)
	})

	t.Run("rwmd flags", func(t *testing.T) {
		a, err := New(Config{Name: AlgorithmRWMD, NormalizeBOW: true, OneTarget: true, POSAware: true})
		require.NoError(t, err)
		r := a.(*RelaxedWordMoversDistance)
		assert.True(t, r.NormalizeBOW)
		assert.False(t, r.Symmetric)
		assert.True(t, r.OneTarget)
		assert.True(t, r.POSAware)
	})
}

func TestGapCost(t *testing.T) {
	assert.Equal(t, float32(0.3), ConstantGap(0.3).Cost(5))
	assert.InDelta(t, 0.6, LinearGap(0.2).Cost(3), 1e-6)
	assert.InDelta(t, 0.5, ExponentialGap{Cutoff: 2}.Cost(2), 1e-6)

	table := TableGap{0, 0.1, 0.4}
	assert.Equal(t, float32(0.1), table.Cost(1))
	assert.Equal(t, float32(0.4), table.Cost(2))
	assert.Equal(t, float32(0.4), table.Cost(9))
	assert.True(t, math.IsInf(float64(NoGaps().Cost(1)), 1))

	assert.NoError(t, ValidateGap(table))
	assert.NoError(t, ValidateGap(NoGaps()))
	assert.ErrorIs(t, ValidateGap(TableGap{0.5, 0.1}), ErrInvalidGap)
	assert.ErrorIs(t, ValidateGap(LinearGap(-1)), ErrInvalidGap)
	assert.ErrorIs(t, ValidateGap(ExponentialGap{}), ErrInvalidGap)
	assert.ErrorIs(t, ValidateGap(nil), ErrInvalidGap)
}
