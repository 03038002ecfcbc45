package embedding

import (
	"testing"

	"github.com/poiesic/alignsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	m := NewMatrix(1, 3)
	copy(m.Data, []float32{0.25, 0.5, 1})
	assert.True(t, m.Good())

	m.Pow(2)
	assert.InDeltaSlice(t, []float32{0.0625, 0.25, 1}, m.Data, 1e-6)

	m.Threshold(0.2)
	assert.InDeltaSlice(t, []float32{0, 0.25, 1}, m.Data, 1e-6)

	signed := NewMatrix(1, 2)
	copy(signed.Data, []float32{-0.5, 0.25})
	signed.Pow(0.5)
	assert.InDeltaSlice(t, []float32{0, 0.5}, signed.Data, 1e-6)

	assert.False(t, NewMatrix(2, 2).Good())
	assert.False(t, NewMatrix(0, 2).Good())

	a := &Matrix{Rows: 1, Cols: 2, Data: []float32{0, 1}}
	b := &Matrix{Rows: 1, Cols: 2, Data: []float32{1, 0.5}}
	assert.InDeltaSlice(t, []float32{0.5, 0.75}, Lerp(a, b, 0.5).Data, 1e-6)
	assert.Equal(t, []float32{0, 0.5}, Min(a, b).Data)
	assert.Equal(t, []float32{1, 1}, Max(a, b).Data)
}

func TestNeedle(t *testing.T) {
	m := &VocabularyToEmbedding{}
	m.Append([]int32{4, -1})
	m.Append([]int32{7})
	assert.Equal(t, 3, m.Size())

	n, err := NewNeedle(m, []core.Token{{ID: 2}, {ID: 1}, {ID: -1}})
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 1, -1}, n.VocabularyIDs)
	assert.Equal(t, []int32{7, -1, -1}, n.EmbeddingIDs)

	_, err = NewNeedle(m, []core.Token{{ID: 3}})
	assert.ErrorIs(t, err, core.ErrInconsistentVocabulary)
}

func TestBuildSimilarityMatrix(t *testing.T) {
	emb := MustStatic("test", []string{"a", "b", "c"},
		[]float32{1, 0},
		[]float32{0, 1},
		[]float32{1, 1},
	)
	vocab := core.NewVocabulary()
	// "z" has no vector in the embedding
	vocab.Add("a", "b", "c", "z")
	mapping := emb.MapVocabulary(vocab)

	t.Run("exact match forced to one", func(t *testing.T) {
		needle, err := NewNeedle(mapping, []core.Token{{ID: vocab.ID("z")}, {ID: vocab.ID("a")}})
		require.NoError(t, err)

		sm := BuildSimilarityMatrix(emb.Vectors(), Cosine{}, mapping, needle, BuildOptions{})
		require.Equal(t, 4, sm.Values.Rows)
		require.Equal(t, 2, sm.Values.Cols)

		// "z" has no vector, but the vocabulary token itself matches
		assert.Equal(t, float32(1), sm.Values.At(3, 0))
		assert.Equal(t, float32(0), sm.Values.At(0, 0))
		assert.InDelta(t, 1, sm.Values.At(0, 1), 1e-6)
		assert.InDelta(t, 0.70710677, sm.Values.At(2, 1), 1e-6)
		assert.Equal(t, float32(0), sm.Values.At(3, 1))

		assert.InDelta(t, 1.4142135, sm.SourceNorms[2], 1e-6)
		assert.Equal(t, float32(0), sm.SourceNorms[3])
		assert.Equal(t, []float32{0, 1}, sm.QueryNorms)
	})

	t.Run("out of vocabulary query token", func(t *testing.T) {
		needle, err := NewNeedle(mapping, []core.Token{{ID: -1}})
		require.NoError(t, err)
		sm := BuildSimilarityMatrix(emb.Vectors(), Cosine{}, mapping, needle, BuildOptions{})
		assert.False(t, sm.Values.Good())
	})

	t.Run("falloff then threshold", func(t *testing.T) {
		needle, err := NewNeedle(mapping, []core.Token{{ID: vocab.ID("a")}})
		require.NoError(t, err)
		sm := BuildSimilarityMatrix(emb.Vectors(), Cosine{}, mapping, needle,
			BuildOptions{Falloff: 2, Threshold: 0.6})
		assert.Equal(t, float32(1), sm.Values.At(0, 0))
		assert.Equal(t, float32(0), sm.Values.At(1, 0))
		// 0.7071² = 0.5 falls under the threshold
		assert.Equal(t, float32(0), sm.Values.At(2, 0))
	})
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "straße", NormalizeToken("  Straße "))
	// full-width letters fold under NFKC
	assert.Equal(t, "abc", NormalizeToken("ＡＢＣ"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.Default()
	assert.ErrorIs(t, err, core.ErrUnknownEmbedding)

	first := MustStatic("first", []string{"a"}, []float32{1})
	second := MustStatic("second", []string{"a"}, []float32{1})
	r.Add(first)
	r.Add(second)

	e, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, "first", e.Name())

	e, err = r.Lookup("second")
	require.NoError(t, err)
	assert.Same(t, second, e)

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, core.ErrUnknownEmbedding)
	assert.Equal(t, []string{"first", "second"}, r.Names())
}
