package badger

import (
	"context"
	"testing"

	"github.com/poiesic/alignsearch/embedding"
	"github.com/poiesic/alignsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureEmbedding(name string, rows int) *embedding.Static {
	words := make([]string, rows)
	vecs := make([][]float32, rows)
	for i := range rows {
		words[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
		vecs[i] = []float32{float32(i), 1, -float32(i) / 2}
	}
	return embedding.MustStatic(name, words, vecs...)
}

func TestEmbeddingRepository(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	// small chunks so every table spans several keys
	repo := NewEmbeddingRepository(backend, 4)

	t.Run("save and load across chunks", func(t *testing.T) {
		e := fixtureEmbedding("fasttext", 10)
		require.NoError(t, repo.SaveEmbedding(ctx, e))

		loaded, err := repo.LoadEmbedding(ctx, "fasttext")
		require.NoError(t, err)
		assert.Equal(t, "fasttext", loaded.Name())
		assert.Equal(t, e.Words(), loaded.Words())
		assert.Equal(t, e.Vectors().Dim(), loaded.Vectors().Dim())
		assert.Equal(t, e.Vectors().Table(), loaded.Vectors().Table())
		assert.Nil(t, loaded.Vectors().Unmodified())
		assert.Equal(t, int32(7), loaded.TokenID(e.Words()[7]))
	})

	t.Run("keeps unmodified table", func(t *testing.T) {
		vectors, err := embedding.NewWordVectors(2, []float32{0.6, 0.8, 1, 0})
		require.NoError(t, err)
		vectors, err = vectors.WithUnmodified([]float32{3, 4, 2, 0})
		require.NoError(t, err)
		e, err := embedding.NewStatic("scaled", []string{"x", "y"}, vectors)
		require.NoError(t, err)
		require.NoError(t, repo.SaveEmbedding(ctx, e))

		loaded, err := repo.LoadEmbedding(ctx, "scaled")
		require.NoError(t, err)
		assert.Equal(t, []float32{3, 4, 2, 0}, loaded.Vectors().Unmodified())
		assert.InDelta(t, 5, loaded.Vectors().Magnitude(0), 1e-6)
	})

	t.Run("save replaces", func(t *testing.T) {
		require.NoError(t, repo.SaveEmbedding(ctx, fixtureEmbedding("glove", 9)))
		require.NoError(t, repo.SaveEmbedding(ctx, fixtureEmbedding("glove", 3)))

		loaded, err := repo.LoadEmbedding(ctx, "glove")
		require.NoError(t, err)
		assert.Equal(t, 3, loaded.Vectors().Rows())
	})

	t.Run("list", func(t *testing.T) {
		names, err := repo.ListEmbeddings(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"fasttext", "glove", "scaled"}, names)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteEmbedding(ctx, "glove"))
		_, err := repo.LoadEmbedding(ctx, "glove")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteEmbedding(ctx, "glove"), storage.ErrNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.LoadEmbedding(ctx, "word2vec")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("invalid names", func(t *testing.T) {
		_, err := repo.LoadEmbedding(ctx, "")
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
		err = repo.SaveEmbedding(ctx, fixtureEmbedding("a:b", 1))
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
	})
}
