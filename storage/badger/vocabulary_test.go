package badger

import (
	"context"
	"testing"

	"github.com/poiesic/alignsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularyRepository(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		repos.Close()
		backend.Close()
	}()
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		vocab, err := repos.Vocabulary.LoadVocabulary(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, vocab.Size())
	})

	vocab := core.NewVocabulary()
	vocab.Add("the", "cat", "sat")
	_, err = vocab.AddTag("NN")
	require.NoError(t, err)
	_, err = vocab.AddPOS("NOUN")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, repos.Vocabulary.SaveVocabulary(ctx, vocab))

		loaded, err := repos.Vocabulary.LoadVocabulary(ctx)
		require.NoError(t, err)
		assert.Equal(t, vocab.Blocks(), loaded.Blocks())
		assert.Equal(t, []string{"NN"}, loaded.Tags())
		assert.Equal(t, []string{"NOUN"}, loaded.POS())
		assert.Equal(t, vocab.ID("cat"), loaded.ID("cat"))
	})

	t.Run("appends new blocks", func(t *testing.T) {
		vocab.Add("cat", "mat")
		_, err := vocab.AddTag("VB")
		require.NoError(t, err)
		require.NoError(t, repos.Vocabulary.SaveVocabulary(ctx, vocab))

		loaded, err := repos.Vocabulary.LoadVocabulary(ctx)
		require.NoError(t, err)
		require.Len(t, loaded.Blocks(), 2)
		assert.Equal(t, []string{"mat"}, loaded.Blocks()[1])
		assert.Equal(t, int32(3), loaded.ID("mat"))
		assert.Equal(t, []string{"NN", "VB"}, loaded.Tags())
	})

	t.Run("rejects a shorter vocabulary", func(t *testing.T) {
		other := core.NewVocabulary()
		other.Add("dog")
		err := repos.Vocabulary.SaveVocabulary(ctx, other)
		assert.ErrorIs(t, err, core.ErrInconsistentVocabulary)
	})
}
