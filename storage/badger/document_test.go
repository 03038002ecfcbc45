package badger

import (
	"context"
	"testing"

	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument(title string, ids ...int32) *core.Document {
	doc := &core.Document{Title: title}
	for _, id := range ids {
		doc.Tokens = append(doc.Tokens, core.Token{ID: id, Tag: core.NoTag, POS: core.NoTag})
	}
	doc.Sentences = []core.Sentence{{TokenAt: 0, NTokens: len(ids)}}
	return doc
}

func TestDocumentRepository(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		repos.Close()
		backend.Close()
	}()
	ctx := context.Background()
	docs := repos.Documents

	added, err := docs.AddDocuments(ctx,
		sampleDocument("one", 1, 2, 3),
		sampleDocument("two", 4, 5),
		&core.Document{Id: core.IDFromContent("three"), Title: "three"},
	)
	require.NoError(t, err)
	require.Len(t, added, 3)
	assert.NotZero(t, added[0].Id)
	assert.NotZero(t, added[1].Id)
	assert.NotEqual(t, added[0].Id, added[1].Id)
	assert.Equal(t, core.IDFromContent("three"), added[2].Id)

	t.Run("get", func(t *testing.T) {
		doc, err := docs.GetDocument(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, added[0], doc)

		_, err = docs.GetDocument(ctx, core.ID(999999))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("count", func(t *testing.T) {
		n, err := docs.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("for each in id order", func(t *testing.T) {
		var seen []core.ID
		err := docs.ForEachDocument(ctx, func(doc *core.Document) error {
			seen = append(seen, doc.Id)
			return nil
		})
		require.NoError(t, err)
		require.Len(t, seen, 3)
		assert.IsIncreasing(t, []uint64{uint64(seen[0]), uint64(seen[1]), uint64(seen[2])})
	})

	t.Run("for each stops on error", func(t *testing.T) {
		calls := 0
		err := docs.ForEachDocument(ctx, func(doc *core.Document) error {
			calls++
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, calls)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := docs.AddDocuments(ctx, &core.Document{Id: added[2].Id})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("invalid document", func(t *testing.T) {
		bad := &core.Document{Sentences: []core.Sentence{{TokenAt: 0, NTokens: 2}}}
		_, err := docs.AddDocuments(ctx, bad)
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, docs.DeleteDocuments(ctx, added[1].Id))
		_, err := docs.GetDocument(ctx, added[1].Id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, docs.DeleteDocuments(ctx, added[1].Id), storage.ErrNotFound)

		n, err := docs.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}
