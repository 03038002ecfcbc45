package openai

import (
	"testing"

	"github.com/poiesic/alignsearch/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		embedder, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost("http://localhost:11434")))
		require.NoError(t, err)
		assert.NotNil(t, embedder)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		_, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingModel("")))
		assert.ErrorContains(t, err, "EmbeddingModel")
	})
}
