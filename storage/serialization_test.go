package storage

import (
	"math"
	"testing"

	"github.com/poiesic/alignsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(math.MaxUint64)},
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  *core.Document
	}{
		{
			name: "empty document",
			doc:  &core.Document{Id: 7, Title: ""},
		},
		{
			name: "tokens and sentences",
			doc: &core.Document{
				Id:    core.IDFromContent("the cat sat"),
				Title: "Fables",
				Tokens: []core.Token{
					{ID: 0, Tag: 1, POS: 0},
					{ID: 12345, Tag: core.NoTag, POS: core.NoTag},
					{ID: -1, Tag: 63, POS: 2},
				},
				Sentences: []core.Sentence{{TokenAt: 0, NTokens: 2}, {TokenAt: 2, NTokens: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalDocument(MarshalDocument(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.doc, decoded)
		})
	}
}

func TestUnmarshalDocument_Truncated(t *testing.T) {
	doc := &core.Document{
		Id:        1,
		Title:     "long enough title",
		Tokens:    []core.Token{{ID: 1}, {ID: 2}, {ID: 3}},
		Sentences: []core.Sentence{{TokenAt: 0, NTokens: 3}},
	}
	data := MarshalDocument(doc)

	for _, cut := range []int{0, 1, 5, len(data) - 1} {
		_, err := UnmarshalDocument(data[:cut])
		assert.ErrorIs(t, err, ErrSerializationFailed, "cut at %d", cut)
	}
}

func TestUnmarshalDocument_TrailingBytes(t *testing.T) {
	data := append(MarshalDocument(&core.Document{Id: 1}), 0)
	_, err := UnmarshalDocument(data)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalStrings(t *testing.T) {
	for _, ss := range [][]string{nil, {"a"}, {"", "naïve", "über"}} {
		decoded, err := UnmarshalStrings(MarshalStrings(ss))
		require.NoError(t, err)
		assert.Equal(t, ss, decoded)
	}
}

func TestMarshalUnmarshalEmbedding(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		h := &EmbeddingHeader{Name: "glove", Dim: 300, Rows: 4001, ChunkRows: 1000, HasUnmodified: true}
		decoded, err := UnmarshalEmbeddingHeader(MarshalEmbeddingHeader(h))
		require.NoError(t, err)
		assert.Equal(t, h, decoded)
		assert.Equal(t, 5, decoded.Chunks())
	})

	t.Run("chunk", func(t *testing.T) {
		c := &EmbeddingChunk{
			Words:   []string{"cat", "dog"},
			Vectors: []float32{0, 1, -1.5, float32(math.Inf(1))},
		}
		decoded, err := UnmarshalEmbeddingChunk(MarshalEmbeddingChunk(c))
		require.NoError(t, err)
		assert.Equal(t, c, decoded)
	})

	t.Run("chunk with unmodified table", func(t *testing.T) {
		c := &EmbeddingChunk{
			Words:      []string{"x"},
			Vectors:    []float32{0.6, 0.8},
			Unmodified: []float32{3, 4},
		}
		decoded, err := UnmarshalEmbeddingChunk(MarshalEmbeddingChunk(c))
		require.NoError(t, err)
		assert.Equal(t, c, decoded)
	})
}
