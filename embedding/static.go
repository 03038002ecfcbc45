package embedding

import (
	"fmt"

	"github.com/poiesic/alignsearch/core"
)

// Embedding is a named token → vector table.
type Embedding interface {
	Name() string
	Vectors() *WordVectors
	TokenID(token string) int32
	MapVocabulary(vocab *core.Vocabulary) *VocabularyToEmbedding
}

// Static is an Embedding backed by a fixed token list and vector table.
type Static struct {
	name    string
	words   []string
	tokens  map[string]int32
	vectors *WordVectors
}

// NewStatic creates a static embedding. words[i] is the token of vectors row i.
func NewStatic(name string, words []string, vectors *WordVectors) (*Static, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyEmbedding, name)
	}
	if len(words) != vectors.Rows() {
		return nil, fmt.Errorf("%w: %s has %d tokens but %d vectors",
			ErrDimensionMismatch, name, len(words), vectors.Rows())
	}
	tokens := make(map[string]int32, len(words))
	for i, w := range words {
		tokens[w] = int32(i)
	}
	return &Static{name: name, words: words, tokens: tokens, vectors: vectors}, nil
}

func (s *Static) Name() string { return s.name }

func (s *Static) Vectors() *WordVectors { return s.vectors }

// Words returns the token of every row.
func (s *Static) Words() []string { return s.words }

// TokenID returns the row of token or -1.
func (s *Static) TokenID(token string) int32 {
	if id, ok := s.tokens[token]; ok {
		return id
	}
	return -1
}

// MapVocabulary resolves every vocabulary token to a row of this embedding,
// one mapping block per vocabulary block.
func (s *Static) MapVocabulary(vocab *core.Vocabulary) *VocabularyToEmbedding {
	m := &VocabularyToEmbedding{}
	for _, block := range vocab.Blocks() {
		mapped := make([]int32, len(block))
		for i, tok := range block {
			mapped[i] = s.TokenID(tok)
		}
		m.Append(mapped)
	}
	return m
}
