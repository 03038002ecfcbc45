package embedding

import (
	"fmt"

	"github.com/poiesic/alignsearch/core"
)

// VocabularyToEmbedding maps corpus vocabulary ids to embedding row ids.
// It is stored in blocks that mirror the vocabulary's blocks; -1 marks a
// vocabulary token the embedding does not know.
type VocabularyToEmbedding struct {
	blocks [][]int32
}

// Append adds one block of mapped ids.
func (m *VocabularyToEmbedding) Append(block []int32) {
	m.blocks = append(m.blocks, block)
}

// Size returns the total number of mapped vocabulary ids.
func (m *VocabularyToEmbedding) Size() int {
	n := 0
	for _, b := range m.blocks {
		n += len(b)
	}
	return n
}

// Iterate calls fn for every block together with the vocabulary id of its first entry.
func (m *VocabularyToEmbedding) Iterate(fn func(block []int32, offset int)) {
	offset := 0
	for _, b := range m.blocks {
		fn(b, offset)
		offset += len(b)
	}
}

// Lookup resolves a vocabulary id. ok is false when id lies outside every block.
func (m *VocabularyToEmbedding) Lookup(id int32) (mapped int32, ok bool) {
	if id < 0 {
		return -1, false
	}
	r := int(id)
	for _, b := range m.blocks {
		if r < len(b) {
			return b[r], true
		}
		r -= len(b)
	}
	return -1, false
}

// Needle is a query's tokens expressed as vocabulary ids and as embedding ids.
type Needle struct {
	VocabularyIDs []int32
	EmbeddingIDs  []int32
}

// NewNeedle maps query tokens through m. Tokens with a negative id are
// out-of-vocabulary and map to -1. A non-negative id outside the mapping
// means the vocabulary and the mapping disagree.
func NewNeedle(m *VocabularyToEmbedding, tokens []core.Token) (*Needle, error) {
	n := &Needle{
		VocabularyIDs: make([]int32, len(tokens)),
		EmbeddingIDs:  make([]int32, len(tokens)),
	}
	for j, t := range tokens {
		n.VocabularyIDs[j] = t.ID
		if t.ID < 0 {
			n.EmbeddingIDs[j] = -1
			continue
		}
		mapped, ok := m.Lookup(t.ID)
		if !ok {
			return nil, fmt.Errorf("%w: query token %d has vocabulary id %d beyond mapping size %d",
				core.ErrInconsistentVocabulary, j, t.ID, m.Size())
		}
		n.EmbeddingIDs[j] = mapped
	}
	return n, nil
}

// Len returns the number of query tokens.
func (n *Needle) Len() int {
	return len(n.VocabularyIDs)
}
