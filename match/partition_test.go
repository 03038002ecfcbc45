package match

import (
	"testing"

	"github.com/poiesic/alignsearch/core"
	"github.com/stretchr/testify/assert"
)

func TestPartitionSpans(t *testing.T) {
	doc := &core.Document{
		Tokens: make([]core.Token, 7),
		Sentences: []core.Sentence{
			{TokenAt: 0, NTokens: 3},
			{TokenAt: 3, NTokens: 0},
			{TokenAt: 3, NTokens: 4},
		},
	}

	t.Run("single sentences", func(t *testing.T) {
		p := Partition{Level: LevelSentence, WindowSize: 1, WindowStep: 1}
		assert.Equal(t, []core.Span{
			{Id: 0, TokenAt: 0, Len: 3},
			{Id: 1, TokenAt: 3, Len: 0},
			{Id: 2, TokenAt: 3, Len: 4},
		}, p.Spans(doc))
	})

	t.Run("sentence windows", func(t *testing.T) {
		p := Partition{Level: LevelSentence, WindowSize: 2, WindowStep: 2}
		assert.Equal(t, []core.Span{
			{Id: 0, TokenAt: 0, Len: 3},
			{Id: 2, TokenAt: 3, Len: 4},
		}, p.Spans(doc))
	})

	t.Run("overlapping sentence windows", func(t *testing.T) {
		p := Partition{Level: LevelSentence, WindowSize: 3, WindowStep: 1}
		spans := p.Spans(doc)
		assert.Len(t, spans, 3)
		assert.Equal(t, core.Span{Id: 0, TokenAt: 0, Len: 7}, spans[0])
		assert.Equal(t, 7, MaxSpanLen(spans))
	})

	t.Run("token windows", func(t *testing.T) {
		p := Partition{Level: LevelToken, WindowSize: 3, WindowStep: 3}
		assert.Equal(t, []core.Span{
			{Id: 0, TokenAt: 0, Len: 3},
			{Id: 1, TokenAt: 3, Len: 3},
			{Id: 2, TokenAt: 6, Len: 1},
		}, p.Spans(doc))
	})
}
