package match

import (
	"testing"

	"github.com/poiesic/alignsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(doc core.ID, span int, score float32) *core.Match {
	return &core.Match{Digest: core.MatchDigest{Document: doc, Span: span}, Score: score}
}

func scores(matches []*core.Match) []float32 {
	out := make([]float32, len(matches))
	for i, m := range matches {
		out[i] = m.Score
	}
	return out
}

func TestResultSet(t *testing.T) {
	t.Run("keeps the best matches in descending order", func(t *testing.T) {
		rs := NewResultSet(3, 0.1)
		for i, s := range []float32{0.5, 0.9, 0.3, 0.7, 0.6} {
			rs.Add(scored(1, i, s))
		}
		require.Equal(t, 3, rs.Len())
		assert.Equal(t, []float32{0.9, 0.7, 0.6}, scores(rs.Matches()))
		assert.Equal(t, float32(0.6), rs.WorstScore())
	})

	t.Run("worst score is the floor until full", func(t *testing.T) {
		rs := NewResultSet(2, 0.2)
		assert.Equal(t, float32(0.2), rs.WorstScore())
		rs.Add(scored(1, 0, 0.8))
		assert.Equal(t, float32(0.2), rs.WorstScore())
		rs.Add(scored(1, 1, 0.4))
		assert.Equal(t, float32(0.4), rs.WorstScore())
	})

	t.Run("rejects below floor and below worst", func(t *testing.T) {
		rs := NewResultSet(1, 0.2)
		assert.False(t, rs.Add(scored(1, 0, 0.1)))
		assert.True(t, rs.Add(scored(1, 1, 0.5)))
		assert.False(t, rs.Add(scored(1, 2, 0.5)))
		assert.False(t, rs.Add(scored(1, 3, 0.4)))
		assert.True(t, rs.Add(scored(1, 4, 0.6)))
		assert.Equal(t, 4, rs.Matches()[0].Digest.Span)
	})

	t.Run("non-positive capacity keeps one match", func(t *testing.T) {
		rs := NewResultSet(-5, 0)
		assert.Equal(t, 1, rs.MaxMatches())
		assert.True(t, rs.Add(scored(1, 0, 0.3)))
		assert.True(t, rs.Add(scored(1, 1, 0.4)))
		assert.Equal(t, 1, rs.Len())
	})

	t.Run("best n", func(t *testing.T) {
		rs := NewResultSet(10, 0)
		for i, s := range []float32{0.2, 0.4, 0.3} {
			rs.Add(scored(1, i, s))
		}
		assert.Equal(t, []float32{0.4, 0.3}, scores(rs.BestN(2)))
		assert.Len(t, rs.BestN(10), 3)
	})

	t.Run("ties order by document then span", func(t *testing.T) {
		rs := NewResultSet(10, 0)
		rs.Add(scored(2, 0, 0.5))
		rs.Add(scored(1, 3, 0.5))
		rs.Add(scored(1, 1, 0.5))
		got := rs.Matches()
		assert.Equal(t, core.ID(1), got[0].Digest.Document)
		assert.Equal(t, 1, got[0].Digest.Span)
		assert.Equal(t, 3, got[1].Digest.Span)
		assert.Equal(t, core.ID(2), got[2].Digest.Document)
	})

	t.Run("extend merges", func(t *testing.T) {
		a := NewResultSet(2, 0)
		a.Add(scored(1, 0, 0.3))
		b := NewResultSet(2, 0)
		b.Add(scored(2, 0, 0.9))
		b.Add(scored(2, 1, 0.1))
		a.Extend(b)
		assert.Equal(t, []float32{0.9, 0.3}, scores(a.Matches()))
	})
}
