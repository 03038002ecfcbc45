package alignment

import "github.com/poiesic/alignsearch/core"

// Unmatched marks a query position without an aligned source token.
const Unmatched = core.Unmatched

// Slice is the view an Algorithm aligns: a source span of LenS tokens against
// a query of LenT tokens. Indices are span-relative.
type Slice interface {
	LenS() int
	LenT() int
	// Similarity of source token i to query token j.
	Similarity(i, j int) float32
	SourceToken(i int) core.Token
	QueryToken(j int) core.Token
	// MagnitudeS and MagnitudeT are embedding vector norms, 0 when unknown.
	MagnitudeS(i int) float32
	MagnitudeT(j int) float32
	// Weight is the normalization weight of query token j.
	Weight(j int) float32
}

// Result is the outcome of one alignment. Match has one entry per query
// position holding a source index or Unmatched.
type Result struct {
	Score float32
	Match []int
}

// TotalWeight sums the query weights of s.
func TotalWeight(s Slice) float32 {
	var w float32
	for j := 0; j < s.LenT(); j++ {
		w += s.Weight(j)
	}
	return w
}

type reversed struct {
	s Slice
}

// Reverse returns s with both source and query order reversed.
func Reverse(s Slice) Slice {
	if r, ok := s.(reversed); ok {
		return r.s
	}
	return reversed{s: s}
}

func (r reversed) LenS() int { return r.s.LenS() }
func (r reversed) LenT() int { return r.s.LenT() }

func (r reversed) Similarity(i, j int) float32 {
	return r.s.Similarity(r.s.LenS()-1-i, r.s.LenT()-1-j)
}

func (r reversed) SourceToken(i int) core.Token { return r.s.SourceToken(r.s.LenS() - 1 - i) }
func (r reversed) QueryToken(j int) core.Token  { return r.s.QueryToken(r.s.LenT() - 1 - j) }
func (r reversed) MagnitudeS(i int) float32     { return r.s.MagnitudeS(r.s.LenS() - 1 - i) }
func (r reversed) MagnitudeT(j int) float32     { return r.s.MagnitudeT(r.s.LenT() - 1 - j) }
func (r reversed) Weight(j int) float32         { return r.s.Weight(r.s.LenT() - 1 - j) }

// Unreverse maps a match computed on Reverse(s) back to the orientation of s:
// query position j takes the entry of lenT-1-j, and source index u becomes lenS-1-u.
func Unreverse(match []int, lenS int) []int {
	out := make([]int, len(match))
	n := len(match)
	for j, u := range match {
		if u == Unmatched {
			out[n-1-j] = Unmatched
		} else {
			out[n-1-j] = lenS - 1 - u
		}
	}
	return out
}

// MatrixSlice is a Slice over literal values. It backs tests and simple callers.
type MatrixSlice struct {
	Values  [][]float32
	Source  []core.Token
	Query   []core.Token
	NormS   []float32
	NormT   []float32
	Weights []float32
}

func (m *MatrixSlice) LenS() int { return len(m.Values) }

func (m *MatrixSlice) LenT() int {
	if len(m.Values) == 0 {
		return len(m.Query)
	}
	return len(m.Values[0])
}

func (m *MatrixSlice) Similarity(i, j int) float32 { return m.Values[i][j] }

func (m *MatrixSlice) SourceToken(i int) core.Token {
	if m.Source == nil {
		return core.Token{ID: int32(i), Tag: core.NoTag, POS: core.NoTag}
	}
	return m.Source[i]
}

func (m *MatrixSlice) QueryToken(j int) core.Token {
	if m.Query == nil {
		return core.Token{ID: int32(-1 - j), Tag: core.NoTag, POS: core.NoTag}
	}
	return m.Query[j]
}

func (m *MatrixSlice) MagnitudeS(i int) float32 {
	if m.NormS == nil {
		return 1
	}
	return m.NormS[i]
}

func (m *MatrixSlice) MagnitudeT(j int) float32 {
	if m.NormT == nil {
		return 1
	}
	return m.NormT[j]
}

func (m *MatrixSlice) Weight(j int) float32 {
	if m.Weights == nil {
		return 1
	}
	return m.Weights[j]
}
