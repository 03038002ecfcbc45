package match

import (
	"github.com/poiesic/alignsearch/embedding"
)

// Metric provides the similarity of every corpus vocabulary token to every
// query token. Composite metrics are indistinguishable from static ones to
// the Matcher.
type Metric interface {
	Name() string
	Similarity() *embedding.SimilarityMatrix
	// Good reports whether the matrix has any non-zero cell.
	Good() bool
}

// StaticMetric is a similarity matrix built from a single embedding.
type StaticMetric struct {
	name   string
	matrix *embedding.SimilarityMatrix
	good   bool
}

// NewStaticMetric wraps a built matrix.
func NewStaticMetric(name string, matrix *embedding.SimilarityMatrix) *StaticMetric {
	return &StaticMetric{name: name, matrix: matrix, good: matrix.Values.Good()}
}

func (m *StaticMetric) Name() string { return m.name }

func (m *StaticMetric) Similarity() *embedding.SimilarityMatrix { return m.matrix }

func (m *StaticMetric) Good() bool { return m.good }

// CompositeMetric blends two metrics built over the same vocabulary and query.
type CompositeMetric struct {
	StaticMetric
	a, b Metric
	op   string
	t    float32
}

// NewCompositeMetric blends a and b cell-wise. OpLerp computes (1-t)·a + t·b,
// OpMin and OpMax ignore t. Magnitudes are blended the same way.
func NewCompositeMetric(a, b Metric, op string, t float32) *CompositeMetric {
	ma, mb := a.Similarity(), b.Similarity()
	var values *embedding.Matrix
	var blend func(x, y float32) float32
	switch op {
	case OpMin:
		values = embedding.Min(ma.Values, mb.Values)
		blend = func(x, y float32) float32 { return min(x, y) }
	case OpMax:
		values = embedding.Max(ma.Values, mb.Values)
		blend = func(x, y float32) float32 { return max(x, y) }
	default:
		op = OpLerp
		values = embedding.Lerp(ma.Values, mb.Values, t)
		blend = func(x, y float32) float32 { return (1-t)*x + t*y }
	}

	matrix := &embedding.SimilarityMatrix{
		Values:      values,
		SourceNorms: blendSlices(ma.SourceNorms, mb.SourceNorms, blend),
		QueryNorms:  blendSlices(ma.QueryNorms, mb.QueryNorms, blend),
	}
	spec := MetricSpec{Op: op, A: a.Name(), B: b.Name(), T: t}
	return &CompositeMetric{
		StaticMetric: StaticMetric{name: spec.String(), matrix: matrix, good: values.Good()},
		a:            a,
		b:            b,
		op:           op,
		t:            t,
	}
}

// Operands returns the blended metrics.
func (m *CompositeMetric) Operands() (Metric, Metric) { return m.a, m.b }

func blendSlices(a, b []float32, blend func(x, y float32) float32) []float32 {
	out := make([]float32, len(a))
	for i := range out {
		out[i] = blend(a[i], b[i])
	}
	return out
}
