package embedding

import (
	"fmt"
	"math"
)

// WordVectors is an immutable embedding table with one row per embedding token.
// Raw holds the vectors as loaded, Normalized their L2-normalized copies.
// Unmodified optionally holds the vectors before any preprocessing and is used
// for magnitudes when present.
type WordVectors struct {
	dim        int
	rows       int
	raw        []float32
	normalized []float32
	unmodified []float32
}

// NewWordVectors builds a table from row-major raw vectors.
// Rows with zero norm keep a zero normalized row.
func NewWordVectors(dim int, raw []float32) (*WordVectors, error) {
	if dim <= 0 || len(raw)%dim != 0 {
		return nil, fmt.Errorf("%w: %d values, dimension %d", ErrDimensionMismatch, len(raw), dim)
	}
	w := &WordVectors{
		dim:  dim,
		rows: len(raw) / dim,
		raw:  raw,
	}
	w.normalized = normalizeRows(raw, dim)
	return w, nil
}

// WithUnmodified attaches the pre-normalization table used for magnitudes.
func (w *WordVectors) WithUnmodified(unmodified []float32) (*WordVectors, error) {
	if len(unmodified) != len(w.raw) {
		return nil, fmt.Errorf("%w: unmodified table has %d values, expected %d",
			ErrDimensionMismatch, len(unmodified), len(w.raw))
	}
	c := *w
	c.unmodified = unmodified
	return &c, nil
}

func normalizeRows(raw []float32, dim int) []float32 {
	out := make([]float32, len(raw))
	for at := 0; at < len(raw); at += dim {
		row := raw[at : at+dim]
		n := l2Norm(row)
		if n == 0 {
			continue
		}
		inv := 1 / n
		dst := out[at : at+dim]
		for k, x := range row {
			dst[k] = x * inv
		}
	}
	return out
}

func l2Norm(v []float32) float32 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return float32(math.Sqrt(s))
}

// Dim returns the vector dimension.
func (w *WordVectors) Dim() int { return w.dim }

// Rows returns the number of vectors.
func (w *WordVectors) Rows() int { return w.rows }

// Raw returns the raw vector of row i.
func (w *WordVectors) Raw(i int32) []float32 {
	at := int(i) * w.dim
	return w.raw[at : at+w.dim]
}

// Normalized returns the unit-length vector of row i (all zeros for a zero row).
func (w *WordVectors) Normalized(i int32) []float32 {
	at := int(i) * w.dim
	return w.normalized[at : at+w.dim]
}

// Magnitude returns the L2 norm of row i, taken from the unmodified table when present.
func (w *WordVectors) Magnitude(i int32) float32 {
	at := int(i) * w.dim
	if w.unmodified != nil {
		return l2Norm(w.unmodified[at : at+w.dim])
	}
	return l2Norm(w.raw[at : at+w.dim])
}

// Table returns the row-major raw table.
func (w *WordVectors) Table() []float32 { return w.raw }

// Unmodified returns the pre-normalization table, or nil when none was attached.
func (w *WordVectors) Unmodified() []float32 { return w.unmodified }
