package embedding

import "math"

// Matrix is a dense row-major float matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// NewMatrix allocates a zeroed rows × cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// At returns the value at (i, j).
func (m *Matrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// Set stores v at (i, j).
func (m *Matrix) Set(i, j int, v float32) {
	m.Data[i*m.Cols+j] = v
}

// Row returns row i without copying.
func (m *Matrix) Row(i int) []float32 {
	at := i * m.Cols
	return m.Data[at : at+m.Cols]
}

// Pow raises every cell to the power e in place. Negative cells become 0
// unless e is 1.
func (m *Matrix) Pow(e float32) {
	if e == 1 {
		return
	}
	p := float64(e)
	for i, x := range m.Data {
		m.Data[i] = float32(math.Pow(float64(max(x, 0)), p))
	}
}

// Threshold zeroes every cell below t in place.
func (m *Matrix) Threshold(t float32) {
	if t <= 0 {
		return
	}
	for i, x := range m.Data {
		if x < t {
			m.Data[i] = 0
		}
	}
}

// Good reports whether the matrix has cells and at least one of them is non-zero.
func (m *Matrix) Good() bool {
	if m.Rows == 0 || m.Cols == 0 {
		return false
	}
	for _, x := range m.Data {
		if x != 0 {
			return true
		}
	}
	return false
}

// Lerp returns (1-t)·a + t·b. Both matrices must have the same shape.
func Lerp(a, b *Matrix, t float32) *Matrix {
	out := NewMatrix(a.Rows, a.Cols)
	for i := range out.Data {
		out.Data[i] = (1-t)*a.Data[i] + t*b.Data[i]
	}
	return out
}

// Min returns the cell-wise minimum of a and b.
func Min(a, b *Matrix) *Matrix {
	out := NewMatrix(a.Rows, a.Cols)
	for i := range out.Data {
		out.Data[i] = min(a.Data[i], b.Data[i])
	}
	return out
}

// Max returns the cell-wise maximum of a and b.
func Max(a, b *Matrix) *Matrix {
	out := NewMatrix(a.Rows, a.Cols)
	for i := range out.Data {
		out.Data[i] = max(a.Data[i], b.Data[i])
	}
	return out
}
