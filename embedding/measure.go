package embedding

import (
	"fmt"
	"math"

	"github.com/poiesic/alignsearch/core"
)

// Measure names accepted by NewMeasure.
const (
	MeasureCosine         = "cosine"
	MeasureZhuCosine      = "zhu-cosine"
	MeasureSohangirCosine = "sohangir-cosine"
	MeasurePNorm          = "p-norm"
)

// Measure is a pure pairwise token similarity over a WordVectors table.
//
// Fill evaluates the measure for every (rows[i], cols[j]) pair and writes the
// result to out at (rowOffset+i, j). Negative ids are out-of-vocabulary and
// yield 0, as do non-finite results.
type Measure interface {
	Name() string
	Similarity(v *WordVectors, s, t int32) float32
	Fill(v *WordVectors, rows, cols []int32, rowOffset int, out *Matrix)
}

// MeasureSpec selects and parameterizes a Measure.
type MeasureSpec struct {
	Name  string  `yaml:"name"`
	P     float32 `yaml:"p"`
	Scale float32 `yaml:"scale"`
}

// DefaultMeasureSpec returns the cosine measure.
func DefaultMeasureSpec() MeasureSpec {
	return MeasureSpec{Name: MeasureCosine, P: 2, Scale: 1}
}

// NewMeasure instantiates the measure named by spec.
func NewMeasure(spec MeasureSpec) (Measure, error) {
	switch spec.Name {
	case MeasureCosine:
		return Cosine{}, nil
	case MeasureZhuCosine:
		return ZhuCosine{}, nil
	case MeasureSohangirCosine:
		return SohangirCosine{}, nil
	case MeasurePNorm:
		p, scale := spec.P, spec.Scale
		if p == 0 {
			p = 2
		}
		if scale == 0 {
			scale = 1
		}
		return PNorm{P: p, Scale: scale}, nil
	default:
		return nil, fmt.Errorf("%w %s", core.ErrUnsupportedMetric, spec.Name)
	}
}

func finite(x float32) float32 {
	if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
		return 0
	}
	return x
}

// Cosine is the dot product of normalized rows.
type Cosine struct{}

func (Cosine) Name() string { return MeasureCosine }

func (Cosine) Similarity(v *WordVectors, s, t int32) float32 {
	return dot(v.Normalized(s), v.Normalized(t))
}

func (c Cosine) Fill(v *WordVectors, rows, cols []int32, rowOffset int, out *Matrix) {
	for i, s := range rows {
		dst := out.Row(rowOffset + i)
		if s < 0 {
			clear(dst)
			continue
		}
		a := v.Normalized(s)
		for j, t := range cols {
			if t < 0 {
				dst[j] = 0
				continue
			}
			dst[j] = finite(dot(a, v.Normalized(t)))
		}
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for k, x := range a {
		sum += x * b[k]
	}
	return sum
}

// ZhuCosine is the square-root scaled cosine of Zhu et al.:
// Σ sqrt(a_k·b_k) / (Σa · Σb) over normalized rows.
type ZhuCosine struct{}

func (ZhuCosine) Name() string { return MeasureZhuCosine }

func (ZhuCosine) Similarity(v *WordVectors, s, t int32) float32 {
	a, b := v.Normalized(s), v.Normalized(t)
	return sqrtProductSum(a, b) / (sum(a) * sum(b))
}

func (z ZhuCosine) Fill(v *WordVectors, rows, cols []int32, rowOffset int, out *Matrix) {
	colSums := make([]float32, len(cols))
	for j, t := range cols {
		if t >= 0 {
			colSums[j] = sum(v.Normalized(t))
		}
	}
	for i, s := range rows {
		dst := out.Row(rowOffset + i)
		if s < 0 {
			clear(dst)
			continue
		}
		a := v.Normalized(s)
		sa := sum(a)
		for j, t := range cols {
			if t < 0 {
				dst[j] = 0
				continue
			}
			dst[j] = finite(sqrtProductSum(a, v.Normalized(t)) / (sa * colSums[j]))
		}
	}
}

// SohangirCosine is the square-root cosine of Sohangir & Wang:
// Σ sqrt(a_k·b_k) over raw rows / (sqrt(Σâ) · sqrt(Σb̂)) over normalized rows.
type SohangirCosine struct{}

func (SohangirCosine) Name() string { return MeasureSohangirCosine }

func (SohangirCosine) Similarity(v *WordVectors, s, t int32) float32 {
	num := sqrtProductSum(v.Raw(s), v.Raw(t))
	den := sqrt32(sum(v.Normalized(s))) * sqrt32(sum(v.Normalized(t)))
	return num / den
}

func (h SohangirCosine) Fill(v *WordVectors, rows, cols []int32, rowOffset int, out *Matrix) {
	colDen := make([]float32, len(cols))
	for j, t := range cols {
		if t >= 0 {
			colDen[j] = sqrt32(sum(v.Normalized(t)))
		}
	}
	for i, s := range rows {
		dst := out.Row(rowOffset + i)
		if s < 0 {
			clear(dst)
			continue
		}
		a := v.Raw(s)
		da := sqrt32(sum(v.Normalized(s)))
		for j, t := range cols {
			if t < 0 {
				dst[j] = 0
				continue
			}
			dst[j] = finite(sqrtProductSum(a, v.Raw(t)) / (da * colDen[j]))
		}
	}
}

func sqrtProductSum(a, b []float32) float32 {
	var s float32
	for k, x := range a {
		s += sqrt32(x * b[k])
	}
	return s
}

func sum(a []float32) float32 {
	var s float32
	for _, x := range a {
		s += x
	}
	return s
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// PNorm turns the p-norm distance of raw rows into a similarity:
// max(0, 1 - Scale·‖u-v‖_p).
type PNorm struct {
	P     float32
	Scale float32
}

func (PNorm) Name() string { return MeasurePNorm }

func (m PNorm) Similarity(v *WordVectors, s, t int32) float32 {
	return m.similarity(v.Raw(s), v.Raw(t))
}

func (m PNorm) similarity(a, b []float32) float32 {
	p := float64(m.P)
	var acc float64
	if p == 2 {
		for k, x := range a {
			d := float64(x - b[k])
			acc += d * d
		}
		acc = math.Sqrt(acc)
	} else {
		for k, x := range a {
			acc += math.Pow(math.Abs(float64(x-b[k])), p)
		}
		acc = math.Pow(acc, 1/p)
	}
	return max(0, 1-float32(acc)*m.Scale)
}

func (m PNorm) Fill(v *WordVectors, rows, cols []int32, rowOffset int, out *Matrix) {
	for i, s := range rows {
		dst := out.Row(rowOffset + i)
		if s < 0 {
			clear(dst)
			continue
		}
		a := v.Raw(s)
		for j, t := range cols {
			if t < 0 {
				dst[j] = 0
				continue
			}
			dst[j] = finite(m.similarity(a, v.Raw(t)))
		}
	}
}
