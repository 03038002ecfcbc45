package alignment

const (
	stepNone int8 = iota
	stepDiagonal
	stepSkipSource
	stepSkipQuery
)

// WatermanSmithBeyer is local sequence alignment with a general gap cost.
//
// H[i][j] is the best score of an alignment ending at source i and query j.
// Cells falling below Zero reset to 0 and start a new local alignment.
type WatermanSmithBeyer struct {
	Gap  GapCost
	Zero float32

	maxS  int
	cols  int
	h     []float32
	step  []int8
	skip  []int32
	gaps  []float32
	match []int
}

// NewWatermanSmithBeyer creates the aligner. A nil gap forbids gaps.
func NewWatermanSmithBeyer(gap GapCost, zero float32) *WatermanSmithBeyer {
	if gap == nil {
		gap = NoGaps()
	}
	return &WatermanSmithBeyer{Gap: gap, Zero: zero}
}

func (w *WatermanSmithBeyer) Name() string { return AlgorithmWSB }

// Init sizes the DP table for spans up to maxLenS against queries up to maxLenT.
func (w *WatermanSmithBeyer) Init(maxLenS, maxLenT int) {
	w.maxS = maxLenS
	w.cols = maxLenT + 1
	n := (maxLenS + 1) * w.cols
	w.h = make([]float32, n)
	w.step = make([]int8, n)
	w.skip = make([]int32, n)
	w.gaps = make([]float32, max(maxLenS, maxLenT)+1)
	w.match = make([]int, maxLenT)
}

func (w *WatermanSmithBeyer) ensure(lenS, lenT int) {
	if lenS > w.maxS || lenT+1 > w.cols {
		w.Init(max(lenS, w.maxS), max(lenT, w.cols-1))
	}
}

func (w *WatermanSmithBeyer) Align(s Slice) Result {
	lenS, lenT := s.LenS(), s.LenT()
	w.ensure(lenS, lenT)
	cols := w.cols

	maxGap := max(lenS, lenT)
	for k := 1; k <= maxGap; k++ {
		w.gaps[k] = w.Gap.Cost(k)
	}
	gapsAllowed := maxGap > 0 && !isInf(w.gaps[1])

	for j := 0; j <= lenT; j++ {
		w.h[j] = 0
		w.step[j] = stepNone
	}
	var best float32
	bestI, bestJ := 0, 0

	for i := 1; i <= lenS; i++ {
		row := i * cols
		w.h[row] = 0
		w.step[row] = stepNone
		for j := 1; j <= lenT; j++ {
			v := w.h[row-cols+j-1] + s.Similarity(i-1, j-1)
			step := stepDiagonal
			var skip int32

			if gapsAllowed {
				for k := 1; k <= i; k++ {
					if c := w.h[(i-k)*cols+j] - w.gaps[k]; c > v {
						v, step, skip = c, stepSkipSource, int32(k)
					}
				}
				for k := 1; k <= j; k++ {
					if c := w.h[row+j-k] - w.gaps[k]; c > v {
						v, step, skip = c, stepSkipQuery, int32(k)
					}
				}
			}

			if !(v >= w.Zero) || v <= 0 {
				v, step = 0, stepNone
			}
			at := row + j
			w.h[at] = v
			w.step[at] = step
			w.skip[at] = skip
			if v > best {
				best, bestI, bestJ = v, i, j
			}
		}
	}

	match := w.match[:lenT]
	for j := range match {
		match[j] = Unmatched
	}
	i, j := bestI, bestJ
	for i > 0 && j > 0 {
		at := i*cols + j
		switch w.step[at] {
		case stepDiagonal:
			if s.Similarity(i-1, j-1) > 0 {
				match[j-1] = i - 1
			}
			i--
			j--
		case stepSkipSource:
			i -= int(w.skip[at])
		case stepSkipQuery:
			j -= int(w.skip[at])
		default:
			i = 0
		}
	}

	out := make([]int, lenT)
	copy(out, match)
	return Result{Score: best, Match: out}
}
