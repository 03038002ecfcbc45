package alignment

import "math"

const flowEpsilon = 1e-9

// WordRotatorsDistance is optimal transport between the two spans with
// embedding norms as mass and 1 - similarity as unit cost (Yokoi et al.).
// The transport problem is solved exactly as a min-cost flow.
type WordRotatorsDistance struct {
	net flowNetwork
}

// NewWordRotatorsDistance creates the aligner.
func NewWordRotatorsDistance() *WordRotatorsDistance {
	return &WordRotatorsDistance{}
}

func (w *WordRotatorsDistance) Name() string { return AlgorithmWRD }

func (w *WordRotatorsDistance) Init(maxLenS, maxLenT int) {
	w.net.init(maxLenS, maxLenT)
}

func (w *WordRotatorsDistance) Align(s Slice) Result {
	lenS, lenT := s.LenS(), s.LenT()
	match := make([]int, lenT)
	for j := range match {
		match[j] = Unmatched
	}

	supply := make([]float64, lenS)
	demand := make([]float64, lenT)
	var sumS, sumT float64
	for i := range supply {
		supply[i] = float64(s.MagnitudeS(i))
		sumS += supply[i]
	}
	for j := range demand {
		demand[j] = float64(s.MagnitudeT(j))
		sumT += demand[j]
	}
	if sumS <= 0 || sumT <= 0 {
		return Result{Match: match}
	}
	for i := range supply {
		supply[i] /= sumS
	}
	for j := range demand {
		demand[j] /= sumT
	}

	cost := func(i, j int) float64 {
		return 1 - float64(s.Similarity(i, j))
	}
	w.net.solve(supply, demand, cost)

	var total float64
	for j := 0; j < lenT; j++ {
		best := flowEpsilon
		for i := 0; i < lenS; i++ {
			f := w.net.flow(i, j)
			total += f * cost(i, j)
			if f > best && s.Similarity(i, j) > 0 {
				best = f
				match[j] = i
			}
		}
	}

	score := TotalWeight(s) * float32(max(0, 1-total))
	return Result{Score: score, Match: match}
}

// flowNetwork solves a dense transportation problem by successive shortest
// paths with Dijkstra over reduced costs. Supply nodes are 0..n-1, demand
// nodes n..n+m-1.
type flowNetwork struct {
	n, m int
	f    []float64 // f[i*m+j]: flow from supply i to demand j
	pot  []float64
	dist []float64
	prev []int
	done []bool
	c    []float64
}

func (fn *flowNetwork) init(maxS, maxT int) {
	fn.f = make([]float64, maxS*maxT)
	fn.c = make([]float64, maxS*maxT)
	v := maxS + maxT
	fn.pot = make([]float64, v)
	fn.dist = make([]float64, v)
	fn.prev = make([]int, v)
	fn.done = make([]bool, v)
}

func (fn *flowNetwork) flow(i, j int) float64 {
	return fn.f[i*fn.m+j]
}

// solve consumes supply and demand; both are left at their remaining amounts.
func (fn *flowNetwork) solve(supply, demand []float64, cost func(i, j int) float64) {
	n, m := len(supply), len(demand)
	if len(fn.f) < n*m || len(fn.pot) < n+m {
		fn.init(n, m)
	}
	fn.n, fn.m = n, m
	f := fn.f[:n*m]
	clear(f)
	c := fn.c[:n*m]
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			c[i*m+j] = cost(i, j)
		}
	}

	// Costs are 1 - similarity: within [0, 2] for cosine, unbounded for the
	// other measures and possibly negative. Shift potentials of demand nodes
	// so every reduced cost starts non-negative.
	v := n + m
	pot := fn.pot[:v]
	clear(pot)
	for j := 0; j < m; j++ {
		low := math.Inf(1)
		for i := 0; i < n; i++ {
			low = min(low, c[i*m+j])
		}
		pot[n+j] = low
	}

	dist, prev, done := fn.dist[:v], fn.prev[:v], fn.done[:v]
	for round := 0; round < 4*v*v; round++ {
		// sources are all supply nodes with remaining mass, at distance 0
		for u := 0; u < v; u++ {
			dist[u] = math.Inf(1)
			prev[u] = -1
			done[u] = false
		}
		pending := false
		for i := 0; i < n; i++ {
			if supply[i] > flowEpsilon {
				dist[i] = 0
				pending = true
			}
		}
		if !pending {
			return
		}

		for {
			u := -1
			for x := 0; x < v; x++ {
				if !done[x] && !math.IsInf(dist[x], 1) && (u < 0 || dist[x] < dist[u]) {
					u = x
				}
			}
			if u < 0 {
				break
			}
			done[u] = true
			if u < n {
				for j := 0; j < m; j++ {
					y := n + j
					rc := c[u*m+j] + pot[u] - pot[y]
					if d := dist[u] + max(rc, 0); d < dist[y] {
						dist[y] = d
						prev[y] = u
					}
				}
			} else {
				j := u - n
				for i := 0; i < n; i++ {
					if f[i*m+j] <= flowEpsilon {
						continue
					}
					rc := -c[i*m+j] + pot[u] - pot[i]
					if d := dist[u] + max(rc, 0); d < dist[i] {
						dist[i] = d
						prev[i] = u
					}
				}
			}
		}

		// demand potentials differ, so compare true path lengths
		sink := -1
		for j := 0; j < m; j++ {
			y := n + j
			if demand[j] <= flowEpsilon || math.IsInf(dist[y], 1) {
				continue
			}
			if sink < 0 || dist[y]+pot[y] < dist[sink]+pot[sink] {
				sink = y
			}
		}
		if sink < 0 {
			return
		}

		reach := 0.0
		for u := 0; u < v; u++ {
			if !math.IsInf(dist[u], 1) {
				reach = max(reach, dist[u])
			}
		}
		for u := 0; u < v; u++ {
			if math.IsInf(dist[u], 1) {
				pot[u] += reach
			} else {
				pot[u] += dist[u]
			}
		}

		// bottleneck along the path
		amount := demand[sink-n]
		y := sink
		for prev[y] >= 0 {
			x := prev[y]
			if x >= n {
				amount = min(amount, f[y*m+(x-n)])
			}
			y = x
		}
		amount = min(amount, supply[y])

		y = sink
		for prev[y] >= 0 {
			x := prev[y]
			if x < n {
				f[x*m+(y-n)] += amount
			} else {
				f[y*m+(x-n)] -= amount
			}
			y = x
		}
		supply[y] -= amount
		demand[sink-n] -= amount
	}
}
