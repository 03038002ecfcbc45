package alignment

import "sort"

// RelaxedWordMoversDistance approximates word mover's distance by its
// nearest-neighbour relaxation (Kusner et al.).
//
// Both sides are reduced to bags of items. An item is a vocabulary token, or
// a (token, tag) pair when POSAware is set, in which case mass never moves
// across tags. Transport cost is 1 - similarity.
type RelaxedWordMoversDistance struct {
	// NormalizeBOW uses relative frequencies as mass instead of raw counts.
	NormalizeBOW bool
	// Symmetric computes both directions and keeps the larger distance.
	Symmetric bool
	// OneTarget moves all mass of an item to its nearest counterpart.
	// Otherwise mass is spread greedily, limited by each target's own mass.
	OneTarget bool
	// POSAware keys items by (token, tag).
	POSAware bool

	source bag
	query  bag
	order  []int
}

type bagKey struct {
	id  int32
	tag int8
}

type bag struct {
	index map[bagKey]int
	pos   []int
	tags  []int8
	mass  []float32
	total float32
}

func (b *bag) reset() {
	if b.index == nil {
		b.index = make(map[bagKey]int)
	}
	clear(b.index)
	b.pos = b.pos[:0]
	b.tags = b.tags[:0]
	b.mass = b.mass[:0]
	b.total = 0
}

func (b *bag) add(key bagKey, position int) {
	k, ok := b.index[key]
	if !ok {
		k = len(b.pos)
		b.index[key] = k
		b.pos = append(b.pos, position)
		b.tags = append(b.tags, key.tag)
		b.mass = append(b.mass, 0)
	}
	b.mass[k]++
	b.total++
}

func (b *bag) normalize() {
	if b.total == 0 {
		return
	}
	for k := range b.mass {
		b.mass[k] /= b.total
	}
	b.total = 1
}

// NewRelaxedWordMoversDistance creates the aligner.
func NewRelaxedWordMoversDistance(normalizeBOW, symmetric, oneTarget, posAware bool) *RelaxedWordMoversDistance {
	return &RelaxedWordMoversDistance{
		NormalizeBOW: normalizeBOW,
		Symmetric:    symmetric,
		OneTarget:    oneTarget,
		POSAware:     posAware,
	}
}

func (r *RelaxedWordMoversDistance) Name() string { return AlgorithmRWMD }

func (r *RelaxedWordMoversDistance) Init(maxLenS, maxLenT int) {
	r.order = make([]int, 0, max(maxLenS, maxLenT))
}

func (r *RelaxedWordMoversDistance) Align(s Slice) Result {
	lenS, lenT := s.LenS(), s.LenT()

	r.source.reset()
	for i := 0; i < lenS; i++ {
		t := s.SourceToken(i)
		k := bagKey{id: t.ID}
		if r.POSAware {
			k.tag = t.Tag
		}
		r.source.add(k, i)
	}
	r.query.reset()
	for j := 0; j < lenT; j++ {
		t := s.QueryToken(j)
		k := bagKey{id: t.ID}
		if r.POSAware {
			k.tag = t.Tag
		}
		r.query.add(k, j)
	}

	var units float32
	if r.NormalizeBOW {
		r.source.normalize()
		r.query.normalize()
		units = 1
	} else {
		units = float32(lenT)
	}

	d := r.transport(s, &r.query, &r.source, true)
	if r.Symmetric {
		d = max(d, r.transport(s, &r.source, &r.query, false))
	}

	match := make([]int, lenT)
	for j := range match {
		match[j] = Unmatched
		var bestSim float32
		for i := 0; i < lenS; i++ {
			if !r.compatible(s, i, j) {
				continue
			}
			if sim := s.Similarity(i, j); sim > bestSim {
				bestSim = sim
				match[j] = i
			}
		}
	}

	var score float32
	if units > 0 {
		score = TotalWeight(s) * max(0, units-d) / units
	}
	return Result{Score: score, Match: match}
}

func (r *RelaxedWordMoversDistance) compatible(s Slice, i, j int) bool {
	return !r.POSAware || s.SourceToken(i).Tag == s.QueryToken(j).Tag
}

// similarity between item a of from and item b of to. fromQuery tells which
// side from is on, so the similarity matrix is indexed (source, query).
func (r *RelaxedWordMoversDistance) similarity(s Slice, from, to *bag, a, b int, fromQuery bool) float32 {
	if r.POSAware && from.tags[a] != to.tags[b] {
		return 0
	}
	if fromQuery {
		return s.Similarity(to.pos[b], from.pos[a])
	}
	return s.Similarity(from.pos[a], to.pos[b])
}

// transport moves the mass of from onto to and returns the total cost.
func (r *RelaxedWordMoversDistance) transport(s Slice, from, to *bag, fromQuery bool) float32 {
	var d float32
	if len(to.pos) == 0 {
		return from.total
	}
	for a := range from.pos {
		if r.OneTarget {
			var best float32
			for b := range to.pos {
				best = max(best, r.similarity(s, from, to, a, b, fromQuery))
			}
			d += from.mass[a] * (1 - best)
			continue
		}

		r.order = r.order[:0]
		for b := range to.pos {
			r.order = append(r.order, b)
		}
		sort.SliceStable(r.order, func(x, y int) bool {
			return r.similarity(s, from, to, a, r.order[x], fromQuery) >
				r.similarity(s, from, to, a, r.order[y], fromQuery)
		})
		left := from.mass[a]
		for _, b := range r.order {
			if left <= 0 {
				break
			}
			moved := min(left, to.mass[b])
			d += moved * (1 - r.similarity(s, from, to, a, b, fromQuery))
			left -= moved
		}
		if left > 0 {
			d += left * (1 - r.similarity(s, from, to, a, r.order[0], fromQuery))
		}
	}
	return d
}
