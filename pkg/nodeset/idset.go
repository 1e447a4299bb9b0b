package nodeset

import (
	"iter"
	"slices"
	"strings"

	"github.com/nodefold/nodefold/pkg/rangeset"
)

// IdSet aggregates node identifiers across many templates. Each
// template slot holds pairwise disjoint products; inserting content
// subtracts what is already present before storing the remainder, so
// counting and iteration never see a name twice.
//
// IdSet is a mutable container and is not safe for concurrent
// mutation. The range values inside it are immutable and freely
// shared.
type IdSet[R rangeset.IdRange[R]] struct {
	slots map[string]*slot[R]
}

type slot[R rangeset.IdRange[R]] struct {
	tmpl     Template
	products []Product[R]
}

// NewIdSet returns an empty set.
func NewIdSet[R rangeset.IdRange[R]]() *IdSet[R] {
	return &IdSet[R]{slots: make(map[string]*slot[R])}
}

// Push parses a single node specification, such as "node[1-99]" or
// "rack[1-2]node[01-10]", and unions it into the set. Group
// references and lists of specifications belong to the NodeSet layer
// above and are rejected here.
func (s *IdSet[R]) Push(spec string) error {
	tmpl, prod, err := parseSpec[R](spec)
	if err != nil {
		return err
	}
	s.pushProduct(tmpl, prod)
	return nil
}

func (s *IdSet[R]) pushProduct(tmpl Template, p Product[R]) {
	key := tmpl.Key()
	sl := s.slots[key]
	if sl == nil {
		sl = &slot[R]{tmpl: tmpl}
		s.slots[key] = sl
	}
	sl.add(p)
	sl.normalize()
	if len(sl.products) == 0 {
		delete(s.slots, key)
	}
}

// Union returns a set holding the names present in either operand.
// Templates present in only one operand carry over unchanged.
func (s *IdSet[R]) Union(o *IdSet[R]) *IdSet[R] {
	out := s.clone()
	out.absorb(o)
	return out
}

// absorb unions o into s in place.
func (s *IdSet[R]) absorb(o *IdSet[R]) {
	for _, sl := range o.slots {
		for _, p := range sl.products {
			s.pushProduct(sl.tmpl, p)
		}
	}
}

// Intersection returns a set holding the names present in both
// operands. Templates present in only one operand are dropped; within
// a shared template every product pair is narrowed dimension-wise.
func (s *IdSet[R]) Intersection(o *IdSet[R]) *IdSet[R] {
	out := NewIdSet[R]()
	for key, sa := range s.slots {
		sb := o.slots[key]
		if sb == nil {
			continue
		}
		var prods []Product[R]
		for _, pa := range sa.products {
			for _, pb := range sb.products {
				if p, ok := pa.Intersection(pb); ok {
					prods = append(prods, p)
				}
			}
		}
		if len(prods) == 0 {
			continue
		}
		sl := &slot[R]{tmpl: sa.tmpl, products: prods}
		sl.normalize()
		if len(sl.products) > 0 {
			out.slots[key] = sl
		}
	}
	return out
}

// Difference returns a set holding the receiver's names absent from
// o. Templates o does not mention carry over unchanged; shared
// templates subtract product by product via slab decomposition.
func (s *IdSet[R]) Difference(o *IdSet[R]) *IdSet[R] {
	out := NewIdSet[R]()
	for key, sa := range s.slots {
		sb := o.slots[key]
		if sb == nil {
			out.slots[key] = sa.clone()
			continue
		}
		parts := make([]Product[R], 0, len(sa.products))
		for _, p := range sa.products {
			parts = append(parts, p.clone())
		}
		for _, q := range sb.products {
			var next []Product[R]
			for _, part := range parts {
				next = append(next, part.Difference(q)...)
			}
			parts = next
			if len(parts) == 0 {
				break
			}
		}
		if len(parts) == 0 {
			continue
		}
		sl := &slot[R]{tmpl: sa.tmpl, products: parts}
		sl.normalize()
		if len(sl.products) > 0 {
			out.slots[key] = sl
		}
	}
	return out
}

// SymmetricDifference returns a set holding the names present in
// exactly one operand, the union of both one-way differences.
func (s *IdSet[R]) SymmetricDifference(o *IdSet[R]) *IdSet[R] {
	return s.Difference(o).Union(o.Difference(s))
}

// FullSplit expands every product in place to unit granularity: one
// product per individual id combination. Membership is unchanged;
// the representation is deliberately no longer minimal. Merge undoes
// the expansion.
func (s *IdSet[R]) FullSplit() {
	var zero R
	for _, sl := range s.slots {
		dims := sl.tmpl.Dims()
		if dims == 0 {
			continue
		}
		var units []Product[R]
		unit := make([]R, dims)
		var split func(d int, p Product[R])
		split = func(d int, p Product[R]) {
			if d == dims {
				units = append(units, Product[R]{Dims: slices.Clone(unit)})
				return
			}
			pad := p.Dims[d].Padding()
			for v := range p.Dims[d].Values() {
				unit[d] = zero.FromRuns([]rangeset.Run{{Start: v, End: v}}).WithPadding(pad)
				split(d+1, p)
			}
		}
		for _, p := range sl.products {
			split(0, p)
		}
		slices.SortFunc(units, Product[R].Compare)
		sl.products = units
	}
}

// Merge recombines products into minimal form by repeatedly folding
// products that agree on every dimension but one along that free
// dimension, until a fixed point. Merge(FullSplit(x)) is
// membership-equivalent to x.
func (s *IdSet[R]) Merge() {
	for _, sl := range s.slots {
		sl.merge()
		slices.SortFunc(sl.products, Product[R].Compare)
	}
}

// Len returns the total name count, computed from range lengths
// without expansion.
func (s *IdSet[R]) Len() uint64 {
	var n uint64
	for _, sl := range s.slots {
		for _, p := range sl.products {
			n += p.Len()
		}
	}
	return n
}

// IsEmpty reports whether the set holds no names.
func (s *IdSet[R]) IsEmpty() bool {
	return s == nil || len(s.slots) == 0
}

// Names iterates every node name in canonical order: templates
// sorted, products sorted, dimensions ascending with the last
// varying fastest. The sequence is lazy and restartable.
func (s *IdSet[R]) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		if s == nil {
			return
		}
		for _, sl := range s.sorted() {
			for _, p := range sl.products {
				if !p.eachName(sl.tmpl, yield) {
					return
				}
			}
		}
	}
}

// String renders the canonical folded form.
func (s *IdSet[R]) String() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	first := true
	for _, sl := range s.sorted() {
		for _, p := range sl.products {
			if !first {
				b.WriteByte(',')
			}
			first = false
			p.render(&b, sl.tmpl)
		}
	}
	return b.String()
}

func (s *IdSet[R]) sorted() []*slot[R] {
	sls := make([]*slot[R], 0, len(s.slots))
	for _, sl := range s.slots {
		sls = append(sls, sl)
	}
	slices.SortFunc(sls, func(a, b *slot[R]) int { return a.tmpl.Compare(b.tmpl) })
	return sls
}

func (s *IdSet[R]) clone() *IdSet[R] {
	out := NewIdSet[R]()
	for key, sl := range s.slots {
		out.slots[key] = sl.clone()
	}
	return out
}

func (p Product[R]) clone() Product[R] {
	return Product[R]{Dims: slices.Clone(p.Dims)}
}

func (sl *slot[R]) clone() *slot[R] {
	ps := make([]Product[R], len(sl.products))
	for i, p := range sl.products {
		ps[i] = p.clone()
	}
	return &slot[R]{tmpl: sl.tmpl, products: ps}
}

// add unions p into the slot, subtracting what is already present so
// the disjoint-products invariant holds.
func (sl *slot[R]) add(p Product[R]) {
	parts := []Product[R]{p.clone()}
	for _, q := range sl.products {
		var next []Product[R]
		for _, part := range parts {
			next = append(next, part.Difference(q)...)
		}
		parts = next
		if len(parts) == 0 {
			return
		}
	}
	sl.products = append(sl.products, parts...)
}

// normalize drops empty products, merges to minimal form and sorts.
func (sl *slot[R]) normalize() {
	kept := sl.products[:0]
	for _, p := range sl.products {
		if !p.IsEmpty() {
			kept = append(kept, p)
		}
	}
	sl.products = kept
	sl.merge()
	slices.SortFunc(sl.products, Product[R].Compare)
}

// merge folds products that differ in a single dimension, iterating
// axes to a fixed point. A zero-dimension slot can only ever hold the
// unit product once.
func (sl *slot[R]) merge() {
	dims := sl.tmpl.Dims()
	if dims == 0 {
		if len(sl.products) > 1 {
			sl.products = sl.products[:1]
		}
		return
	}
	for changed := true; changed; {
		changed = false
		for d := 0; d < dims; d++ {
			index := make(map[string]int, len(sl.products))
			merged := make([]Product[R], 0, len(sl.products))
			for _, p := range sl.products {
				key := p.axisKey(d)
				if at, ok := index[key]; ok {
					merged[at].Dims[d] = merged[at].Dims[d].Union(p.Dims[d])
					changed = true
					continue
				}
				index[key] = len(merged)
				merged = append(merged, p)
			}
			sl.products = merged
		}
	}
}
