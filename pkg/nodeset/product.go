package nodeset

import (
	"fmt"
	"strings"

	"github.com/nodefold/nodefold/pkg/rangeset"
)

// Product is one axis-aligned block of a template's identifier
// space: a range per dimension, meaning the Cartesian product of
// those ranges. A product with no dimensions is the unit product and
// denotes the bare literal name.
type Product[R rangeset.IdRange[R]] struct {
	Dims []R
}

// Len returns the number of names the product covers.
func (p Product[R]) Len() uint64 {
	n := uint64(1)
	for _, d := range p.Dims {
		n *= d.Len()
	}
	return n
}

// IsEmpty reports whether any dimension is empty, which empties the
// whole product. The unit product is not empty.
func (p Product[R]) IsEmpty() bool {
	for _, d := range p.Dims {
		if d.IsEmpty() {
			return true
		}
	}
	return false
}

// Intersection narrows every dimension pairwise. ok is false when the
// products do not overlap.
func (p Product[R]) Intersection(o Product[R]) (Product[R], bool) {
	dims := make([]R, len(p.Dims))
	for d := range p.Dims {
		dims[d] = p.Dims[d].Intersection(o.Dims[d])
		if dims[d].IsEmpty() {
			return Product[R]{}, false
		}
	}
	return Product[R]{Dims: dims}, true
}

// Difference subtracts o from p by slab decomposition: one emitted
// part per dimension, each keeping the already-narrowed prefix
// dimensions, the outside portion of the split dimension, and the
// untouched remainder. Parts are pairwise disjoint.
func (p Product[R]) Difference(o Product[R]) []Product[R] {
	if _, ok := p.Intersection(o); !ok {
		return []Product[R]{p}
	}
	var parts []Product[R]
	for d := range p.Dims {
		outside := p.Dims[d].Difference(o.Dims[d])
		if outside.IsEmpty() {
			continue
		}
		dims := make([]R, len(p.Dims))
		for i := range p.Dims {
			switch {
			case i < d:
				dims[i] = p.Dims[i].Intersection(o.Dims[i])
			case i == d:
				dims[i] = outside
			default:
				dims[i] = p.Dims[i]
			}
		}
		parts = append(parts, Product[R]{Dims: dims})
	}
	return parts
}

// Compare orders products by dimension count, then dimension by
// dimension.
func (p Product[R]) Compare(o Product[R]) int {
	if c := len(p.Dims) - len(o.Dims); c != 0 {
		return c
	}
	for d := range p.Dims {
		if c := p.Dims[d].Compare(o.Dims[d]); c != 0 {
			return c
		}
	}
	return 0
}

// axisKey fingerprints every dimension except skip. Products sharing
// an axisKey can be folded together along the skip dimension. The
// key covers run content only, so ranges differing just in display
// padding still merge.
func (p Product[R]) axisKey(skip int) string {
	var b strings.Builder
	for d, r := range p.Dims {
		if d == skip {
			continue
		}
		fmt.Fprintf(&b, "%d|", d)
		for run := range r.Runs() {
			fmt.Fprintf(&b, "%d-%d;", run.Start, run.End)
		}
	}
	return b.String()
}

// render appends the product's canonical text for tmpl: each
// dimension either bare (single id) or bracketed, literals
// interleaved.
func (p Product[R]) render(b *strings.Builder, tmpl Template) {
	for d, r := range p.Dims {
		b.WriteString(tmpl.fragments[d])
		if r.Len() == 1 {
			b.WriteString(r.String())
		} else {
			b.WriteByte('[')
			b.WriteString(r.String())
			b.WriteByte(']')
		}
	}
	b.WriteString(tmpl.fragments[len(tmpl.fragments)-1])
}

// eachName walks the Cartesian expansion in ascending per-dimension
// order, last dimension varying fastest. Returns false when yield
// stopped the walk.
func (p Product[R]) eachName(tmpl Template, yield func(string) bool) bool {
	values := make([]string, len(p.Dims))
	var walk func(d int) bool
	walk = func(d int) bool {
		if d == len(p.Dims) {
			return yield(tmpl.format(values))
		}
		pad := p.Dims[d].Padding()
		for v := range p.Dims[d].Values() {
			values[d] = fmt.Sprintf("%0*d", pad, v)
			if !walk(d + 1) {
				return false
			}
		}
		return true
	}
	return walk(0)
}
