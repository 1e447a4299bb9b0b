package rangeset

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"
)

// Run is a maximal closed interval [Start, End] of identifiers.
type Run struct {
	Start uint32
	End   uint32
}

// Len returns the number of identifiers covered by the run.
func (r Run) Len() uint64 {
	return uint64(r.End-r.Start) + 1
}

// touches reports whether two runs overlap or are adjacent, i.e.
// whether a union of the two would coalesce into a single run.
func (r Run) touches(o Run) bool {
	return r.Start <= succ(o.End) && o.Start <= succ(r.End)
}

// succ is a saturating increment so that adjacency checks stay safe
// at the top of the identifier space.
func succ(v uint32) uint32 {
	if v == math.MaxUint32 {
		return v
	}
	return v + 1
}

// runsFromValues folds an unordered, possibly duplicated value slice
// into normalized runs. Cost is dominated by the sort.
func runsFromValues(ids []uint32) []Run {
	if len(ids) == 0 {
		return nil
	}
	vs := slices.Clone(ids)
	slices.Sort(vs)
	runs := make([]Run, 0, 8)
	cur := Run{Start: vs[0], End: vs[0]}
	for _, v := range vs[1:] {
		switch {
		case v <= cur.End:
			// duplicate
		case v == cur.End+1:
			cur.End = v
		default:
			runs = append(runs, cur)
			cur = Run{Start: v, End: v}
		}
	}
	return append(runs, cur)
}

// normalizeRuns sorts arbitrary runs and coalesces overlap and
// adjacency into the minimal disjoint form. Runs with Start > End are
// dropped.
func normalizeRuns(runs []Run) []Run {
	rs := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.Start <= r.End {
			rs = append(rs, r)
		}
	}
	if len(rs) == 0 {
		return nil
	}
	slices.SortFunc(rs, func(a, b Run) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})
	out := rs[:1]
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Start <= succ(last.End) {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// runsUnion merges two normalized run slices in a single linear pass.
func runsUnion(a, b []Run) []Run {
	if len(a) == 0 {
		return slices.Clone(b)
	}
	if len(b) == 0 {
		return slices.Clone(a)
	}
	out := make([]Run, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var r Run
		switch {
		case j >= len(b):
			r, i = a[i], i+1
		case i >= len(a):
			r, j = b[j], j+1
		case a[i].Start <= b[j].Start:
			r, i = a[i], i+1
		default:
			r, j = b[j], j+1
		}
		if n := len(out) - 1; n >= 0 && r.Start <= succ(out[n].End) {
			if r.End > out[n].End {
				out[n].End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// runsIntersection keeps the identifiers present in both operands.
func runsIntersection(a, b []Run) []Run {
	var out []Run
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := max(a[i].Start, b[j].Start)
		hi := min(a[i].End, b[j].End)
		if lo <= hi {
			out = append(out, Run{Start: lo, End: hi})
		}
		if a[i].End < b[j].End {
			i++
		} else {
			j++
		}
	}
	return out
}

// runsDifference keeps the identifiers of a that are absent from b.
// Not commutative.
func runsDifference(a, b []Run) []Run {
	if len(a) == 0 || len(b) == 0 {
		return slices.Clone(a)
	}
	out := make([]Run, 0, len(a))
	j := 0
	for _, ra := range a {
		for j < len(b) && b[j].End < ra.Start {
			j++
		}
		cur := ra.Start
		covered := false
		for k := j; k < len(b) && b[k].Start <= ra.End; k++ {
			if b[k].Start > cur {
				out = append(out, Run{Start: cur, End: b[k].Start - 1})
			}
			if b[k].End >= ra.End {
				covered = true
				break
			}
			cur = b[k].End + 1
		}
		if !covered && cur <= ra.End {
			out = append(out, Run{Start: cur, End: ra.End})
		}
	}
	return out
}

// runsSymmetricDifference keeps the identifiers present in exactly one
// operand. Defined as the union of both one-way differences.
func runsSymmetricDifference(a, b []Run) []Run {
	return runsUnion(runsDifference(a, b), runsDifference(b, a))
}

// runsContains locates id in a normalized run slice by binary search.
func runsContains(rs []Run, id uint32) bool {
	_, ok := slices.BinarySearchFunc(rs, id, func(r Run, id uint32) int {
		switch {
		case r.End < id:
			return -1
		case r.Start > id:
			return 1
		default:
			return 0
		}
	})
	return ok
}

// runsLen sums interval sizes without expanding them.
func runsLen(rs []Run) uint64 {
	var n uint64
	for _, r := range rs {
		n += r.Len()
	}
	return n
}

// runsCompare orders normalized run slices lexicographically by
// (Start, End) pairs, shorter prefix first. Used to give folded
// output a stable order.
func runsCompare(a, b []Run) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmp.Compare(a[i].Start, b[i].Start); c != 0 {
			return c
		}
		if c := cmp.Compare(a[i].End, b[i].End); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// runValues expands a run sequence to individual identifiers, lazily
// and in ascending order.
func runValues(runs iter.Seq[Run]) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for r := range runs {
			for v := r.Start; ; v++ {
				if !yield(v) {
					return
				}
				if v == r.End {
					break
				}
			}
		}
	}
}

// formatRuns renders runs in the canonical a-b,c form, zero padding
// every value to width pad when pad > 0.
func formatRuns(rs []Run, pad int) string {
	var b strings.Builder
	for i, r := range rs {
		if i > 0 {
			b.WriteByte(',')
		}
		if r.Start == r.End {
			fmt.Fprintf(&b, "%0*d", pad, r.Start)
		} else {
			fmt.Fprintf(&b, "%0*d-%0*d", pad, r.Start, pad, r.End)
		}
	}
	return b.String()
}
