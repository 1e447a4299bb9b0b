package rangeset

import "iter"

// List is the slice-backed range: normalized runs in a flat sorted
// slice. Construction from raw values costs one sort; set operations
// and scans are single linear passes over the runs. It is the backend
// of choice for parse-fold-print workloads.
//
// A nil *List is an empty range.
type List struct {
	runs []Run
	pad  int
}

// NewList returns an empty list-backed range.
func NewList() *List { return &List{} }

// ListFromValues builds a list-backed range from unordered values.
func ListFromValues(ids []uint32) *List {
	return &List{runs: runsFromValues(ids)}
}

// ListFromRuns builds a list-backed range from arbitrary intervals.
func ListFromRuns(runs []Run) *List {
	return &List{runs: normalizeRuns(runs)}
}

func (l *List) New() *List { return NewList() }

func (l *List) FromValues(ids []uint32) *List { return ListFromValues(ids) }

func (l *List) FromRuns(runs []Run) *List { return ListFromRuns(runs) }

func (l *List) content() []Run {
	if l == nil {
		return nil
	}
	return l.runs
}

// Padding returns the display width values are zero padded to.
func (l *List) Padding() int {
	if l == nil {
		return 0
	}
	return l.pad
}

// WithPadding returns a copy rendered at the given width.
func (l *List) WithPadding(width int) *List {
	return &List{runs: l.content(), pad: width}
}

// Union returns the identifiers present in either operand.
func (l *List) Union(other *List) *List {
	return &List{
		runs: runsUnion(l.content(), other.content()),
		pad:  max(l.Padding(), other.Padding()),
	}
}

// Intersection returns the identifiers present in both operands.
func (l *List) Intersection(other *List) *List {
	return &List{
		runs: runsIntersection(l.content(), other.content()),
		pad:  max(l.Padding(), other.Padding()),
	}
}

// Difference returns the receiver's identifiers absent from other.
func (l *List) Difference(other *List) *List {
	return &List{
		runs: runsDifference(l.content(), other.content()),
		pad:  max(l.Padding(), other.Padding()),
	}
}

// SymmetricDifference returns the identifiers present in exactly one
// operand.
func (l *List) SymmetricDifference(other *List) *List {
	return &List{
		runs: runsSymmetricDifference(l.content(), other.content()),
		pad:  max(l.Padding(), other.Padding()),
	}
}

// Contains reports membership by binary search over the runs.
func (l *List) Contains(id uint32) bool {
	return runsContains(l.content(), id)
}

// Compare orders two ranges by their run sequences.
func (l *List) Compare(other *List) int {
	return runsCompare(l.content(), other.content())
}

// Len returns the identifier count without expansion.
func (l *List) Len() uint64 {
	return runsLen(l.content())
}

// IsEmpty reports whether the range holds no identifiers.
func (l *List) IsEmpty() bool {
	return l == nil || len(l.runs) == 0
}

// Runs iterates the normalized intervals in ascending order.
func (l *List) Runs() iter.Seq[Run] {
	return func(yield func(Run) bool) {
		for _, r := range l.content() {
			if !yield(r) {
				return
			}
		}
	}
}

// Values iterates individual identifiers in ascending order.
func (l *List) Values() iter.Seq[uint32] {
	return runValues(l.Runs())
}

// String renders the canonical comma and dash form, e.g. "1-3,5".
func (l *List) String() string {
	return formatRuns(l.content(), l.Padding())
}
