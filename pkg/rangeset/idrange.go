package rangeset

import "iter"

// IdRange is the capability shared by the two range backends. Code
// that works over identifier ranges is parameterized by a concrete
// backend at compile time:
//
//	func widest[R rangeset.IdRange[R]](rs []R) R { ... }
//
// The zero value of a backend (a nil *List or *Tree) is a valid empty
// range, and the constructor methods New, FromValues and FromRuns are
// callable on it. That is how generic code builds fresh values:
//
//	var zero R
//	r := zero.FromValues(ids)
//
// Backends are immutable; every operation returns a new value, so
// ranges are safe to share across goroutines without locking.
type IdRange[R any] interface {
	// New returns an empty range.
	New() R
	// FromValues builds a range from unordered, possibly duplicated
	// identifiers.
	FromValues(ids []uint32) R
	// FromRuns builds a range from arbitrary intervals, normalizing
	// overlap and adjacency away.
	FromRuns(runs []Run) R

	// Union returns the identifiers present in either operand.
	Union(other R) R
	// Intersection returns the identifiers present in both operands.
	Intersection(other R) R
	// Difference returns the receiver's identifiers absent from
	// other. Not commutative.
	Difference(other R) R
	// SymmetricDifference returns the identifiers present in exactly
	// one operand.
	SymmetricDifference(other R) R

	// Contains reports membership of a single identifier.
	Contains(id uint32) bool
	// Compare orders two ranges by their normalized run sequences.
	// It is a total order used for deterministic folding; it is not a
	// subset relation.
	Compare(other R) int
	// Len returns the total identifier count, computed from interval
	// sizes without expansion.
	Len() uint64
	// IsEmpty reports whether the range holds no identifiers.
	IsEmpty() bool

	// Padding returns the display width identifiers are zero padded
	// to, 0 for none.
	Padding() int
	// WithPadding returns a copy of the range rendered at the given
	// width.
	WithPadding(width int) R

	// Runs iterates the normalized intervals in ascending order. The
	// sequence is restartable.
	Runs() iter.Seq[Run]
	// Values iterates individual identifiers in ascending order
	// without materializing them. The sequence is restartable.
	Values() iter.Seq[uint32]

	// String renders the canonical a-b,c form honoring Padding.
	String() string
}
