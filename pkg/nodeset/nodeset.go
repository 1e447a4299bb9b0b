package nodeset

import (
	"iter"

	"github.com/nodefold/nodefold/pkg/rangeset"
)

// NodeSet is a set of compound node names backed by an IdSet. It is
// what Parse returns and what the set operations combine. A nil
// *NodeSet behaves as an empty set.
type NodeSet[R rangeset.IdRange[R]] struct {
	set *IdSet[R]
}

// NewNodeSet returns an empty set.
func NewNodeSet[R rangeset.IdRange[R]]() *NodeSet[R] {
	return &NodeSet[R]{set: NewIdSet[R]()}
}

func (n *NodeSet[R]) content() *IdSet[R] {
	if n == nil || n.set == nil {
		return NewIdSet[R]()
	}
	return n.set
}

// Union returns the names present in either set.
func (n *NodeSet[R]) Union(o *NodeSet[R]) *NodeSet[R] {
	return &NodeSet[R]{set: n.content().Union(o.content())}
}

// Intersection returns the names present in both sets.
func (n *NodeSet[R]) Intersection(o *NodeSet[R]) *NodeSet[R] {
	return &NodeSet[R]{set: n.content().Intersection(o.content())}
}

// Difference returns the receiver's names absent from o.
func (n *NodeSet[R]) Difference(o *NodeSet[R]) *NodeSet[R] {
	return &NodeSet[R]{set: n.content().Difference(o.content())}
}

// SymmetricDifference returns the names present in exactly one set.
func (n *NodeSet[R]) SymmetricDifference(o *NodeSet[R]) *NodeSet[R] {
	return &NodeSet[R]{set: n.content().SymmetricDifference(o.content())}
}

// Fold renders the canonical compact form: templates sorted,
// minimal ranges, singletons bare, padding honored. Folding the
// parse of a folded string reproduces it.
func (n *NodeSet[R]) Fold() string {
	if n == nil || n.set == nil {
		return ""
	}
	return n.set.String()
}

// String is Fold.
func (n *NodeSet[R]) String() string { return n.Fold() }

// Nodes iterates every individual node name in canonical order. The
// expansion is lazy and the sequence restartable, so iterating a
// million-node set does not materialize a million strings.
func (n *NodeSet[R]) Nodes() iter.Seq[string] {
	if n == nil || n.set == nil {
		return func(func(string) bool) {}
	}
	return n.set.Names()
}

// Len returns the name count without expanding anything.
func (n *NodeSet[R]) Len() uint64 {
	if n == nil || n.set == nil {
		return 0
	}
	return n.set.Len()
}

// IsEmpty reports whether the set holds no names.
func (n *NodeSet[R]) IsEmpty() bool {
	return n == nil || n.set.IsEmpty()
}
