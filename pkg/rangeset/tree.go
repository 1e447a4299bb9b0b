package rangeset

import "iter"

// Tree is the balanced-tree range: normalized runs kept in an AVL
// tree keyed by run start. Values insert incrementally, coalescing
// with touching runs as they land, so construction from nearly sorted
// input avoids the full re-sort the list backend pays. Membership is
// a tree descent. Set operations merge the in-order run sequences of
// both operands and rebuild a balanced tree from the result.
//
// A nil *Tree is an empty range.
type Tree struct {
	root *treeNode
	size uint64
	pad  int
}

type treeNode struct {
	run    Run
	left   *treeNode
	right  *treeNode
	height int
}

// NewTree returns an empty tree-backed range.
func NewTree() *Tree { return &Tree{} }

// TreeFromValues builds a tree-backed range by incremental insertion.
func TreeFromValues(ids []uint32) *Tree {
	t := &Tree{}
	for _, id := range ids {
		t.insert(Run{Start: id, End: id})
	}
	return t
}

// TreeFromRuns builds a balanced tree from arbitrary intervals.
func TreeFromRuns(runs []Run) *Tree {
	return treeFromSorted(normalizeRuns(runs), 0)
}

// treeFromSorted builds a perfectly balanced tree from normalized
// runs. Cost is linear in the run count.
func treeFromSorted(rs []Run, pad int) *Tree {
	return &Tree{root: buildBalanced(rs), size: runsLen(rs), pad: pad}
}

func buildBalanced(rs []Run) *treeNode {
	if len(rs) == 0 {
		return nil
	}
	mid := len(rs) / 2
	n := &treeNode{run: rs[mid]}
	n.left = buildBalanced(rs[:mid])
	n.right = buildBalanced(rs[mid+1:])
	update(n)
	return n
}

func (t *Tree) New() *Tree { return NewTree() }

func (t *Tree) FromValues(ids []uint32) *Tree { return TreeFromValues(ids) }

func (t *Tree) FromRuns(runs []Run) *Tree { return TreeFromRuns(runs) }

// insert adds a run, absorbing every stored run it overlaps or abuts
// so the disjoint non-adjacent invariant holds after each step.
func (t *Tree) insert(r Run) {
	for {
		n := t.findTouching(r)
		if n == nil {
			break
		}
		t.size -= n.run.Len()
		if n.run.Start < r.Start {
			r.Start = n.run.Start
		}
		if n.run.End > r.End {
			r.End = n.run.End
		}
		t.root = avlDelete(t.root, n.run.Start)
	}
	t.root = avlInsert(t.root, r)
	t.size += r.Len()
}

func (t *Tree) findTouching(r Run) *treeNode {
	n := t.root
	for n != nil {
		switch {
		case r.touches(n.run):
			return n
		case r.End < n.run.Start:
			n = n.left
		default:
			n = n.right
		}
	}
	return nil
}

func (t *Tree) content() []Run {
	if t == nil {
		return nil
	}
	rs := make([]Run, 0, 8)
	t.root.inorder(func(r Run) bool {
		rs = append(rs, r)
		return true
	})
	return rs
}

// Padding returns the display width values are zero padded to.
func (t *Tree) Padding() int {
	if t == nil {
		return 0
	}
	return t.pad
}

// WithPadding returns a copy rendered at the given width. The node
// structure is shared; trees are never mutated after construction.
func (t *Tree) WithPadding(width int) *Tree {
	var root *treeNode
	var size uint64
	if t != nil {
		root, size = t.root, t.size
	}
	return &Tree{root: root, size: size, pad: width}
}

// Union returns the identifiers present in either operand.
func (t *Tree) Union(other *Tree) *Tree {
	return treeFromSorted(runsUnion(t.content(), other.content()), maxPadTree(t, other))
}

// Intersection returns the identifiers present in both operands.
func (t *Tree) Intersection(other *Tree) *Tree {
	return treeFromSorted(runsIntersection(t.content(), other.content()), maxPadTree(t, other))
}

// Difference returns the receiver's identifiers absent from other.
func (t *Tree) Difference(other *Tree) *Tree {
	return treeFromSorted(runsDifference(t.content(), other.content()), maxPadTree(t, other))
}

// SymmetricDifference returns the identifiers present in exactly one
// operand.
func (t *Tree) SymmetricDifference(other *Tree) *Tree {
	return treeFromSorted(runsSymmetricDifference(t.content(), other.content()), maxPadTree(t, other))
}

func maxPadTree(a, b *Tree) int {
	return max(a.Padding(), b.Padding())
}

// Contains reports membership by descending the tree.
func (t *Tree) Contains(id uint32) bool {
	if t == nil {
		return false
	}
	n := t.root
	for n != nil {
		switch {
		case id < n.run.Start:
			n = n.left
		case id > n.run.End:
			n = n.right
		default:
			return true
		}
	}
	return false
}

// Compare orders two ranges by their run sequences.
func (t *Tree) Compare(other *Tree) int {
	return runsCompare(t.content(), other.content())
}

// Len returns the identifier count, maintained at construction time.
func (t *Tree) Len() uint64 {
	if t == nil {
		return 0
	}
	return t.size
}

// IsEmpty reports whether the range holds no identifiers.
func (t *Tree) IsEmpty() bool {
	return t == nil || t.root == nil
}

// Runs iterates the intervals in ascending order via in-order
// traversal.
func (t *Tree) Runs() iter.Seq[Run] {
	return func(yield func(Run) bool) {
		if t == nil {
			return
		}
		t.root.inorder(yield)
	}
}

// Values iterates individual identifiers in ascending order.
func (t *Tree) Values() iter.Seq[uint32] {
	return runValues(t.Runs())
}

// String renders the canonical comma and dash form.
func (t *Tree) String() string {
	return formatRuns(t.content(), t.Padding())
}

func (n *treeNode) inorder(yield func(Run) bool) bool {
	if n == nil {
		return true
	}
	if !n.left.inorder(yield) {
		return false
	}
	if !yield(n.run) {
		return false
	}
	return n.right.inorder(yield)
}

func nodeHeight(n *treeNode) int {
	if n == nil {
		return 0
	}
	return n.height
}

func update(n *treeNode) {
	n.height = 1 + max(nodeHeight(n.left), nodeHeight(n.right))
}

func balanceFactor(n *treeNode) int {
	return nodeHeight(n.left) - nodeHeight(n.right)
}

func rotateRight(y *treeNode) *treeNode {
	x := y.left
	y.left = x.right
	x.right = y
	update(y)
	update(x)
	return x
}

func rotateLeft(x *treeNode) *treeNode {
	y := x.right
	x.right = y.left
	y.left = x
	update(x)
	update(y)
	return y
}

func rebalance(n *treeNode) *treeNode {
	update(n)
	switch bf := balanceFactor(n); {
	case bf > 1:
		if balanceFactor(n.left) < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case bf < -1:
		if balanceFactor(n.right) > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	default:
		return n
	}
}

// avlInsert assumes r touches no stored run; insert has absorbed any
// such run beforehand, so starts are unique keys.
func avlInsert(n *treeNode, r Run) *treeNode {
	if n == nil {
		return &treeNode{run: r, height: 1}
	}
	if r.Start < n.run.Start {
		n.left = avlInsert(n.left, r)
	} else {
		n.right = avlInsert(n.right, r)
	}
	return rebalance(n)
}

func avlDelete(n *treeNode, start uint32) *treeNode {
	if n == nil {
		return nil
	}
	switch {
	case start < n.run.Start:
		n.left = avlDelete(n.left, start)
	case start > n.run.Start:
		n.right = avlDelete(n.right, start)
	default:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		m := n.right
		for m.left != nil {
			m = m.left
		}
		n.run = m.run
		n.right = avlDelete(n.right, m.run.Start)
	}
	return rebalance(n)
}
