package nodeset_test

import (
	"fmt"

	"github.com/nodefold/nodefold/pkg/nodeset"
	"github.com/nodefold/nodefold/pkg/rangeset"
)

// ExampleParse demonstrates folding scattered names into the compact
// form.
func ExampleParse() {
	ns, _ := nodeset.Parse[*rangeset.List]("node3,node1,node2,node5")
	fmt.Println(ns.Fold())
	// Output: node[1-3,5]
}

// ExampleNodeSet_Intersection demonstrates dimension-wise narrowing
// of compound names.
func ExampleNodeSet_Intersection() {
	a, _ := nodeset.Parse[*rangeset.List]("rack[1-2]node[1-3]")
	b, _ := nodeset.Parse[*rangeset.List]("rack[2]node[2-4]")
	fmt.Println(a.Intersection(b))
	// Output: rack2node[2-3]
}

// ExampleNodeSet_Nodes demonstrates lazy expansion to individual
// names.
func ExampleNodeSet_Nodes() {
	ns, _ := nodeset.Parse[*rangeset.List]("web[1-3]")
	for name := range ns.Nodes() {
		fmt.Println(name)
	}
	// Output:
	// web1
	// web2
	// web3
}

// ExampleIdSet_FullSplit demonstrates unit-granularity expansion and
// its inverse.
func ExampleIdSet_FullSplit() {
	s := nodeset.NewIdSet[*rangeset.List]()
	_ = s.Push("node[1-3]")
	s.FullSplit()
	fmt.Println(s)
	s.Merge()
	fmt.Println(s)
	// Output:
	// node1,node2,node3
	// node[1-3]
}
