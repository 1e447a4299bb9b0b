package rangeset

import (
	"math"
	"math/rand"
	"slices"
	"testing"
)

func TestListFromValues(t *testing.T) {
	tests := []struct {
		name string
		ids  []uint32
		want string
		len  uint64
	}{
		{"empty", nil, "", 0},
		{"single", []uint32{7}, "7", 1},
		{"unordered", []uint32{5, 1, 3, 2}, "1-3,5", 4},
		{"duplicates", []uint32{3, 1, 2, 3, 3}, "1-3", 3},
		{"gaps", []uint32{10, 1, 12, 3, 11}, "1,3,10-12", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ListFromValues(tt.ids)
			if got := r.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := r.Len(); got != tt.len {
				t.Errorf("Len() = %d, want %d", got, tt.len)
			}
		})
	}
}

func TestFromRunsNormalizes(t *testing.T) {
	tests := []struct {
		name string
		runs []Run
		want string
	}{
		{"overlap", []Run{{1, 5}, {3, 8}}, "1-8"},
		{"adjacent", []Run{{4, 6}, {1, 3}}, "1-6"},
		{"contained", []Run{{1, 10}, {3, 4}}, "1-10"},
		{"inverted dropped", []Run{{5, 1}, {7, 9}}, "7-9"},
		{"disjoint kept", []Run{{8, 9}, {1, 2}}, "1-2,8-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ListFromRuns(tt.runs).String(); got != tt.want {
				t.Errorf("list: got %q, want %q", got, tt.want)
			}
			if got := TreeFromRuns(tt.runs).String(); got != tt.want {
				t.Errorf("tree: got %q, want %q", got, tt.want)
			}
		})
	}
}

type binop struct {
	name string
	a, b []Run
	want string
}

func runBinopTests[R IdRange[R]](t *testing.T, tests []binop, apply func(a, b R) R) {
	t.Helper()
	var zero R
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := zero.FromRuns(tt.a)
			b := zero.FromRuns(tt.b)
			if got := apply(a, b).String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	tests := []binop{
		{"disjoint", []Run{{1, 3}}, []Run{{5, 7}}, "1-3,5-7"},
		{"adjacent", []Run{{1, 3}}, []Run{{4, 6}}, "1-6"},
		{"overlap", []Run{{1, 5}}, []Run{{3, 8}}, "1-8"},
		{"contained", []Run{{1, 10}}, []Run{{3, 4}}, "1-10"},
		{"left empty", nil, []Run{{1, 2}}, "1-2"},
		{"right empty", []Run{{1, 2}}, nil, "1-2"},
		{"both empty", nil, nil, ""},
		{"interleaved", []Run{{1, 2}, {7, 8}}, []Run{{4, 5}, {10, 11}}, "1-2,4-5,7-8,10-11"},
	}
	t.Run("list", func(t *testing.T) {
		runBinopTests[*List](t, tests, func(a, b *List) *List { return a.Union(b) })
	})
	t.Run("tree", func(t *testing.T) {
		runBinopTests[*Tree](t, tests, func(a, b *Tree) *Tree { return a.Union(b) })
	})
}

func TestIntersection(t *testing.T) {
	tests := []binop{
		{"overlap", []Run{{1, 10}}, []Run{{5, 15}}, "5-10"},
		{"disjoint", []Run{{1, 3}}, []Run{{5, 7}}, ""},
		{"contained", []Run{{1, 10}}, []Run{{4, 6}}, "4-6"},
		{"multi", []Run{{1, 10}}, []Run{{2, 2}, {4, 4}, {6, 6}}, "2,4,6"},
		{"left empty", nil, []Run{{1, 2}}, ""},
		{"top of space", []Run{{0, math.MaxUint32}}, []Run{{math.MaxUint32, math.MaxUint32}}, "4294967295"},
	}
	t.Run("list", func(t *testing.T) {
		runBinopTests[*List](t, tests, func(a, b *List) *List { return a.Intersection(b) })
	})
	t.Run("tree", func(t *testing.T) {
		runBinopTests[*Tree](t, tests, func(a, b *Tree) *Tree { return a.Intersection(b) })
	})
}

func TestDifference(t *testing.T) {
	tests := []binop{
		{"middle", []Run{{1, 10}}, []Run{{5, 7}}, "1-4,8-10"},
		{"self", []Run{{1, 10}}, []Run{{1, 10}}, ""},
		{"left edge", []Run{{1, 5}}, []Run{{0, 2}}, "3-5"},
		{"right edge", []Run{{1, 5}}, []Run{{5, 9}}, "1-4"},
		{"multi holes", []Run{{1, 10}}, []Run{{2, 3}, {5, 5}, {8, 12}}, "1,4,6-7"},
		{"no overlap", []Run{{1, 3}}, []Run{{5, 7}}, "1-3"},
		{"right empty", []Run{{1, 3}}, nil, "1-3"},
	}
	t.Run("list", func(t *testing.T) {
		runBinopTests[*List](t, tests, func(a, b *List) *List { return a.Difference(b) })
	})
	t.Run("tree", func(t *testing.T) {
		runBinopTests[*Tree](t, tests, func(a, b *Tree) *Tree { return a.Difference(b) })
	})
}

func TestDifferenceNotCommutative(t *testing.T) {
	a := ListFromRuns([]Run{{1, 10}})
	b := ListFromRuns([]Run{{5, 15}})
	if got := a.Difference(b).String(); got != "1-4" {
		t.Errorf("a\\b = %q, want %q", got, "1-4")
	}
	if got := b.Difference(a).String(); got != "11-15" {
		t.Errorf("b\\a = %q, want %q", got, "11-15")
	}
}

func TestSymmetricDifference(t *testing.T) {
	tests := []binop{
		{"overlap", []Run{{1, 5}}, []Run{{4, 8}}, "1-3,6-8"},
		{"identical", []Run{{1, 5}}, []Run{{1, 5}}, ""},
		{"adjacent halves", []Run{{1, 5}}, []Run{{6, 10}}, "1-10"},
		{"one empty", []Run{{1, 5}}, nil, "1-5"},
	}
	t.Run("list", func(t *testing.T) {
		runBinopTests[*List](t, tests, func(a, b *List) *List { return a.SymmetricDifference(b) })
	})
	t.Run("tree", func(t *testing.T) {
		runBinopTests[*Tree](t, tests, func(a, b *Tree) *Tree { return a.SymmetricDifference(b) })
	})
}

func TestAlgebraicProperties(t *testing.T) {
	a := ListFromRuns([]Run{{1, 10}, {20, 30}})
	b := ListFromRuns([]Run{{5, 25}})
	c := ListFromRuns([]Run{{8, 8}, {40, 50}})

	if got, want := a.Union(b).String(), b.Union(a).String(); got != want {
		t.Errorf("union not commutative: %q vs %q", got, want)
	}
	if got, want := a.Intersection(b).String(), b.Intersection(a).String(); got != want {
		t.Errorf("intersection not commutative: %q vs %q", got, want)
	}
	if got, want := a.Union(b).Union(c).String(), a.Union(b.Union(c)).String(); got != want {
		t.Errorf("union not associative: %q vs %q", got, want)
	}
	if got, want := a.Intersection(b).Intersection(c).String(), a.Intersection(b.Intersection(c)).String(); got != want {
		t.Errorf("intersection not associative: %q vs %q", got, want)
	}
	if got := a.Difference(a); !got.IsEmpty() {
		t.Errorf("a\\a = %q, want empty", got)
	}
	sym := a.SymmetricDifference(b)
	both := a.Difference(b).Union(b.Difference(a))
	if sym.String() != both.String() {
		t.Errorf("symdiff %q != union of differences %q", sym, both)
	}
}

func TestContains(t *testing.T) {
	for name, r := range map[string]interface {
		Contains(uint32) bool
	}{
		"list": ListFromRuns([]Run{{1, 3}, {7, 9}, {math.MaxUint32, math.MaxUint32}}),
		"tree": TreeFromRuns([]Run{{1, 3}, {7, 9}, {math.MaxUint32, math.MaxUint32}}),
	} {
		t.Run(name, func(t *testing.T) {
			for _, id := range []uint32{1, 2, 3, 7, 9, math.MaxUint32} {
				if !r.Contains(id) {
					t.Errorf("Contains(%d) = false, want true", id)
				}
			}
			for _, id := range []uint32{0, 4, 6, 10, math.MaxUint32 - 1} {
				if r.Contains(id) {
					t.Errorf("Contains(%d) = true, want false", id)
				}
			}
		})
	}
}

func TestLenWholeSpace(t *testing.T) {
	r := ListFromRuns([]Run{{0, math.MaxUint32}})
	if got, want := r.Len(), uint64(1)<<32; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestPadding(t *testing.T) {
	r := ListFromRuns([]Run{{1, 3}, {5, 5}}).WithPadding(2)
	if got := r.String(); got != "01-03,05" {
		t.Errorf("padded String() = %q, want %q", got, "01-03,05")
	}
	wide := ListFromRuns([]Run{{100, 120}}).WithPadding(2)
	if got := wide.String(); got != "100-120" {
		t.Errorf("width overflow String() = %q, want %q", got, "100-120")
	}
	u := r.Union(ListFromRuns([]Run{{9, 9}}))
	if got := u.Padding(); got != 2 {
		t.Errorf("union Padding() = %d, want 2", got)
	}
	if got := u.String(); got != "01-03,05,09" {
		t.Errorf("union String() = %q, want %q", got, "01-03,05,09")
	}
}

func TestZeroValueIsEmpty(t *testing.T) {
	var l *List
	var tr *Tree
	if !l.IsEmpty() || l.Len() != 0 || l.String() != "" || l.Contains(0) {
		t.Error("nil *List should behave as an empty range")
	}
	if !tr.IsEmpty() || tr.Len() != 0 || tr.String() != "" || tr.Contains(0) {
		t.Error("nil *Tree should behave as an empty range")
	}
	if got := l.Union(ListFromRuns([]Run{{1, 2}})).String(); got != "1-2" {
		t.Errorf("nil union = %q, want %q", got, "1-2")
	}
	if got := l.FromValues([]uint32{4}).String(); got != "4" {
		t.Errorf("constructor on nil receiver = %q, want %q", got, "4")
	}
}

func TestTreeIncrementalCoalescing(t *testing.T) {
	tr := TreeFromValues([]uint32{1, 3, 5, 2, 4})
	if got := tr.String(); got != "1-5" {
		t.Errorf("String() = %q, want %q", got, "1-5")
	}
	if got := tr.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}
	count := 0
	for range tr.Runs() {
		count++
	}
	if count != 1 {
		t.Errorf("run count = %d, want 1", count)
	}
}

func TestTreeBalance(t *testing.T) {
	tr := TreeFromValues(ascending(0, 2048, 2))
	// 1024 runs: AVL height must stay within 1.44*log2(n)+2.
	if h := nodeHeight(tr.root); h > 16 {
		t.Errorf("height = %d for 1024 runs, want <= 16", h)
	}
}

func TestIteratorsAreRestartable(t *testing.T) {
	r := ListFromRuns([]Run{{1, 3}, {9, 9}})
	first := slices.Collect(r.Values())
	second := slices.Collect(r.Values())
	if !slices.Equal(first, second) {
		t.Errorf("second pass %v differs from first %v", second, first)
	}
	want := []uint32{1, 2, 3, 9}
	if !slices.Equal(first, want) {
		t.Errorf("Values() = %v, want %v", first, want)
	}
}

func TestIteratorEarlyBreak(t *testing.T) {
	r := TreeFromRuns([]Run{{0, math.MaxUint32}})
	var got []uint32
	for v := range r.Values() {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	if !slices.Equal(got, []uint32{0, 1, 2}) {
		t.Errorf("got %v, want [0 1 2]", got)
	}
}

func TestCompare(t *testing.T) {
	a := ListFromRuns([]Run{{1, 3}})
	b := ListFromRuns([]Run{{1, 4}})
	c := ListFromRuns([]Run{{2, 2}})
	if a.Compare(b) >= 0 {
		t.Error("1-3 should order before 1-4")
	}
	if b.Compare(c) >= 0 {
		t.Error("1-4 should order before 2")
	}
	if a.Compare(ListFromRuns([]Run{{1, 3}})) != 0 {
		t.Error("equal ranges should compare equal")
	}
}

func TestBackendEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		xs := randomValues(rng, 300, 1000)
		ys := randomValues(rng, 300, 1000)
		la, lb := ListFromValues(xs), ListFromValues(ys)
		ta, tb := TreeFromValues(xs), TreeFromValues(ys)

		pairs := []struct {
			name string
			list *List
			tree *Tree
		}{
			{"base", la, ta},
			{"union", la.Union(lb), ta.Union(tb)},
			{"intersection", la.Intersection(lb), ta.Intersection(tb)},
			{"difference", la.Difference(lb), ta.Difference(tb)},
			{"symdiff", la.SymmetricDifference(lb), ta.SymmetricDifference(tb)},
		}
		for _, p := range pairs {
			if ls, ts := p.list.String(), p.tree.String(); ls != ts {
				t.Fatalf("round %d %s: list %q != tree %q", round, p.name, ls, ts)
			}
			if ll, tl := p.list.Len(), p.tree.Len(); ll != tl {
				t.Fatalf("round %d %s: list len %d != tree len %d", round, p.name, ll, tl)
			}
		}
		for probe := uint32(0); probe < 1000; probe += 37 {
			if la.Contains(probe) != ta.Contains(probe) {
				t.Fatalf("round %d: Contains(%d) differs between backends", round, probe)
			}
		}
	}
}

func randomValues(rng *rand.Rand, n int, span uint32) []uint32 {
	vs := make([]uint32, n)
	for i := range vs {
		vs[i] = uint32(rng.Intn(int(span)))
	}
	return vs
}

func ascending(start, stop, step uint32) []uint32 {
	var vs []uint32
	for v := start; v < stop; v += step {
		vs = append(vs, v)
	}
	return vs
}

func BenchmarkListFromValues(b *testing.B) {
	vs := randomValues(rand.New(rand.NewSource(1)), 10000, 100000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ListFromValues(vs)
	}
}

func BenchmarkTreeFromValues(b *testing.B) {
	vs := randomValues(rand.New(rand.NewSource(1)), 10000, 100000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TreeFromValues(vs)
	}
}

func BenchmarkListUnion(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := ListFromValues(randomValues(rng, 10000, 100000))
	y := ListFromValues(randomValues(rng, 10000, 100000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Union(y)
	}
}

func BenchmarkTreeUnion(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := TreeFromValues(randomValues(rng, 10000, 100000))
	y := TreeFromValues(randomValues(rng, 10000, 100000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Union(y)
	}
}

func BenchmarkListIntersection(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := ListFromValues(randomValues(rng, 10000, 100000))
	y := ListFromValues(randomValues(rng, 10000, 100000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Intersection(y)
	}
}

func BenchmarkListContains(b *testing.B) {
	x := ListFromValues(randomValues(rand.New(rand.NewSource(1)), 10000, 100000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Contains(uint32(i) % 100000)
	}
}

func BenchmarkTreeContains(b *testing.B) {
	x := TreeFromValues(randomValues(rand.New(rand.NewSource(1)), 10000, 100000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Contains(uint32(i) % 100000)
	}
}
