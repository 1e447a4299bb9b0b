package nodeset

import (
	"fmt"
	"testing"

	"github.com/nodefold/nodefold/pkg/rangeset"
)

func pushAll[R rangeset.IdRange[R]](t *testing.T, specs ...string) *IdSet[R] {
	t.Helper()
	s := NewIdSet[R]()
	for _, spec := range specs {
		if err := s.Push(spec); err != nil {
			t.Fatalf("Push(%q): %v", spec, err)
		}
	}
	return s
}

func TestPushAggregatesByPrefix(t *testing.T) {
	s := pushAll[*rangeset.List](t, "node[1-5]", "node[4-9]", "web3")
	if got := s.String(); got != "node[1-9],web3" {
		t.Errorf("String() = %q, want %q", got, "node[1-9],web3")
	}
	if got := s.Len(); got != 10 {
		t.Errorf("Len() = %d, want 10", got)
	}
}

func TestPushRejectsNonSpecs(t *testing.T) {
	s := NewIdSet[*rangeset.List]()
	for _, spec := range []string{"", "@compute", "node["} {
		if err := s.Push(spec); err == nil {
			t.Errorf("Push(%q) succeeded, want error", spec)
		}
	}
}

func TestOverlapStoredOnce(t *testing.T) {
	s := pushAll[*rangeset.List](t, "node[1-10]", "node[5-15]")
	if got := s.Len(); got != 15 {
		t.Errorf("Len() = %d, want 15", got)
	}
	s2 := pushAll[*rangeset.List](t, "login", "login")
	if got := s2.Len(); got != 1 {
		t.Errorf("literal Len() = %d, want 1", got)
	}
	if got := s2.String(); got != "login" {
		t.Errorf("literal String() = %q, want %q", got, "login")
	}
}

func TestFullSplitAndMerge(t *testing.T) {
	s := pushAll[*rangeset.List](t, "rack[1-2]node[1-3]")
	s.FullSplit()
	want := "rack1node1,rack1node2,rack1node3,rack2node1,rack2node2,rack2node3"
	if got := s.String(); got != want {
		t.Errorf("after FullSplit: %q, want %q", got, want)
	}
	if got := s.Len(); got != 6 {
		t.Errorf("Len() after FullSplit = %d, want 6", got)
	}
	s.Merge()
	if got := s.String(); got != "rack[1-2]node[1-3]" {
		t.Errorf("after Merge: %q, want %q", got, "rack[1-2]node[1-3]")
	}
	s.Merge()
	if got := s.String(); got != "rack[1-2]node[1-3]" {
		t.Errorf("Merge not idempotent: %q", got)
	}
}

func TestFullSplitKeepsPadding(t *testing.T) {
	s := pushAll[*rangeset.List](t, "node[01-02]")
	s.FullSplit()
	if got := s.String(); got != "node01,node02" {
		t.Errorf("after FullSplit: %q, want %q", got, "node01,node02")
	}
	s.Merge()
	if got := s.String(); got != "node[01-02]" {
		t.Errorf("after Merge: %q, want %q", got, "node[01-02]")
	}
}

func TestFullSplitLeavesLiterals(t *testing.T) {
	s := pushAll[*rangeset.List](t, "login")
	s.FullSplit()
	if got := s.String(); got != "login" {
		t.Errorf("after FullSplit: %q, want %q", got, "login")
	}
}

func TestMergeFoldsAcrossAxes(t *testing.T) {
	// four unit corners describing a full 2x2 block
	s := pushAll[*rangeset.List](t, "a1b1", "a2b2", "a1b2", "a2b1")
	if got := s.String(); got != "a[1-2]b[1-2]" {
		t.Errorf("String() = %q, want %q", got, "a[1-2]b[1-2]")
	}
	if got := s.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
}

func TestIdSetTreeBackend(t *testing.T) {
	s := pushAll[*rangeset.Tree](t, "node[1-5]", "node[9]", "node[6-8]")
	if got := s.String(); got != "node[1-9]" {
		t.Errorf("String() = %q, want %q", got, "node[1-9]")
	}
	s.FullSplit()
	if got := s.Len(); got != 9 {
		t.Errorf("Len() after FullSplit = %d, want 9", got)
	}
	s.Merge()
	if got := s.String(); got != "node[1-9]" {
		t.Errorf("after Merge: %q, want %q", got, "node[1-9]")
	}
}

func benchIdSet(n int) *IdSet[*rangeset.List] {
	s := NewIdSet[*rangeset.List]()
	for r := 1; r <= 4; r++ {
		s.Push(fmt.Sprintf("rack%dnode[1-%d]", r, n))
	}
	return s
}

func BenchmarkIdSetPush(b *testing.B) {
	for i := 0; i < b.N; i++ {
		benchIdSet(1000)
	}
}

func BenchmarkIdSetIntersection(b *testing.B) {
	x := benchIdSet(1000)
	y := NewIdSet[*rangeset.List]()
	for r := 3; r <= 6; r++ {
		y.Push(fmt.Sprintf("rack%dnode[500-1500]", r))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Intersection(y)
	}
}

func BenchmarkIdSetFullSplitMerge(b *testing.B) {
	base := benchIdSet(200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := base.clone()
		s.FullSplit()
		s.Merge()
	}
}

func BenchmarkIdSetString(b *testing.B) {
	s := NewIdSet[*rangeset.List]()
	for v := 1; v <= 2000; v += 2 {
		s.Push(fmt.Sprintf("node%d", v))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.String()
	}
}
