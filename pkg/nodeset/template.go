package nodeset

import (
	"slices"
	"strings"
)

// Template is the shape of a compound node name: literal fragments
// interleaved with numeric dimensions. "rack3node12" and
// "rack[1-2]node[1-10]" share the template {"rack", "node", ""}.
// A name without digits is a zero-dimension template holding the
// whole name as its only fragment.
type Template struct {
	// fragments always holds Dims()+1 entries; leading and trailing
	// entries may be empty.
	fragments []string
}

// Dims returns the number of numeric dimensions.
func (t Template) Dims() int {
	if len(t.fragments) == 0 {
		return 0
	}
	return len(t.fragments) - 1
}

// Key returns the map key identifying this template. Unit separator
// keeps "ab"+"c" distinct from "a"+"bc".
func (t Template) Key() string {
	return strings.Join(t.fragments, "\x1f")
}

// Compare orders templates by their fragment sequences, which gives
// folded output its stable prefix order.
func (t Template) Compare(o Template) int {
	return slices.Compare(t.fragments, o.fragments)
}

// format assembles a concrete node name from rendered per-dimension
// values.
func (t Template) format(values []string) string {
	var b strings.Builder
	for i, v := range values {
		b.WriteString(t.fragments[i])
		b.WriteString(v)
	}
	b.WriteString(t.fragments[len(t.fragments)-1])
	return b.String()
}
