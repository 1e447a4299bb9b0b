package nodeset

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nodefold/nodefold/pkg/rangeset"
)

// maxRefDepth bounds group-reference nesting so cyclic group
// configurations fail with a ParseError instead of recursing forever.
const maxRefDepth = 16

// Parse builds a NodeSet from a node set expression: node
// specifications separated by whitespace or top-level commas, each
// either a name pattern ("node[01-10]", "rack[1-2]node[1-3]",
// "login1") or a group reference ("@compute", "@slurm:gpu"). Group
// references resolve through the process default resolver; Parse
// panics if one is needed and SetDefault was never called.
func Parse[R rangeset.IdRange[R]](text string) (*NodeSet[R], error) {
	return parseDepth[R](context.Background(), nil, text, 0)
}

// ParseWith is Parse with an explicit resolver and context. The
// context is handed to group sources, which may perform I/O.
func ParseWith[R rangeset.IdRange[R]](ctx context.Context, r *Resolver, text string) (*NodeSet[R], error) {
	return parseDepth[R](ctx, r, text, 0)
}

func parseDepth[R rangeset.IdRange[R]](ctx context.Context, r *Resolver, text string, depth int) (*NodeSet[R], error) {
	if depth > maxRefDepth {
		return nil, parseErrorf(text, "group references nested deeper than %d, configuration cycle likely", maxRefDepth)
	}
	specs, err := splitSpecs(text)
	if err != nil {
		return nil, err
	}
	ns := NewNodeSet[R]()
	for _, spec := range specs {
		if spec[0] == '@' {
			ref, err := resolveRef[R](ctx, r, spec, depth)
			if err != nil {
				return nil, err
			}
			ns.set.absorb(ref.set)
			continue
		}
		if err := ns.set.Push(spec); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

func resolveRef[R rangeset.IdRange[R]](ctx context.Context, r *Resolver, spec string, depth int) (*NodeSet[R], error) {
	name := spec[1:]
	source, group, found := strings.Cut(name, ":")
	if !found {
		source, group = "", name
	}
	if group == "" {
		return nil, parseErrorf(spec, "empty group name in reference")
	}
	if r == nil {
		r = Default()
	}
	return resolveDepth[R](ctx, r, source, group, depth+1)
}

// splitSpecs cuts the expression on whitespace and on commas outside
// brackets. Empty tokens are skipped.
func splitSpecs(text string) ([]string, error) {
	var specs []string
	depth := 0
	start := 0
	flush := func(end int) {
		if tok := text[start:end]; tok != "" {
			specs = append(specs, tok)
		}
	}
	for i, c := range text {
		switch {
		case c == '[':
			depth++
		case c == ']':
			if depth == 0 {
				return nil, parseErrorf(text, "unbalanced ']'")
			}
			depth--
		case (c == ',' || unicode.IsSpace(c)) && depth == 0:
			flush(i)
			start = i + utf8.RuneLen(c)
		}
	}
	if depth != 0 {
		return nil, parseErrorf(text, "unbalanced '['")
	}
	flush(len(text))
	return specs, nil
}

// parseSpec parses a single name pattern into its template and
// product. Digit runs outside brackets become single-id dimensions,
// so "rack2node[1-3]" and "rack[1-2]node5" land in the same
// template.
func parseSpec[R rangeset.IdRange[R]](spec string) (Template, Product[R], error) {
	var none Product[R]
	if spec == "" {
		return Template{}, none, parseErrorf(spec, "empty node name")
	}
	if spec[0] == '@' {
		return Template{}, none, parseErrorf(spec, "group references are resolved by Parse, not Push")
	}
	var frags []string
	var dims []R
	var lit strings.Builder
	i := 0
	for i < len(spec) {
		switch c := spec[i]; {
		case c == '[':
			rel := strings.IndexByte(spec[i:], ']')
			if rel < 0 {
				return Template{}, none, parseErrorf(spec, "unbalanced '['")
			}
			r, err := parseRange[R](spec, spec[i+1:i+rel])
			if err != nil {
				return Template{}, none, err
			}
			frags = append(frags, lit.String())
			lit.Reset()
			dims = append(dims, r)
			i += rel + 1
		case c == ']':
			return Template{}, none, parseErrorf(spec, "unbalanced ']'")
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(spec) && spec[j] >= '0' && spec[j] <= '9' {
				j++
			}
			r, err := parseSingle[R](spec, spec[i:j])
			if err != nil {
				return Template{}, none, err
			}
			frags = append(frags, lit.String())
			lit.Reset()
			dims = append(dims, r)
			i = j
		default:
			lit.WriteByte(c)
			i++
		}
	}
	frags = append(frags, lit.String())
	return Template{fragments: frags}, Product[R]{Dims: dims}, nil
}

// parseRange parses bracket content: comma-separated values and a-b
// spans. The display width is the widest leading-zero left endpoint.
func parseRange[R rangeset.IdRange[R]](spec, content string) (R, error) {
	var zero R
	if content == "" {
		return zero, parseErrorf(spec, "empty range")
	}
	var runs []rangeset.Run
	pad := 0
	for _, item := range strings.Split(content, ",") {
		lo, hi, spanned := strings.Cut(item, "-")
		a, err := strconv.ParseUint(lo, 10, 32)
		if err != nil {
			return zero, parseErrorf(spec, "invalid range item %q", item)
		}
		b := a
		if spanned {
			if b, err = strconv.ParseUint(hi, 10, 32); err != nil {
				return zero, parseErrorf(spec, "invalid range item %q", item)
			}
		}
		if b < a {
			return zero, parseErrorf(spec, "inverted range %q", item)
		}
		runs = append(runs, rangeset.Run{Start: uint32(a), End: uint32(b)})
		pad = max(pad, explicitPad(lo))
	}
	return zero.FromRuns(runs).WithPadding(pad), nil
}

// parseSingle parses a bare digit run such as the "042" in
// "node042".
func parseSingle[R rangeset.IdRange[R]](spec, digits string) (R, error) {
	var zero R
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return zero, parseErrorf(spec, "id %q out of range", digits)
	}
	r := zero.FromRuns([]rangeset.Run{{Start: uint32(v), End: uint32(v)}})
	return r.WithPadding(explicitPad(digits)), nil
}

// explicitPad reports the display width a written id asks for: only
// a leading zero makes the width explicit, so "10" requests none and
// "010" requests three.
func explicitPad(digits string) int {
	if len(digits) > 1 && digits[0] == '0' {
		return len(digits)
	}
	return 0
}
