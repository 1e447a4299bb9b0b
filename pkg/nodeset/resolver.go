package nodeset

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/nodefold/nodefold/pkg/rangeset"
)

// GroupSource provides named groups of nodes. Implementations live
// outside this package (files, commands, databases, scripts); the
// resolver only sees raw member specifications and parses them
// itself. Sources may block on I/O, so both methods take a context.
type GroupSource interface {
	// Groups enumerates the group names the source can resolve.
	Groups(ctx context.Context) ([]string, error)
	// Members returns the node specifications belonging to group.
	// A missing group is reported with ErrUnknownGroup, possibly
	// wrapped.
	Members(ctx context.Context, group string) ([]string, error)
}

// Resolver maps source names to group sources and designates one of
// them as the default for bare "@group" references. It is immutable
// after construction, so concurrent lookups need no locking.
//
// A nil *Resolver is the unconfigured state: using it to resolve
// anything panics, because a group reference without a configured
// resolver is a programming error, not a runtime condition.
type Resolver struct {
	defaultSource string
	sources       map[string]GroupSource
}

// NewResolver builds a resolver. With a non-empty source map the
// default name must denote one of the entries; with no sources the
// default must be empty, giving a resolver that knows no groups but
// is still configured.
func NewResolver(defaultSource string, sources map[string]GroupSource) (*Resolver, error) {
	if len(sources) == 0 {
		if defaultSource != "" {
			return nil, fmt.Errorf("nodeset: default source %q configured without any sources", defaultSource)
		}
		return &Resolver{sources: map[string]GroupSource{}}, nil
	}
	if defaultSource == "" {
		return nil, errors.New("nodeset: a default source name is required")
	}
	if _, ok := sources[defaultSource]; !ok {
		return nil, fmt.Errorf("nodeset: default source %q is not among the configured sources", defaultSource)
	}
	srcs := make(map[string]GroupSource, len(sources))
	for name, src := range sources {
		if name == "" {
			return nil, errors.New("nodeset: source names must be non-empty")
		}
		if src == nil {
			return nil, fmt.Errorf("nodeset: source %q is nil", name)
		}
		srcs[name] = src
	}
	return &Resolver{defaultSource: defaultSource, sources: srcs}, nil
}

func (r *Resolver) mustBeConfigured() {
	if r == nil {
		panic("nodeset: resolver is not configured")
	}
}

// DefaultSource returns the name bare group references resolve
// against, empty for a resolver with no sources.
func (r *Resolver) DefaultSource() string {
	r.mustBeConfigured()
	return r.defaultSource
}

// Sources lists the configured source names, default first, the rest
// sorted.
func (r *Resolver) Sources() []string {
	r.mustBeConfigured()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		if name != r.defaultSource {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	if r.defaultSource != "" {
		names = append([]string{r.defaultSource}, names...)
	}
	return names
}

// ListGroups returns the sorted group names of one source, the
// default one when source is empty.
func (r *Resolver) ListGroups(ctx context.Context, source string) ([]string, error) {
	name, src, err := r.lookup(source)
	if err != nil {
		return nil, err
	}
	groups, err := src.Groups(ctx)
	if err != nil {
		return nil, &SourceError{Source: name, Err: err}
	}
	slices.Sort(groups)
	return slices.Compact(groups), nil
}

// ListAllGroups returns the group names of every source, keyed by
// source name. The first failing source aborts the listing.
func (r *Resolver) ListAllGroups(ctx context.Context) (map[string][]string, error) {
	r.mustBeConfigured()
	all := make(map[string][]string, len(r.sources))
	for name := range r.sources {
		groups, err := r.ListGroups(ctx, name)
		if err != nil {
			return nil, err
		}
		all[name] = groups
	}
	return all, nil
}

func (r *Resolver) lookup(source string) (string, GroupSource, error) {
	r.mustBeConfigured()
	name := source
	if name == "" {
		name = r.defaultSource
	}
	src, ok := r.sources[name]
	if !ok {
		return "", nil, &SourceNotFoundError{Source: name}
	}
	return name, src, nil
}

// Resolve expands one group into a NodeSet. An empty source selects
// the default. Member specifications may themselves contain group
// references, which resolve through the same resolver.
//
// Resolve is a function rather than a Resolver method because Go
// methods cannot take type parameters.
func Resolve[R rangeset.IdRange[R]](ctx context.Context, r *Resolver, source, group string) (*NodeSet[R], error) {
	return resolveDepth[R](ctx, r, source, group, 0)
}

func resolveDepth[R rangeset.IdRange[R]](ctx context.Context, r *Resolver, source, group string, depth int) (*NodeSet[R], error) {
	name, src, err := r.lookup(source)
	if err != nil {
		return nil, err
	}
	members, err := src.Members(ctx, group)
	if err != nil {
		if errors.Is(err, ErrUnknownGroup) {
			return nil, &GroupNotFoundError{Source: name, Group: group}
		}
		return nil, &SourceError{Source: name, Err: err}
	}
	ns := NewNodeSet[R]()
	for _, member := range members {
		part, err := parseDepth[R](ctx, r, member, depth)
		if err != nil {
			return nil, err
		}
		ns.set.absorb(part.set)
	}
	return ns, nil
}

var defaultResolver atomic.Pointer[Resolver]

// SetDefault installs the process-wide resolver used by Parse for
// group references. It may be called exactly once, before any
// resolution; a second call panics. Libraries should prefer
// ParseWith and leave the default to the application.
func SetDefault(r *Resolver) {
	if r == nil {
		panic("nodeset: SetDefault called with nil resolver")
	}
	if !defaultResolver.CompareAndSwap(nil, r) {
		panic("nodeset: default resolver already configured")
	}
}

// Default returns the process-wide resolver. It panics when
// SetDefault has not run; resolving groups without configuration is
// a programming error.
func Default() *Resolver {
	r := defaultResolver.Load()
	if r == nil {
		panic("nodeset: resolver is not configured")
	}
	return r
}
