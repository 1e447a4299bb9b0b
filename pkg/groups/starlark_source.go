package groups

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/nodefold/nodefold/pkg/nodeset"
)

// defaultScriptTimeout bounds script evaluation when the source is
// configured without an explicit timeout.
const defaultScriptTimeout = 30 * time.Second

// StarlarkSource resolves groups by evaluating a starlark script that
// defines a module-level groups dict. A value is a specification
// string or a list of them, so inventories can be computed:
//
//	groups = {
//	    "compute": ["rack%dnode[1-18]" % r for r in range(1, 9)],
//	    "login":   "login[1-2]",
//	}
//
// The script runs once, on first use, under a timeout; the resulting
// dict is cached for the lifetime of the source.
type StarlarkSource struct {
	path    string
	timeout time.Duration

	mu     sync.Mutex
	groups map[string][]string
	loaded bool
}

// NewStarlarkSource creates a starlark source evaluating the script at
// path. A non-positive timeout selects the default.
func NewStarlarkSource(path string, timeout time.Duration) *StarlarkSource {
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}
	return &StarlarkSource{path: path, timeout: timeout}
}

func (s *StarlarkSource) load(ctx context.Context) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.groups, nil
	}

	script, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read group script: %w", err)
	}

	evalCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resultCh := make(chan map[string][]string, 1)
	errCh := make(chan error, 1)

	go func() {
		groups, err := s.evaluate(string(script))
		if err != nil {
			errCh <- err
		} else {
			resultCh <- groups
		}
	}()

	select {
	case <-evalCtx.Done():
		return nil, fmt.Errorf("group script timed out after %v", s.timeout)
	case err := <-errCh:
		return nil, fmt.Errorf("group script failed: %w", err)
	case groups := <-resultCh:
		s.groups = groups
		s.loaded = true
		return s.groups, nil
	}
}

// evaluate runs the script and extracts its groups dict.
func (s *StarlarkSource) evaluate(script string) (map[string][]string, error) {
	thread := &starlark.Thread{
		Name: "nodefold",
		Print: func(_ *starlark.Thread, msg string) {
			// Suppress print output from inventory scripts.
		},
	}

	predeclared := starlark.StringDict{
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	}

	globals, err := starlark.ExecFile(thread, s.path, script, predeclared)
	if err != nil {
		return nil, err
	}

	value, ok := globals["groups"]
	if !ok {
		return nil, fmt.Errorf("script does not define a groups dict")
	}
	dict, ok := value.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("groups must be a dict, got %s", value.Type())
	}

	groups := make(map[string][]string, dict.Len())
	for _, item := range dict.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("group name must be a string, got %s", item[0].Type())
		}
		specs, err := memberSpecs(item[1])
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", name, err)
		}
		groups[name] = specs
	}
	return groups, nil
}

// memberSpecs accepts a specification string or a list of them.
func memberSpecs(v starlark.Value) ([]string, error) {
	switch v := v.(type) {
	case starlark.String:
		return []string{string(v)}, nil
	case *starlark.List:
		specs := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			spec, ok := starlark.AsString(v.Index(i))
			if !ok {
				return nil, fmt.Errorf("member must be a string, got %s", v.Index(i).Type())
			}
			specs = append(specs, spec)
		}
		return specs, nil
	default:
		return nil, fmt.Errorf("members must be a string or a list of strings, got %s", v.Type())
	}
}

// Groups implements nodeset.GroupSource.
func (s *StarlarkSource) Groups(ctx context.Context) ([]string, error) {
	groups, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Members implements nodeset.GroupSource.
func (s *StarlarkSource) Members(ctx context.Context, group string) ([]string, error) {
	groups, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	specs, ok := groups[group]
	if !ok {
		return nil, fmt.Errorf("%q: %w", group, nodeset.ErrUnknownGroup)
	}
	return specs, nil
}
