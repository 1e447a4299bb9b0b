package groups

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nodefold/nodefold/pkg/nodeset"
)

// FileSource resolves groups from a YAML file mapping group names to
// node specifications. A value is either a single specification or a
// list of them:
//
//	groups:
//	  compute: "node[1-64]"
//	  gpu:
//	    - gpu[01-08]
//	    - dgx[1-2]
//	  all: "@compute,@gpu"
//
// The file is read on first use and cached for the lifetime of the
// source. A missing file behaves as an empty source, so the
// zero-configuration default works on hosts without a groups file.
type FileSource struct {
	path string

	mu     sync.Mutex
	groups map[string][]string
	loaded bool
}

// NewFileSource creates a file source backed by the YAML file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// fileFormat mirrors the YAML layout of a groups file.
type fileFormat struct {
	Groups map[string]groupValue `yaml:"groups"`
}

// groupValue accepts either a single string or a sequence of strings.
type groupValue []string

func (v *groupValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*v = groupValue{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*v = groupValue(list)
		return nil
	default:
		return fmt.Errorf("line %d: group value must be a string or a list of strings", node.Line)
	}
}

func (s *FileSource) load() (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.groups, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.groups = map[string][]string{}
			s.loaded = true
			return s.groups, nil
		}
		return nil, fmt.Errorf("failed to read groups file: %w", err)
	}

	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse groups file %s: %w", s.path, err)
	}

	groups := make(map[string][]string, len(raw.Groups))
	for name, specs := range raw.Groups {
		groups[name] = specs
	}
	s.groups = groups
	s.loaded = true
	return s.groups, nil
}

// Groups implements nodeset.GroupSource.
func (s *FileSource) Groups(ctx context.Context) ([]string, error) {
	groups, err := s.load()
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
func (s *FileSource) Members(ctx context.Context, group string) ([]string, error) {
	groups, err := s.load()
	if err != nil {
		return nil, err
	}
	specs, ok := groups[group]
	if !ok {
		return nil, fmt.Errorf("%q: %w", group, nodeset.ErrUnknownGroup)
	}
	return specs, nil
}
