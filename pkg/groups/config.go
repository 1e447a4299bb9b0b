package groups

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"

	"github.com/nodefold/nodefold/pkg/nodeset"
)

// Config is the resolver section of a nodefold configuration file.
type Config struct {
	// Default names the source that answers unqualified @group
	// references. It must be a key of Sources.
	Default string `json:"default" validate:"required"`

	// Sources maps source names to their backend configuration.
	Sources map[string]SourceConfig `json:"sources" validate:"required,min=1,dive"`
}

// SourceConfig configures a single group source backend.
type SourceConfig struct {
	// Type selects the backend (file, command, sqlite, starlark).
	Type string `json:"type" validate:"required,oneof=file command sqlite starlark"`

	// Path is the backing file for file and sqlite sources.
	Path string `json:"path,omitempty"`

	// Map is the command line that prints the members of $GROUP.
	// Required for command sources.
	Map string `json:"map,omitempty"`

	// List is the command line that prints the available group names.
	// Optional for command sources; without it the source cannot
	// enumerate groups but can still resolve them.
	List string `json:"list,omitempty"`

	// Script is the script path for starlark sources.
	Script string `json:"script,omitempty"`

	// Timeout bounds a single upcall or script evaluation, as a Go
	// duration string such as "10s".
	Timeout string `json:"timeout,omitempty"`
}

// configSchema is the built-in CUE schema a configuration file is
// unified with before decoding. The per-type blocks make the backend
// fields required exactly when the type needs them.
const configSchema = `
#Source: {
	type: "file" | "command" | "sqlite" | "starlark"

	if type == "file" {
		path: string & !=""
	}
	if type == "command" {
		map:      string & !=""
		list?:    string
		timeout?: string
	}
	if type == "sqlite" {
		path: string & !=""
	}
	if type == "starlark" {
		script:   string & !=""
		timeout?: string
	}
}

#Config: {
	resolver: {
		default: string & !=""
		sources: [string]: #Source
	}
}
`

// ValidationError describes a single problem found in a configuration
// file, with its position when the CUE evaluator provides one.
type ValidationError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return e.Message
}

// ConfigError aggregates the validation errors from one file.
type ConfigError struct {
	File     string
	Problems []ValidationError
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid configuration: %s", e.Problems[0].Error())
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("invalid configuration (%d problems):\n  %s",
		len(e.Problems), strings.Join(msgs, "\n  "))
}

// Loader parses and validates resolver configuration written in CUE.
// A Loader is safe for repeated use; each Load call is independent.
type Loader struct {
	ctx       *cue.Context
	schema    cue.Value
	validator *validator.Validate
}

// NewLoader creates a configuration loader with the built-in schema
// compiled and ready.
func NewLoader() *Loader {
	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	return &Loader{
		ctx:       ctx,
		schema:    schema,
		validator: validator.New(),
	}
}

// LoadFile reads and parses the configuration file at path.
func (l *Loader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return l.LoadBytes(data, path)
}

// LoadBytes parses configuration held in memory. The filename is used
// for error positions only.
func (l *Loader) LoadBytes(data []byte, filename string) (*Config, error) {
	val := l.ctx.CompileString(string(data), cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, &ConfigError{File: filename, Problems: convertCUEErrors(err)}
	}

	unified := l.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &ConfigError{File: filename, Problems: convertCUEErrors(err)}
	}

	resolverVal := unified.LookupPath(cue.ParsePath("resolver"))

	var cfg Config
	if err := resolverVal.Decode(&cfg); err != nil {
		return nil, &ConfigError{File: filename, Problems: convertCUEErrors(err)}
	}

	if err := l.validator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filename, err)
	}
	if _, ok := cfg.Sources[cfg.Default]; !ok {
		return nil, &ConfigError{File: filename, Problems: []ValidationError{
			{File: filename, Message: fmt.Sprintf("default source %q is not defined under sources", cfg.Default)},
		}}
	}
	return &cfg, nil
}

// LoadDefault loads the first configuration file found on the search
// path and falls back to DefaultConfig when none exists.
func (l *Loader) LoadDefault() (*Config, error) {
	for _, path := range DefaultPaths() {
		cfg, err := l.LoadFile(path)
		if err == nil {
			return cfg, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return nil, err
	}
	return DefaultConfig(), nil
}

// DefaultPaths returns the configuration search path in priority
// order: $NODEFOLD_CONFIG, the per-user config file, the system one.
func DefaultPaths() []string {
	var paths []string
	if env := os.Getenv("NODEFOLD_CONFIG"); env != "" {
		paths = append(paths, env)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "nodefold", "config.cue"))
	}
	paths = append(paths, filepath.Join("/etc", "nodefold", "config.cue"))
	return paths
}

// DefaultConfig returns the zero-configuration setup: a single file
// source named "local" reading the conventional groups file. The
// per-user file wins over the system one when both exist.
func DefaultConfig() *Config {
	path := filepath.Join("/etc", "nodefold", "groups.yaml")
	if home, err := os.UserHomeDir(); err == nil {
		user := filepath.Join(home, ".config", "nodefold", "groups.yaml")
		if _, err := os.Stat(user); err == nil {
			path = user
		}
	}
	return &Config{
		Default: "local",
		Sources: map[string]SourceConfig{
			"local": {Type: "file", Path: path},
		},
	}
}

// Build assembles the configured sources into a resolver.
func Build(cfg *Config) (*nodeset.Resolver, error) {
	sources := make(map[string]nodeset.GroupSource, len(cfg.Sources))
	for name, sc := range cfg.Sources {
		src, err := newSource(sc)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
		sources[name] = src
	}
	return nodeset.NewResolver(cfg.Default, sources)
}

func newSource(sc SourceConfig) (nodeset.GroupSource, error) {
	timeout, err := sc.timeout()
	if err != nil {
		return nil, err
	}

	switch sc.Type {
	case "file":
		if sc.Path == "" {
			return nil, fmt.Errorf("file source requires a path")
		}
		return NewFileSource(sc.Path), nil
	case "command":
		if sc.Map == "" {
			return nil, fmt.Errorf("command source requires a map command")
		}
		return NewCommandSource(CommandConfig{
			Map:     sc.Map,
			List:    sc.List,
			Timeout: timeout,
		}), nil
	case "sqlite":
		if sc.Path == "" {
			return nil, fmt.Errorf("sqlite source requires a path")
		}
		return NewSQLiteSource(sc.Path), nil
	case "starlark":
		if sc.Script == "" {
			return nil, fmt.Errorf("starlark source requires a script")
		}
		return NewStarlarkSource(sc.Script, timeout), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", sc.Type)
	}
}

func (sc SourceConfig) timeout() (time.Duration, error) {
	if sc.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(sc.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", sc.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", sc.Timeout)
	}
	return d, nil
}

// convertCUEErrors flattens a CUE error list into positioned
// validation errors.
func convertCUEErrors(err error) []ValidationError {
	var problems []ValidationError
	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{Message: e.Error()}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			ve.File = positions[0].Filename()
			ve.Line = positions[0].Line()
			ve.Column = positions[0].Column()
		}
		problems = append(problems, ve)
	}
	if len(problems) == 0 {
		problems = append(problems, ValidationError{Message: err.Error()})
	}
	return problems
}
