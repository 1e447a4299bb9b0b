package groups

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/nodefold/nodefold/pkg/nodeset"
)

// CommandConfig holds the upcall command lines for a CommandSource.
type CommandConfig struct {
	// Map prints the members of the group named by $GROUP. Required.
	Map string

	// List prints the available group names, whitespace separated.
	// Optional; without it Groups returns an empty enumeration.
	List string

	// Timeout bounds a single upcall. Zero means no bound beyond the
	// caller's context.
	Timeout time.Duration
}

// CommandSource resolves groups by shelling out to an external
// inventory tool such as a workload manager. The map command runs with
// GROUP exported in its environment and prints the matching node
// specifications on stdout, whitespace separated:
//
//	map:  "sinfo -h -o '%N' -p $GROUP"
//	list: "sinfo -h -o '%R'"
type CommandSource struct {
	cfg CommandConfig
}

// NewCommandSource creates a command source with the given upcalls.
func NewCommandSource(cfg CommandConfig) *CommandSource {
	return &CommandSource{cfg: cfg}
}

// Groups implements nodeset.GroupSource.
func (s *CommandSource) Groups(ctx context.Context) ([]string, error) {
	if s.cfg.List == "" {
		return nil, nil
	}
	out, err := s.run(ctx, s.cfg.List, "")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// Members implements nodeset.GroupSource. A map command that succeeds
// but prints nothing signals an unknown group.
func (s *CommandSource) Members(ctx context.Context, group string) ([]string, error) {
	out, err := s.run(ctx, s.cfg.Map, group)
	if err != nil {
		return nil, err
	}
	specs := strings.Fields(out)
	if len(specs) == 0 {
		return nil, fmt.Errorf("%q: %w", group, nodeset.ErrUnknownGroup)
	}
	return specs, nil
}

// run executes one upcall through the shell, with GROUP exported when
// non-empty so the command line can expand $GROUP.
func (s *CommandSource) run(ctx context.Context, command, group string) (string, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Env = os.Environ()
	if group != "" {
		cmd.Env = append(cmd.Env, "GROUP="+group)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("command timed out: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("command failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("command failed: %w", err)
	}
	return stdout.String(), nil
}
