package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/nodefold/nodefold/pkg/groups"
	"github.com/nodefold/nodefold/pkg/nodeset"
	"github.com/spf13/cobra"
)

// setupResolver loads the group source configuration and builds the
// resolver the commands hand to the parser. The --config flag wins
// over the default search path; with no configuration anywhere the
// built-in default applies. The resolver is passed explicitly so
// repeated executions in one process stay independent.
func setupResolver() (*nodeset.Resolver, error) {
	loader := groups.NewLoader()

	var (
		cfg *groups.Config
		err error
	)
	if configPath != "" {
		cfg, err = loader.LoadFile(configPath)
	} else {
		cfg, err = loader.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group configuration: %w", err)
	}

	resolver, err := groups.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build group resolver: %w", err)
	}
	return resolver, nil
}

// gatherExpression joins node set arguments into one expression,
// reading stdin when no argument (or a lone "-") is given. Newlines
// separate specs just like spaces, so piped name-per-line output
// parses as-is.
func gatherExpression(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read node set from stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

// parseExpression resolves and parses the node set expression given
// on the command line or stdin.
func parseExpression(cmd *cobra.Command, args []string) (*nodeset.NodeSet[backend], error) {
	text, err := gatherExpression(cmd, args)
	if err != nil {
		return nil, err
	}
	resolver, err := setupResolver()
	if err != nil {
		return nil, err
	}
	return nodeset.ParseWith[backend](cmd.Context(), resolver, text)
}
