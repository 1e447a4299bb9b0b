package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newExpandCommand() *cobra.Command {
	var separator string

	cmd := &cobra.Command{
		Use:     "expand [nodeset...]",
		Aliases: []string{"list"},
		Short:   "Expand a node set into individual names",
		Long: `Expand a node set expression into its individual node names, in
the set's canonical order.

With no arguments (or a single "-") the expression is read from
stdin.`,
		Example: `  # Expand a padded range
  nodefold expand 'node[01-03]'

  # One name per line for xargs-style consumers
  nodefold expand -s '\n' @compute

  # Expand a multi-dimensional set
  nodefold expand 'rack[1-2]node[1-3]'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Debug().Strs("args", args).Str("separator", separator).Msg("Expanding node set")

			ns, err := parseExpression(cmd, args)
			if err != nil {
				return err
			}

			names := slices.Collect(ns.Nodes())
			if names == nil {
				names = []string{}
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), names)
			}

			// Accept the literal escapes shell users reach for.
			sep := strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(separator)
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, sep))
			return nil
		},
	}

	cmd.Flags().StringVarP(&separator, "separator", "s", " ", "separator between names")

	return cmd
}
