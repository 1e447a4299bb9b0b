package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newCountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [nodeset...]",
		Short: "Count the nodes of a set without expanding it",
		Long: `Print the number of nodes a set expression covers. The count comes
from range arithmetic, so counting "node[1-1000000]" does not build
a million names.

With no arguments (or a single "-") the expression is read from
stdin.`,
		Example: `  # Count a range
  nodefold count 'node[1-64]'

  # Count a union of groups
  nodefold count @compute @gpu`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Debug().Strs("args", args).Msg("Counting node set")

			ns, err := parseExpression(cmd, args)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), struct {
					Count uint64 `json:"count"`
				}{ns.Len()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), ns.Len())
			return nil
		},
	}

	return cmd
}
