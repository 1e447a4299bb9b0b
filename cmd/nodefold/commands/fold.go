package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newFoldCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fold [nodeset...]",
		Short: "Fold node names into compact range syntax",
		Long: `Fold one or more node set expressions into canonical form.

All arguments are unioned before folding. With no arguments (or a
single "-") the expression is read from stdin, so fold composes with
tools that print one node name per line.`,
		Example: `  # Fold a list of names
  nodefold fold node1 node2 node3 node10

  # Union of ranges and a group
  nodefold fold 'node[1-5]' 'node[4-9]' @gpu

  # Fold names streamed on stdin
  sinfo -N -h -o '%N' | nodefold fold -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Debug().Strs("args", args).Msg("Folding node set")

			ns, err := parseExpression(cmd, args)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), struct {
					Nodeset string `json:"nodeset"`
					Count   uint64 `json:"count"`
				}{ns.Fold(), ns.Len()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), ns.Fold())
			return nil
		},
	}

	return cmd
}
