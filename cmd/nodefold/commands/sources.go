package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the configured group sources",
		Long: `List the group sources the active configuration defines, sorted,
with the default source marked. Group references without a source
prefix ("@compute") resolve against the default.`,
		Example: `  # Sources of the active configuration
  nodefold sources

  # Sources of a specific configuration file
  nodefold sources --config ./cluster.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Debug().Str("config", configPath).Msg("Listing group sources")

			resolver, err := setupResolver()
			if err != nil {
				return err
			}

			names := resolver.Sources()
			def := resolver.DefaultSource()

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), struct {
					Default string   `json:"default"`
					Sources []string `json:"sources"`
				}{def, names})
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				if name == def {
					fmt.Fprintf(out, "%s (default)\n", name)
				} else {
					fmt.Fprintln(out, name)
				}
			}
			return nil
		},
	}

	return cmd
}
