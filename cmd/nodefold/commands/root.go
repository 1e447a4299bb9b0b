// Package commands implements the nodefold CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/nodefold/nodefold/pkg/rangeset"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// The CLI works on the list backend; the tree backend targets
// long-lived embedders with churn-heavy sets.
type backend = *rangeset.List

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nodefold",
		Short: "nodefold - cluster node set arithmetic",
		Long: `nodefold folds, expands and counts cluster node sets, lists named
groups from configurable sources, and runs commands or copies files
across the nodes of a set over SSH.

Node sets use the compact range syntax common on HPC clusters:
  node[01-64]              64 zero-padded names
  rack[1-2]node[1-18]      two dimensions, 36 names
  @compute                 a named group
  @slurm:gpu               a group from a specific source`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		SilenceUsage: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "group source config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newFoldCommand())
	rootCmd.AddCommand(newExpandCommand())
	rootCmd.AddCommand(newCountCommand())
	rootCmd.AddCommand(newGroupsCommand())
	rootCmd.AddCommand(newSourcesCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newCopyCommand())

	return rootCmd
}
