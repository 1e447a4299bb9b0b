package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nodefold/nodefold/pkg/nodeset"
	"github.com/nodefold/nodefold/pkg/transports/ssh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var (
		nodes    string
		fanout   int
		collapse bool
		conn     sshFlags
	)

	cmd := &cobra.Command{
		Use:   "run -w nodeset command...",
		Short: "Run a command on every node of a set over SSH",
		Long: `Run a command on every node of a set over SSH, with at most
--fanout connections in flight at once. Output is prefixed with the
node it came from; --collapse instead buckets nodes by identical
output and folds each bucket's node list back into range syntax.

A node exiting non-zero counts as failed but does not stop the
other nodes. The exit status is non-zero when any node failed.`,
		Example: `  # Check kernel versions across a rack
  nodefold run -w 'rack1node[1-18]' uname -r

  # Collapse identical output across the whole group
  nodefold run -w @compute -b systemctl is-active slurmd

  # Low fanout for a disruptive command
  nodefold run -w @compute --fanout 4 -l root reboot`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")

			log.Debug().
				Str("nodes", nodes).
				Int("fanout", fanout).
				Bool("collapse", collapse).
				Str("command", command).
				Msg("Running command")

			resolver, err := setupResolver()
			if err != nil {
				return err
			}
			ns, err := nodeset.ParseWith[backend](cmd.Context(), resolver, nodes)
			if err != nil {
				return err
			}
			if ns.IsEmpty() {
				return fmt.Errorf("node set %q is empty", nodes)
			}
			hosts := slices.Collect(ns.Nodes())

			runner, err := ssh.NewRunner(conn.options(), fanout)
			if err != nil {
				return err
			}
			results := runner.Run(cmd.Context(), hosts, command)

			out := cmd.OutOrStdout()
			if collapse {
				printCollapsed(out, results)
			} else {
				printPerHost(out, results)
			}

			failed := 0
			for _, res := range results {
				if !res.Ok() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d nodes failed", failed, len(results))
			}
			return nil
		},
	}

	// Everything after the first positional argument belongs to the
	// remote command, so "nodefold run -w @all uname -r" needs no "--".
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVarP(&nodes, "nodes", "w", "", "target node set")
	cmd.Flags().IntVar(&fanout, "fanout", ssh.DefaultFanout, "maximum concurrent connections")
	cmd.Flags().BoolVarP(&collapse, "collapse", "b", false, "group nodes with identical output")
	conn.register(cmd)
	cmd.MarkFlagRequired("nodes")

	return cmd
}
