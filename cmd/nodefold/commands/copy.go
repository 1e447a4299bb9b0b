package commands

import (
	"fmt"
	"os"
	"slices"

	"github.com/nodefold/nodefold/pkg/nodeset"
	"github.com/nodefold/nodefold/pkg/transports/ssh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newCopyCommand() *cobra.Command {
	var (
		nodes   string
		fanout  int
		reverse bool
		modeStr string
		conn    sshFlags
	)

	cmd := &cobra.Command{
		Use:   "copy -w nodeset source dest",
		Short: "Copy a file to or from every node of a set",
		Long: `Copy a local file to the same remote path on every node of a set
over SFTP, with at most --fanout transfers in flight at once.
Missing remote directories are created.

With --reverse the remote path is fetched instead: each node's copy
lands in the destination directory with the node name appended, so
fetching /var/log/boot.log from node[1-2] writes boot.log.node1 and
boot.log.node2.`,
		Example: `  # Push a config to the whole rack
  nodefold copy -w 'rack1node[1-18]' ./slurm.conf /etc/slurm/slurm.conf

  # Push an executable with its mode
  nodefold copy -w @compute --mode 0755 ./probe /usr/local/bin/probe

  # Collect one file from every node
  nodefold copy -w @compute --reverse /var/log/boot.log ./logs`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dest := args[0], args[1]

			log.Debug().
				Str("nodes", nodes).
				Str("source", src).
				Str("dest", dest).
				Bool("reverse", reverse).
				Msg("Copying file")

			var mode os.FileMode
			if !reverse {
				var err error
				mode, err = parseFileMode(modeStr)
				if err != nil {
					return err
				}
			}

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

			var results []ssh.Result
			verb := "copied to"
			if reverse {
				verb = "fetched from"
				results = runner.Fetch(cmd.Context(), hosts, src, dest)
			} else {
				results = runner.Copy(cmd.Context(), hosts, src, dest, mode)
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					fmt.Fprintf(out, "%s: %v\n", res.Host, res.Err)
				}
			}
			fmt.Fprintf(out, "%s %d of %d nodes\n", verb, len(results)-failed, len(results))
			if failed > 0 {
				return fmt.Errorf("%d of %d nodes failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&nodes, "nodes", "w", "", "target node set")
	cmd.Flags().IntVar(&fanout, "fanout", ssh.DefaultFanout, "maximum concurrent transfers")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "fetch the remote path instead of pushing")
	cmd.Flags().StringVar(&modeStr, "mode", "0644", "file mode for pushed files (octal)")
	conn.register(cmd)
	cmd.MarkFlagRequired("nodes")

	return cmd
}
