package commands

import (
	"fmt"
	"strings"

	"github.com/nodefold/nodefold/pkg/nodeset"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newGroupsCommand() *cobra.Command {
	var (
		allSources  bool
		sourceName  string
		showMembers bool
	)

	cmd := &cobra.Command{
		Use:   "groups [nodeset...]",
		Short: "List the groups known to the configured sources",
		Long: `List the groups of the default source as @name references, sorted.
Groups from other sources print as @source:name.

With --source the named source is listed instead; --all walks every
configured source. A node set argument restricts the listing to
groups that intersect it. --members appends each group's members in
folded form.`,
		Example: `  # Groups of the default source
  nodefold groups

  # Every source, with members
  nodefold groups --all --members

  # Which groups does node42 belong to?
  nodefold groups node42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if allSources && sourceName != "" {
				return fmt.Errorf("--all and --source are mutually exclusive")
			}

			log.Debug().
				Bool("all", allSources).
				Str("source", sourceName).
				Bool("members", showMembers).
				Strs("args", args).
				Msg("Listing groups")

			resolver, err := setupResolver()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var filter *nodeset.NodeSet[backend]
			if len(args) > 0 {
				filter, err = nodeset.ParseWith[backend](ctx, resolver, strings.Join(args, " "))
				if err != nil {
					return err
				}
			}

			sources := []string{resolver.DefaultSource()}
			if allSources {
				sources = resolver.Sources()
			} else if sourceName != "" {
				sources = []string{sourceName}
			}

			type groupEntry struct {
				Name   string `json:"name"`
				Source string `json:"source"`
				Nodes  string `json:"nodes,omitempty"`
				Count  uint64 `json:"count,omitempty"`
			}
			entries := []groupEntry{}

			for _, src := range sources {
				names, err := resolver.ListGroups(ctx, src)
				if err != nil {
					return err
				}
				for _, name := range names {
					var members *nodeset.NodeSet[backend]
					if showMembers || filter != nil {
						members, err = nodeset.Resolve[backend](ctx, resolver, src, name)
						if err != nil {
							return err
						}
					}
					if filter != nil && members.Intersection(filter).IsEmpty() {
						continue
					}
					entry := groupEntry{Name: name, Source: src}
					if showMembers {
						entry.Nodes = members.Fold()
						entry.Count = members.Len()
					}
					entries = append(entries, entry)
				}
			}

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), entries)
			}

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				ref := "@" + entry.Name
				if entry.Source != resolver.DefaultSource() {
					ref = "@" + entry.Source + ":" + entry.Name
				}
				if showMembers {
					fmt.Fprintf(out, "%s %s\n", ref, entry.Nodes)
				} else {
					fmt.Fprintln(out, ref)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&allSources, "all", "a", false, "list groups from every source")
	cmd.Flags().StringVarP(&sourceName, "source", "s", "", "list groups from a specific source")
	cmd.Flags().BoolVarP(&showMembers, "members", "m", false, "append each group's members")

	return cmd
}
