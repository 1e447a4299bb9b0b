package commands

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nodefold/nodefold/pkg/nodeset"
	"github.com/nodefold/nodefold/pkg/transports/ssh"
)

const collapseRule = "---------------"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPerHost prefixes every output line with the node it came from,
// interleaving results the way dsh-style tools do.
func printPerHost(w io.Writer, results []ssh.Result) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "%s: %v\n", res.Host, res.Err)
			continue
		}
		prefixLines(w, res.Host, res.Stdout)
		prefixLines(w, res.Host, res.Stderr)
		if res.ExitCode != 0 {
			fmt.Fprintf(w, "%s: exited with %d\n", res.Host, res.ExitCode)
		}
	}
}

// printCollapsed buckets nodes by identical output and prints one
// block per bucket, headed by the folded node set. Transport
// failures never collapse; they are listed per node after the
// blocks.
func printCollapsed(w io.Writer, results []ssh.Result) {
	type key struct {
		stdout string
		stderr string
		exit   int
	}
	buckets := make(map[key][]string)
	var failed []ssh.Result
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
			continue
		}
		k := key{res.Stdout, res.Stderr, res.ExitCode}
		buckets[k] = append(buckets[k], res.Host)
	}

	type block struct {
		key    key
		folded string
		count  int
	}
	blocks := make([]block, 0, len(buckets))
	for k, hosts := range buckets {
		blocks = append(blocks, block{k, foldHosts(hosts), len(hosts)})
	}
	slices.SortFunc(blocks, func(a, b block) int {
		return cmp.Compare(a.folded, b.folded)
	})

	for _, b := range blocks {
		fmt.Fprintf(w, "%s\n%s (%d)\n%s\n", collapseRule, b.folded, b.count, collapseRule)
		if b.key.stdout != "" {
			fmt.Fprint(w, ensureNewline(b.key.stdout))
		}
		if b.key.stderr != "" {
			fmt.Fprint(w, ensureNewline(b.key.stderr))
		}
		if b.key.exit != 0 {
			fmt.Fprintf(w, "exited with %d\n", b.key.exit)
		}
	}
	for _, res := range failed {
		fmt.Fprintf(w, "%s: %v\n", res.Host, res.Err)
	}
}

func prefixLines(w io.Writer, host, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(w, "%s: %s\n", host, line)
	}
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// foldHosts folds a list of node names back into range syntax.
func foldHosts(hosts []string) string {
	ns, err := nodeset.Parse[backend](strings.Join(hosts, ","))
	if err != nil {
		return strings.Join(hosts, ",")
	}
	return ns.Fold()
}
