// Package nodeset models collections of cluster node names like
// "node[1-99]" or "rack[1-3]node[01-10]" without expanding them.
//
// Names are decomposed into a Template (literal fragments around
// numeric dimensions) and per-dimension identifier ranges from
// package rangeset. An IdSet aggregates ranges across templates and
// implements the set algebra, splitting and merging; a NodeSet wraps
// an IdSet with parsing, canonical folding and lazy name iteration.
// Everything is generic over the range backend:
//
//	ns, err := nodeset.Parse[*rangeset.List]("rack[1-2]node[1-3]")
//
// Group references ("@compute", "@slurm:gpu") are expanded during
// parsing through a Resolver, which looks groups up in pluggable
// GroupSource implementations. See package groups for the sources
// shipped with nodefold.
package nodeset
