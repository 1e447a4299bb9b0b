// Package rangeset implements compact sets of numeric node identifiers
// stored as sorted, disjoint closed intervals. Two interchangeable
// backends are provided: List for cheap construction and sequential
// scans, and Tree for repeated membership queries on large sets.
package rangeset
