package nodeset

import (
	"errors"
	"fmt"
)

// ErrUnknownGroup is the sentinel a GroupSource returns from Members
// when the requested group does not exist in that source. The
// resolver turns it into a GroupNotFoundError carrying the source
// name.
var ErrUnknownGroup = errors.New("unknown group")

// ParseError reports malformed node set syntax: unbalanced brackets,
// inverted or non-numeric ranges, bad group references. It is always
// recoverable; callers decide whether to abort or skip the input.
type ParseError struct {
	// Input is the offending specification fragment.
	Input string
	// Reason describes what was wrong with it.
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

func parseErrorf(input, format string, args ...any) error {
	return &ParseError{Input: input, Reason: fmt.Sprintf(format, args...)}
}

// SourceNotFoundError reports a group reference naming a source the
// resolver has no registration for.
type SourceNotFoundError struct {
	Source string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("group source %q is not configured", e.Source)
}

// GroupNotFoundError reports a group absent from the source that was
// asked for it.
type GroupNotFoundError struct {
	Source string
	Group  string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("group %q not found in source %q", e.Group, e.Source)
}

// SourceError wraps a provider failure (unreachable file, failed
// command, broken database) with the source name. The resolver never
// retries; the wrapped error is reachable through errors.Unwrap.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("group source %q: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
