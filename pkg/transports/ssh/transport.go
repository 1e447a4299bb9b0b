// Package ssh runs commands and copies files on the nodes of a node
// set over SSH, with a bounded fanout.
package ssh

import (
	"fmt"
	"time"
)

// Result is the outcome of one operation on one target.
type Result struct {
	// Host is the target this result belongs to.
	Host string

	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// ExitCode is the remote exit status. It is -1 when the command
	// did not run to completion, for copies it stays 0 on success.
	ExitCode int

	// Duration covers connecting through completion.
	Duration time.Duration

	// Err reports connection and transport failures. A command that
	// ran and exited non-zero is not a transport failure; inspect
	// ExitCode for that.
	Err error
}

// Ok reports whether the operation ran to completion and exited zero.
func (r Result) Ok() bool {
	return r.Err == nil && r.ExitCode == 0
}

// TransportError represents an error from the transport layer.
type TransportError struct {
	// Op is the operation that failed (e.g. "connect", "execute").
	Op string

	// Host is the target the operation was addressed to.
	Host string

	// Err is the underlying error.
	Err error

	// IsTemporary indicates the error may clear on retry.
	IsTemporary bool

	// IsAuthError indicates the failure is credential-related.
	IsAuthError bool
}

func (e *TransportError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Host, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Temporary() bool {
	return e.IsTemporary
}
