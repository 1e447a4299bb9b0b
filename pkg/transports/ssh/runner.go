package ssh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultFanout is the number of targets worked on concurrently when
// the caller does not choose one.
const DefaultFanout = 64

// Runner executes the same operation across many targets with a
// bounded fanout. Results come back in target order, one per target,
// failures included.
type Runner struct {
	opts   *Options
	fanout int

	// dial is swapped out by tests.
	dial func(ctx context.Context, opts *Options, host string) (*Client, error)
}

// NewRunner validates the options and creates a runner. A
// non-positive fanout selects DefaultFanout.
func NewRunner(opts *Options, fanout int) (*Runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &Runner{opts: opts, fanout: fanout, dial: Dial}, nil
}

// Run executes command on every host.
func (r *Runner) Run(ctx context.Context, hosts []string, command string) []Result {
	runID := uuid.NewString()
	log.Info().
		Str("run_id", runID).
		Int("targets", len(hosts)).
		Int("fanout", r.fanout).
		Str("command", command).
		Msg("starting run")

	results := r.each(ctx, hosts, func(ctx context.Context, host string) Result {
		return r.runOne(ctx, host, command)
	})

	failed := 0
	for _, res := range results {
		if !res.Ok() {
			failed++
		}
	}
	log.Info().
		Str("run_id", runID).
		Int("targets", len(hosts)).
		Int("failed", failed).
		Msg("run complete")
	return results
}

// Copy uploads localPath to remotePath on every host.
func (r *Runner) Copy(ctx context.Context, hosts []string, localPath, remotePath string, mode os.FileMode) []Result {
	runID := uuid.NewString()
	log.Info().
		Str("run_id", runID).
		Int("targets", len(hosts)).
		Str("local", localPath).
		Str("remote", remotePath).
		Msg("starting copy")

	return r.each(ctx, hosts, func(ctx context.Context, host string) Result {
		start := time.Now()
		client, err := r.dial(ctx, r.opts, host)
		if err != nil {
			return Result{Host: host, ExitCode: -1, Duration: time.Since(start), Err: err}
		}
		defer client.Close()

		if err := client.Upload(ctx, localPath, remotePath, mode); err != nil {
			return Result{Host: host, ExitCode: -1, Duration: time.Since(start), Err: err}
		}
		return Result{Host: host, Duration: time.Since(start)}
	})
}

// Fetch downloads remotePath from every host into localDir. Each
// host's copy keeps the remote base name with the host appended, the
// way pdcp does on reverse copy.
func (r *Runner) Fetch(ctx context.Context, hosts []string, remotePath, localDir string) []Result {
	runID := uuid.NewString()
	log.Info().
		Str("run_id", runID).
		Int("targets", len(hosts)).
		Str("remote", remotePath).
		Str("local", localDir).
		Msg("starting fetch")

	return r.each(ctx, hosts, func(ctx context.Context, host string) Result {
		start := time.Now()
		client, err := r.dial(ctx, r.opts, host)
		if err != nil {
			return Result{Host: host, ExitCode: -1, Duration: time.Since(start), Err: err}
		}
		defer client.Close()

		localPath := filepath.Join(localDir, filepath.Base(remotePath)+"."+host)
		if err := client.Download(ctx, remotePath, localPath); err != nil {
			return Result{Host: host, ExitCode: -1, Duration: time.Since(start), Err: err}
		}
		return Result{Host: host, Duration: time.Since(start)}
	})
}

// each applies op to every host with at most fanout in flight.
func (r *Runner) each(ctx context.Context, hosts []string, op func(ctx context.Context, host string) Result) []Result {
	results := make([]Result, len(hosts))
	sem := make(chan struct{}, r.fanout)
	var wg sync.WaitGroup

	for i, host := range hosts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = op(ctx, host)
		}()
	}
	wg.Wait()

	return results
}

func (r *Runner) runOne(ctx context.Context, host, command string) Result {
	start := time.Now()

	client, err := r.dial(ctx, r.opts, host)
	if err != nil {
		return Result{Host: host, ExitCode: -1, Duration: time.Since(start), Err: err}
	}
	defer client.Close()

	result, err := client.Execute(ctx, command)
	result.Err = err
	result.Duration = time.Since(start)
	return result
}
