package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
)

// Client is a connection to a single target host.
type Client struct {
	host string
	opts *Options
	conn *ssh.Client
}

// Dial connects to host using the shared options. The context bounds
// the connection attempt.
func Dial(ctx context.Context, opts *Options, host string) (*Client, error) {
	clientConfig, err := opts.BuildClientConfig()
	if err != nil {
		return nil, &TransportError{
			Op:          "connect",
			Host:        host,
			Err:         err,
			IsAuthError: true,
		}
	}

	address := opts.address(host)
	log.Debug().Str("address", address).Msg("establishing SSH connection")

	connChan := make(chan *ssh.Client, 1)
	errChan := make(chan error, 1)

	go func() {
		conn, err := ssh.Dial("tcp", address, clientConfig)
		if err != nil {
			errChan <- err
			return
		}
		connChan <- conn
	}()

	select {
	case <-ctx.Done():
		return nil, &TransportError{
			Op:          "connect",
			Host:        host,
			Err:         ctx.Err(),
			IsTemporary: true,
		}
	case err := <-errChan:
		return nil, &TransportError{
			Op:          "connect",
			Host:        host,
			Err:         err,
			IsTemporary: true,
		}
	case conn := <-connChan:
		log.Debug().Str("address", address).Msg("SSH connection established")
		return &Client{host: host, opts: opts, conn: conn}, nil
	}
}

// Host returns the target this client is connected to.
func (c *Client) Host() string {
	return c.host
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Execute runs a command on the target and captures its output. A
// command that runs and exits non-zero is reported through
// Result.ExitCode, not as an error.
func (c *Client) Execute(ctx context.Context, command string) (Result, error) {
	start := time.Now()
	result := Result{Host: c.host}

	if c.opts.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.CommandTimeout)
		defer cancel()
	}

	session, err := c.conn.NewSession()
	if err != nil {
		result.ExitCode = -1
		result.Duration = time.Since(start)
		return result, &TransportError{
			Op:          "execute",
			Host:        c.host,
			Err:         fmt.Errorf("failed to create session: %w", err),
			IsTemporary: true,
		}
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	doneChan := make(chan error, 1)
	go func() {
		doneChan <- session.Run(command)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		runErr = ctx.Err()
	case runErr = <-doneChan:
	}

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()
	result.Duration = time.Since(start)

	log.Debug().
		Str("host", c.host).
		Str("command", command).
		Dur("duration", result.Duration).
		Err(runErr).
		Msg("command completed")

	if runErr != nil {
		var exitErr *ssh.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		result.ExitCode = -1
		return result, &TransportError{
			Op:          "execute",
			Host:        c.host,
			Err:         runErr,
			IsTemporary: true,
		}
	}
	return result, nil
}

// Upload copies a local file to the target over SFTP, creating parent
// directories as needed.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string, mode os.FileMode) error {
	local, err := os.Open(localPath)
	if err != nil {
		return &TransportError{
			Op:   "upload",
			Host: c.host,
			Err:  fmt.Errorf("failed to open local file: %w", err),
		}
	}
	defer local.Close()

	sftpClient, err := c.newSFTPClient()
	if err != nil {
		return err
	}
	defer sftpClient.Close()

	if err := sftpClient.MkdirAll(filepath.Dir(remotePath)); err != nil {
		return &TransportError{
			Op:   "upload",
			Host: c.host,
			Err:  fmt.Errorf("failed to create remote directory: %w", err),
		}
	}

	remote, err := sftpClient.Create(remotePath)
	if err != nil {
		return &TransportError{
			Op:          "upload",
			Host:        c.host,
			Err:         fmt.Errorf("failed to create remote file: %w", err),
			IsTemporary: true,
		}
	}
	defer remote.Close()

	written, err := copyWithContext(ctx, remote, local)
	if err != nil {
		return &TransportError{
			Op:          "upload",
			Host:        c.host,
			Err:         fmt.Errorf("failed to copy file: %w", err),
			IsTemporary: true,
		}
	}

	if mode > 0 {
		if err := sftpClient.Chmod(remotePath, mode); err != nil {
			log.Warn().Err(err).Str("host", c.host).Msg("failed to set file permissions")
		}
	}

	log.Debug().
		Str("host", c.host).
		Str("local", localPath).
		Str("remote", remotePath).
		Int64("bytes", written).
		Msg("file uploaded")
	return nil
}

// Download copies a remote file from the target to localPath.
func (c *Client) Download(ctx context.Context, remotePath, localPath string) error {
	sftpClient, err := c.newSFTPClient()
	if err != nil {
		return err
	}
	defer sftpClient.Close()

	remote, err := sftpClient.Open(remotePath)
	if err != nil {
		return &TransportError{
			Op:   "download",
			Host: c.host,
			Err:  fmt.Errorf("failed to open remote file: %w", err),
		}
	}
	defer remote.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return &TransportError{
			Op:   "download",
			Host: c.host,
			Err:  fmt.Errorf("failed to create local directory: %w", err),
		}
	}

	local, err := os.Create(localPath)
	if err != nil {
		return &TransportError{
			Op:   "download",
			Host: c.host,
			Err:  fmt.Errorf("failed to create local file: %w", err),
		}
	}
	defer local.Close()

	written, err := copyWithContext(ctx, local, remote)
	if err != nil {
		return &TransportError{
			Op:          "download",
			Host:        c.host,
			Err:         fmt.Errorf("failed to copy file: %w", err),
			IsTemporary: true,
		}
	}

	log.Debug().
		Str("host", c.host).
		Str("remote", remotePath).
		Str("local", localPath).
		Int64("bytes", written).
		Msg("file downloaded")
	return nil
}

func (c *Client) newSFTPClient() (*sftp.Client, error) {
	sftpClient, err := sftp.NewClient(c.conn)
	if err != nil {
		return nil, &TransportError{
			Op:          "sftp-init",
			Host:        c.host,
			Err:         fmt.Errorf("failed to create SFTP client: %w", err),
			IsTemporary: true,
		}
	}
	return sftpClient, nil
}

// copyWithContext copies src to dst, checking for cancellation between
// chunks.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, err := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[0:nr])
			if nw > 0 {
				written += int64(nw)
			}
			if werr != nil {
				return written, werr
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return written, err
		}
	}

	return written, nil
}
