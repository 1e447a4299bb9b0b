package commands

import (
	"fmt"
	"os"
	osuser "os/user"
	"strconv"
	"time"

	"github.com/nodefold/nodefold/pkg/transports/ssh"
	"github.com/spf13/cobra"
)

// sshFlags collects the connection flags shared by run and copy.
type sshFlags struct {
	user       string
	port       int
	identity   string
	password   string
	knownHosts string
	insecure   bool
	timeout    time.Duration
}

func (f *sshFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.user, "user", "l", currentUser(), "SSH user")
	cmd.Flags().IntVar(&f.port, "port", 22, "SSH port")
	cmd.Flags().StringVarP(&f.identity, "identity", "i", "", "private key file (defaults to ~/.ssh keys)")
	cmd.Flags().StringVar(&f.password, "password", "", "SSH password (key auth is the default)")
	cmd.Flags().StringVar(&f.knownHosts, "known-hosts", "", "known_hosts file")
	cmd.Flags().BoolVar(&f.insecure, "insecure", false, "skip host key verification")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "per-command timeout (0 keeps the default)")
}

// options translates the flags into transport options. Supplying a
// password switches authentication over from the key default.
func (f *sshFlags) options() *ssh.Options {
	opts := ssh.DefaultOptions(f.user)
	opts.Port = f.port
	if f.identity != "" {
		opts.PrivateKeyPath = f.identity
	}
	if f.password != "" {
		opts.AuthMethod = ssh.AuthMethodPassword
		opts.Password = f.password
	}
	if f.knownHosts != "" {
		opts.KnownHostsPath = f.knownHosts
	}
	if f.insecure {
		opts.StrictHostKeyChecking = false
	}
	if f.timeout > 0 {
		opts.CommandTimeout = f.timeout
	}
	return opts
}

func currentUser() string {
	if u, err := osuser.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// parseFileMode reads an octal permission string such as "0644".
func parseFileMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q: %w", s, err)
	}
	return os.FileMode(v), nil
}
