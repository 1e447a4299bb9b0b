package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions("testuser")

	if opts.User != "testuser" {
		t.Errorf("expected user 'testuser', got '%s'", opts.User)
	}
	if opts.Port != 22 {
		t.Errorf("expected port 22, got %d", opts.Port)
	}
	if opts.AuthMethod != AuthMethodKey {
		t.Errorf("expected key auth, got %s", opts.AuthMethod)
	}
	if !opts.StrictHostKeyChecking {
		t.Error("expected strict host key checking by default")
	}
	if opts.ConnectTimeout != 30*time.Second {
		t.Errorf("expected 30s connect timeout, got %v", opts.ConnectTimeout)
	}
}

func TestOptionsValidation(t *testing.T) {
	// Isolate from any real ~/.ssh keys so default-key discovery is
	// deterministic.
	t.Setenv("HOME", t.TempDir())

	keyPath := writeTestKey(t)

	tests := []struct {
		name    string
		opts    *Options
		wantErr bool
	}{
		{
			name: "valid password auth",
			opts: &Options{
				User:           "u",
				Port:           22,
				AuthMethod:     AuthMethodPassword,
				Password:       "secret",
				ConnectTimeout: time.Second,
				CommandTimeout: time.Second,
			},
		},
		{
			name: "valid key auth",
			opts: &Options{
				User:           "u",
				Port:           22,
				AuthMethod:     AuthMethodKey,
				PrivateKeyPath: keyPath,
				ConnectTimeout: time.Second,
				CommandTimeout: time.Second,
			},
		},
		{
			name: "missing user",
			opts: &Options{
				Port:           22,
				AuthMethod:     AuthMethodPassword,
				Password:       "secret",
				ConnectTimeout: time.Second,
				CommandTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "invalid port",
			opts: &Options{
				User:           "u",
				Port:           70000,
				AuthMethod:     AuthMethodPassword,
				Password:       "secret",
				ConnectTimeout: time.Second,
				CommandTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "password auth without password",
			opts: &Options{
				User:           "u",
				Port:           22,
				AuthMethod:     AuthMethodPassword,
				ConnectTimeout: time.Second,
				CommandTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "key auth with no key anywhere",
			opts: &Options{
				User:           "u",
				Port:           22,
				AuthMethod:     AuthMethodKey,
				ConnectTimeout: time.Second,
				CommandTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "key auth with missing key file",
			opts: &Options{
				User:           "u",
				Port:           22,
				AuthMethod:     AuthMethodKey,
				PrivateKeyPath: "/nonexistent/id_ed25519",
				ConnectTimeout: time.Second,
				CommandTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "unsupported auth method",
			opts: &Options{
				User:           "u",
				Port:           22,
				AuthMethod:     AuthMethod("agent"),
				ConnectTimeout: time.Second,
				CommandTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "non-positive connect timeout",
			opts: &Options{
				User:           "u",
				Port:           22,
				AuthMethod:     AuthMethodPassword,
				Password:       "secret",
				CommandTimeout: time.Second,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildClientConfig(t *testing.T) {
	t.Run("password authentication", func(t *testing.T) {
		opts := DefaultOptions("testuser")
		opts.AuthMethod = AuthMethodPassword
		opts.Password = "secret"
		opts.StrictHostKeyChecking = false

		clientConfig, err := opts.BuildClientConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if clientConfig.User != "testuser" {
			t.Errorf("expected user 'testuser', got '%s'", clientConfig.User)
		}
		if len(clientConfig.Auth) != 2 {
			t.Errorf("expected password and keyboard-interactive auth, got %d methods", len(clientConfig.Auth))
		}
		if clientConfig.Timeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", clientConfig.Timeout)
		}
	})

	t.Run("key authentication", func(t *testing.T) {
		opts := DefaultOptions("testuser")
		opts.AuthMethod = AuthMethodKey
		opts.PrivateKeyPath = writeTestKey(t)
		opts.StrictHostKeyChecking = false

		clientConfig, err := opts.BuildClientConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(clientConfig.Auth) != 1 {
			t.Errorf("expected 1 auth method, got %d", len(clientConfig.Auth))
		}
	})

	t.Run("unreadable key", func(t *testing.T) {
		opts := DefaultOptions("testuser")
		opts.AuthMethod = AuthMethodKey
		opts.PrivateKeyPath = "/nonexistent/id_ed25519"
		opts.StrictHostKeyChecking = false

		if _, err := opts.BuildClientConfig(); err == nil {
			t.Error("expected error for unreadable key")
		}
	})
}

func TestOptionsAddress(t *testing.T) {
	opts := DefaultOptions("u")
	if got := opts.address("node1"); got != "node1:22" {
		t.Errorf("address = %q, want node1:22", got)
	}
	opts.Port = 2222
	if got := opts.address("node1"); got != "node1:2222" {
		t.Errorf("address = %q, want node1:2222", got)
	}
}

// writeTestKey generates an ED25519 private key in OpenSSH format and
// writes it under a temp dir.
func writeTestKey(t *testing.T) string {
	t.Helper()

	_, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}

	pemBlock, err := ssh.MarshalPrivateKey(privKey, "")
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	keyPath := filepath.Join(t.TempDir(), "test_key")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(pemBlock), 0o600); err != nil {
		t.Fatalf("failed to write test key: %v", err)
	}
	return keyPath
}
