// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package fabric

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHChannelConfig holds configuration for the SSH execution channel.
type SSHChannelConfig struct {
	// User is the login user on cluster head nodes.
	User string
	// KeyFile is the path to the private key used for authentication.
	KeyFile string
	// KnownHostsFile enables host key verification when set. When
	// empty, host keys are accepted blindly; fabric-provisioned hosts
	// regenerate keys on every reprovision, so pinning is opt-in.
	KnownHostsFile string
	// DialTimeout bounds connection establishment. Zero means 10s.
	DialTimeout time.Duration
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// SSHChannel runs commands and moves files on cluster head nodes over
// SSH. It implements Channel. Connections are established per call;
// every operation in this client is a complete, synchronous exchange,
// so there is no connection pool to manage.
type SSHChannel struct {
	clientConfig *ssh.ClientConfig
	dialTimeout  time.Duration
	logger       *slog.Logger
}

// NewSSHChannel creates an SSH execution channel.
func NewSSHChannel(config SSHChannelConfig) (*SSHChannel, error) {
	if config.User == "" {
		return nil, fmt.Errorf("fabric: SSH User is required")
	}
	if config.KeyFile == "" {
		return nil, fmt.Errorf("fabric: SSH KeyFile is required")
	}

	keyData, err := os.ReadFile(config.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("reading SSH key file: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("parsing SSH key %s: %w", config.KeyFile, err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if config.KnownHostsFile != "" {
		hostKeyCallback, err = knownhosts.New(config.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts file %s: %w", config.KnownHostsFile, err)
		}
	}

	dialTimeout := config.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 10 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SSHChannel{
		clientConfig: &ssh.ClientConfig{
			User:            config.User,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: hostKeyCallback,
			Timeout:         dialTimeout,
		},
		dialTimeout: dialTimeout,
		logger:      logger,
	}, nil
}

// dial opens an SSH client connection to the handle's head node,
// honoring ctx for the TCP stage.
func (s *SSHChannel) dial(ctx context.Context, handle Handle) (*ssh.Client, error) {
	address := net.JoinHostPort(handle.Host, strconv.Itoa(handle.Port))

	dialer := net.Dialer{Timeout: s.dialTimeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dialling %s: %w", address, err)
	}

	sshConn, channels, requests, err := ssh.NewClientConn(tcpConn, address, s.clientConfig)
	if err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("SSH handshake with %s: %w", address, err)
	}
	return ssh.NewClient(sshConn, channels, requests), nil
}

// Run implements Channel.
func (s *SSHChannel) Run(ctx context.Context, handle Handle, command string, options RunOptions) (RunResult, error) {
	client, err := s.dial(ctx, handle)
	if err != nil {
		return RunResult{}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return RunResult{}, fmt.Errorf("opening SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	if options.SeparateStderr {
		session.Stderr = &stderr
	} else {
		session.Stderr = &stdout
	}

	s.logger.Debug("running remote command", "cluster", handle.ClusterName, "command", command)

	runErr := runSession(ctx, session, command)
	result := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *ssh.ExitError
	switch {
	case runErr == nil:
		return result, nil
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitStatus()
		return result, nil
	default:
		return result, fmt.Errorf("remote command failed to run: %w", runErr)
	}
}

// Stream implements Channel. Output is forwarded live; when ctx is
// cancelled the remote process is interrupted and the session closed
// before Stream returns.
func (s *SSHChannel) Stream(ctx context.Context, handle Handle, command string, options StreamOptions) error {
	client, err := s.dial(ctx, handle)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("opening SSH session: %w", err)
	}
	defer session.Close()

	session.Stdout = options.Stdout
	session.Stderr = options.Stderr

	err = runSession(ctx, session, command)

	var exitErr *ssh.ExitError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		// Interrupted by the caller; the stream ending is the goal.
		return nil
	case errors.As(err, &exitErr):
		return fmt.Errorf("remote process exited with status %d", exitErr.ExitStatus())
	default:
		return fmt.Errorf("streaming remote command: %w", err)
	}
}

// runSession starts command on session and waits for it, tearing the
// session down if ctx is cancelled first. On cancellation the remote
// process receives SIGINT; closing the session then drops the
// connection if the process ignores it.
func runSession(ctx context.Context, session *ssh.Session, command string) error {
	if err := session.Start(command); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		session.Signal(ssh.SIGINT)
		session.Close()
		<-done
		return ctx.Err()
	}
}

// ResolveEndpoint implements Channel. A port with nothing listening is
// reported as absent (empty URL), not as an error: the caller decides
// whether absence is fatal.
func (s *SSHChannel) ResolveEndpoint(ctx context.Context, handle Handle, port int) (string, error) {
	address := net.JoinHostPort(handle.Host, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", nil
	}
	conn.Close()
	return "http://" + address, nil
}
