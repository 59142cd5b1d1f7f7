// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package fabric

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/crypto/ssh"
)

// Transfer implements Channel. Specs are executed strictly in order;
// the first failure aborts the remainder. Completed transfers are not
// rolled back.
func (s *SSHChannel) Transfer(ctx context.Context, handle Handle, specs []TransferSpec, direction Direction) error {
	client, err := s.dial(ctx, handle)
	if err != nil {
		return err
	}
	defer client.Close()

	for _, spec := range specs {
		if err := s.transferOne(ctx, client, spec, direction); err != nil {
			return fmt.Errorf("transferring %s: %w", spec.RemotePath, err)
		}
	}
	return nil
}

func (s *SSHChannel) transferOne(ctx context.Context, client *ssh.Client, spec TransferSpec, direction Direction) error {
	switch {
	case direction == Pull && spec.Directory:
		return s.pullDirectory(ctx, client, spec)
	case direction == Pull:
		return s.pullFile(ctx, client, spec)
	case direction == Push && !spec.Directory:
		return s.pushFile(ctx, client, spec)
	default:
		return errors.New("directory push is not supported")
	}
}

// pullFile copies one remote file to spec.LocalPath, creating parent
// directories as needed.
func (s *SSHChannel) pullFile(ctx context.Context, client *ssh.Client, spec TransferSpec) error {
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("opening SSH session: %w", err)
	}
	defer session.Close()

	if err := os.MkdirAll(filepath.Dir(spec.LocalPath), 0o755); err != nil {
		return fmt.Errorf("creating local directory: %w", err)
	}
	localFile, err := os.Create(spec.LocalPath)
	if err != nil {
		return fmt.Errorf("creating local file: %w", err)
	}
	defer localFile.Close()

	session.Stdout = localFile
	if err := runSession(ctx, session, "cat "+quoteRemotePath(spec.RemotePath)); err != nil {
		return fmt.Errorf("reading remote file: %w", err)
	}
	return localFile.Close()
}

// pullDirectory copies a remote directory tree under spec.LocalPath,
// preserving the remote directory's base name (pulling /a/b/c into
// /logs yields /logs/c/...). The remote side streams a gzipped tar so
// one round trip moves the whole tree.
func (s *SSHChannel) pullDirectory(ctx context.Context, client *ssh.Client, spec TransferSpec) error {
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("opening SSH session: %w", err)
	}
	defer session.Close()

	remoteParent := filepath.Dir(spec.RemotePath)
	remoteBase := filepath.Base(spec.RemotePath)
	command := fmt.Sprintf("tar -C %s -czf - %s", quoteRemotePath(remoteParent), shellQuote(remoteBase))

	stdout, err := session.StdoutPipe()
	if err != nil {
		return fmt.Errorf("opening stdout pipe: %w", err)
	}
	if err := session.Start(command); err != nil {
		return fmt.Errorf("starting remote archive: %w", err)
	}

	if err := extractTarGz(stdout, spec.LocalPath); err != nil {
		session.Close()
		return err
	}
	if err := session.Wait(); err != nil {
		return fmt.Errorf("remote archive command: %w", err)
	}
	return nil
}

// pushFile copies one local file to spec.RemotePath, creating remote
// parent directories as needed.
func (s *SSHChannel) pushFile(ctx context.Context, client *ssh.Client, spec TransferSpec) error {
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("opening SSH session: %w", err)
	}
	defer session.Close()

	localFile, err := os.Open(spec.LocalPath)
	if err != nil {
		return fmt.Errorf("opening local file: %w", err)
	}
	defer localFile.Close()

	session.Stdin = localFile
	remoteDir := filepath.Dir(spec.RemotePath)
	command := fmt.Sprintf("mkdir -p %s && cat > %s", quoteRemotePath(remoteDir), quoteRemotePath(spec.RemotePath))
	if err := runSession(ctx, session, command); err != nil {
		return fmt.Errorf("writing remote file: %w", err)
	}
	return nil
}

// extractTarGz extracts a gzipped tar stream into destination. Entry
// paths are validated so a hostile archive cannot write outside the
// destination tree.
func extractTarGz(r io.Reader, destination string) error {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		targetPath, err := safeJoin(destination, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", targetPath, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", targetPath, err)
			}
			file, err := os.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode)&0o777)
			if err != nil {
				return fmt.Errorf("creating file %s: %w", targetPath, err)
			}
			if _, err := io.Copy(file, tarReader); err != nil {
				file.Close()
				return fmt.Errorf("writing file %s: %w", targetPath, err)
			}
			if err := file.Close(); err != nil {
				return err
			}
		default:
			// Symlinks and specials in log bundles are skipped rather
			// than reproduced on the client machine.
		}
	}
}

// safeJoin joins name under destination, rejecting absolute paths and
// parent-directory escapes.
func safeJoin(destination, name string) (string, error) {
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the destination directory", name)
	}
	return filepath.Join(destination, cleaned), nil
}

// shellQuote wraps s in single quotes for safe interpolation into a
// remote shell command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// quoteRemotePath quotes a remote path for the shell. A leading ~/ is
// expanded against the remote home directory; single quotes would
// suppress tilde expansion.
func quoteRemotePath(path string) string {
	if after, ok := strings.CutPrefix(path, "~/"); ok {
		return `"$HOME"/` + shellQuote(after)
	}
	return shellQuote(path)
}
