// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package fabric

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// buildTarGz produces a gzipped tar stream with the given entries, in
// the same shape a remote "tar -czf -" produces.
func buildTarGz(t *testing.T, entries map[string]string) *bytes.Buffer {
	t.Helper()
	var buffer bytes.Buffer
	gzipWriter := gzip.NewWriter(&buffer)
	tarWriter := tar.NewWriter(gzipWriter)

	for name, contents := range entries {
		header := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(contents)),
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("writing tar header: %v", err)
		}
		if _, err := tarWriter.Write([]byte(contents)); err != nil {
			t.Fatalf("writing tar body: %v", err)
		}
	}
	if err := tarWriter.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	if err := gzipWriter.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	return &buffer
}

func TestExtractTarGz(t *testing.T) {
	t.Parallel()
	destination := t.TempDir()
	stream := buildTarGz(t, map[string]string{
		"skiff-2026-08-26-10-00-00/replica-1/run.log":   "replica one",
		"skiff-2026-08-26-10-00-00/replica-2/run.log":   "replica two",
		"skiff-2026-08-26-10-00-00/replica-2/setup.log": "setup",
	})

	if err := extractTarGz(stream, destination); err != nil {
		t.Fatalf("extractTarGz: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(destination, "skiff-2026-08-26-10-00-00", "replica-1", "run.log"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(data) != "replica one" {
		t.Errorf("extracted contents = %q, want %q", data, "replica one")
	}
}

func TestExtractTarGzRejectsEscape(t *testing.T) {
	t.Parallel()
	destination := t.TempDir()
	stream := buildTarGz(t, map[string]string{
		"../outside.log": "escape attempt",
	})

	if err := extractTarGz(stream, destination); err == nil {
		t.Fatal("expected error for path escape, got nil")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(destination), "outside.log")); err == nil {
		t.Error("archive entry escaped the destination directory")
	}
}

func TestSafeJoin(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		entry   string
		wantErr bool
	}{
		{"plain", "logs/run.log", false},
		{"dot prefixed", "./logs/run.log", false},
		{"absolute", "/etc/passwd", true},
		{"parent escape", "../x", true},
		{"nested escape", "a/../../x", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := safeJoin("/tmp/dest", tc.entry)
			if tc.wantErr && err == nil {
				t.Errorf("safeJoin(%q) = nil, want error", tc.entry)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("safeJoin(%q) = %v, want nil", tc.entry, err)
			}
		})
	}
}

func TestShellQuote(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  string
	}{
		{"/var/log/skiff", "'/var/log/skiff'"},
		{"with space/dir", "'with space/dir'"},
		{"o'brien", `'o'\''brien'`},
	}
	for _, tc := range cases {
		if got := shellQuote(tc.input); got != tc.want {
			t.Errorf("shellQuote(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestQuoteRemotePath(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  string
	}{
		{"~/.skiff/serve/my-service/controller.log", `"$HOME"/'.skiff/serve/my-service/controller.log'`},
		{"/var/log/skiff", "'/var/log/skiff'"},
		{"relative/path", "'relative/path'"},
	}
	for _, tc := range cases {
		if got := quoteRemotePath(tc.input); got != tc.want {
			t.Errorf("quoteRemotePath(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}
