// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package fabric

import (
	"context"
	"errors"
	"io"
)

// JobID identifies one submitted job within its cluster.
type JobID int64

// JobStatus is the fabric's view of a submitted job.
type JobStatus string

// Job statuses reported by the fabric.
const (
	// JobPending means the job was accepted but has not been admitted
	// to run yet (e.g., the cluster has no free scheduling capacity).
	JobPending JobStatus = "pending"
	// JobRunning means the job is executing.
	JobRunning JobStatus = "running"
	// JobSucceeded means the job exited cleanly.
	JobSucceeded JobStatus = "succeeded"
	// JobFailed means the job exited with an error.
	JobFailed JobStatus = "failed"
	// JobCancelled means the job was cancelled before completion.
	JobCancelled JobStatus = "cancelled"
)

// Handle references a reachable cluster head node. It is returned by
// Submit and LookupController and passed back for every subsequent
// remote operation on that cluster.
type Handle struct {
	// ClusterName is the fabric-side cluster name.
	ClusterName string `json:"cluster_name"`
	// Host is the address of the cluster's head node.
	Host string `json:"host"`
	// Port is the SSH port of the head node.
	Port int `json:"port"`
}

// BootstrapSpec describes a controller bootstrap job: the cluster to
// create (or reuse), the staged task file to run on it, and the ports
// the cluster must open.
type BootstrapSpec struct {
	// ClusterName is the target cluster (shared controller cluster).
	ClusterName string `json:"cluster_name"`
	// ServiceName is the logical service the bootstrap job registers.
	ServiceName string `json:"service_name"`
	// Task is the controller task definition, YAML-encoded.
	Task []byte `json:"task"`
	// Ports is the port range the cluster opens (e.g., "30001-30020").
	Ports string `json:"ports"`
}

// SubmitOptions control job submission.
type SubmitOptions struct {
	// Detach returns as soon as the job is submitted instead of
	// streaming its output.
	Detach bool `json:"detach"`
	// RetryUntilUp keeps provisioning attempts going until a cluster
	// is reachable. Retry policy is entirely fabric-side; the client
	// blocks until the fabric reports success or gives up.
	RetryUntilUp bool `json:"retry_until_up"`
	// IdleMinutesToAutostop stops the cluster after this many idle
	// minutes. Negative disables autostop.
	IdleMinutesToAutostop int `json:"idle_minutes_to_autostop"`
}

// RunOptions control one remote command invocation.
type RunOptions struct {
	// SeparateStderr captures stderr apart from stdout. When false,
	// stderr is folded into stdout.
	SeparateStderr bool
}

// RunResult is the outcome of one remote command.
type RunResult struct {
	// ExitCode is the remote process's exit code. A non-zero code is
	// not a transport error; callers interpret it.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error (empty unless
	// SeparateStderr was set).
	Stderr string
}

// StreamOptions control a live-streamed remote command.
type StreamOptions struct {
	// Stdout receives the remote process's standard output.
	Stdout io.Writer
	// Stderr receives the remote process's standard error.
	Stderr io.Writer
}

// Direction selects which way a file transfer moves.
type Direction int

// Transfer directions.
const (
	// Pull copies remote files to the local machine.
	Pull Direction = iota
	// Push copies local files to the remote machine.
	Push
)

// TransferSpec is one file or directory to move across the channel.
type TransferSpec struct {
	// RemotePath is the path on the remote host.
	RemotePath string
	// LocalPath is the path on the local machine.
	LocalPath string
	// Directory marks a recursive directory transfer.
	Directory bool
}

// Channel runs commands and moves files on a cluster head node.
type Channel interface {
	// Run executes a command to completion and captures its output.
	Run(ctx context.Context, handle Handle, command string, options RunOptions) (RunResult, error)

	// Stream executes a command with output forwarded live to the
	// options' writers. It blocks until the remote process ends or ctx
	// is cancelled; on cancellation the remote session is torn down
	// before Stream returns.
	Stream(ctx context.Context, handle Handle, command string, options StreamOptions) error

	// Transfer moves the given files in the given direction, one spec
	// at a time, in order.
	Transfer(ctx context.Context, handle Handle, specs []TransferSpec, direction Direction) error

	// ResolveEndpoint returns a reachable URL for the given port on
	// the handle's cluster, or "" when no endpoint is exposed there.
	ResolveEndpoint(ctx context.Context, handle Handle, port int) (string, error)
}

// Sentinel errors returned by Provisioner lookups.
var (
	// ErrControllerStopped means the controller cluster exists but is
	// not running.
	ErrControllerStopped = errors.New("controller cluster is stopped")
	// ErrControllerNotFound means no controller cluster exists.
	ErrControllerNotFound = errors.New("controller cluster does not exist")
)

// Provisioner submits jobs to the fabric and answers questions about
// clusters and jobs. Scheduling, placement, and retry policy live on
// the fabric side.
type Provisioner interface {
	// Submit submits a bootstrap job and returns its job ID and a
	// handle to the cluster head node. With RetryUntilUp set, Submit
	// blocks until the fabric reports a reachable cluster.
	Submit(ctx context.Context, spec BootstrapSpec, options SubmitOptions) (JobID, Handle, error)

	// JobStatus reports the status of a submitted job.
	JobStatus(ctx context.Context, handle Handle, id JobID) (JobStatus, error)

	// CancelJob cancels a submitted job. Cancelling a finished job is
	// not an error.
	CancelJob(ctx context.Context, handle Handle, id JobID) error

	// LookupController resolves the handle of the shared controller
	// cluster. It returns ErrControllerStopped or
	// ErrControllerNotFound when the cluster is not reachable.
	LookupController(ctx context.Context, clusterName string) (Handle, error)

	// CheckNetwork verifies that the fabric API is reachable at all.
	// Used as a fail-fast pre-check before status queries.
	CheckNetwork(ctx context.Context) error
}
