// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/skiff-compute/skiff/fabric"
	"github.com/skiff-compute/skiff/lib/codec"
	"github.com/skiff-compute/skiff/lib/config"
)

// fakeFabric implements fabric.Provisioner and fabric.Channel in
// memory, recording every call in order so tests can assert on the
// exact remote interaction sequence.
type fakeFabric struct {
	t *testing.T

	mu    sync.Mutex
	calls []string

	submitJobID  fabric.JobID
	submitHandle fabric.Handle
	submitSpec   fabric.BootstrapSpec
	submitErr    error

	lookupHandle fabric.Handle
	lookupErr    error

	jobStatus    fabric.JobStatus
	jobStatusErr error
	cancelErr    error
	networkErr   error

	// runResults maps catalog operation names to canned results.
	// Operations without an entry succeed with empty output.
	runResults map[string]fabric.RunResult
	// runArgs holds the last decoded argument payload per operation.
	runArgs map[string]codec.RawMessage

	transfers []recordedTransfer
	// failTransfer makes transfers whose remote path contains this
	// substring fail.
	failTransfer string

	streamCommand string
	streamOutput  string
	streamErr     error

	endpoint    string
	endpointErr error
}

type recordedTransfer struct {
	remote    string
	local     string
	directory bool
	direction fabric.Direction
}

func newFakeFabric(t *testing.T) *fakeFabric {
	return &fakeFabric{
		t:            t,
		submitJobID:  1,
		submitHandle: fabric.Handle{ClusterName: "skiff-serve-controller", Host: "10.0.0.5", Port: 22},
		lookupHandle: fabric.Handle{ClusterName: "skiff-serve-controller", Host: "10.0.0.5", Port: 22},
		jobStatus:    fabric.JobRunning,
		runResults:   make(map[string]fabric.RunResult),
		runArgs:      make(map[string]codec.RawMessage),
		endpoint:     "http://10.0.0.5:30001",
	}
}

func (f *fakeFabric) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeFabric) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFabric) Submit(ctx context.Context, spec fabric.BootstrapSpec, options fabric.SubmitOptions) (fabric.JobID, fabric.Handle, error) {
	f.record("submit:" + spec.ServiceName)
	f.submitSpec = spec
	if f.submitErr != nil {
		return 0, fabric.Handle{}, f.submitErr
	}
	return f.submitJobID, f.submitHandle, nil
}

func (f *fakeFabric) JobStatus(ctx context.Context, handle fabric.Handle, id fabric.JobID) (fabric.JobStatus, error) {
	f.record(fmt.Sprintf("job-status:%d", id))
	return f.jobStatus, f.jobStatusErr
}

func (f *fakeFabric) CancelJob(ctx context.Context, handle fabric.Handle, id fabric.JobID) error {
	f.record(fmt.Sprintf("cancel-job:%d", id))
	return f.cancelErr
}

func (f *fakeFabric) LookupController(ctx context.Context, clusterName string) (fabric.Handle, error) {
	f.record("lookup:" + clusterName)
	if f.lookupErr != nil {
		return fabric.Handle{}, f.lookupErr
	}
	return f.lookupHandle, nil
}

func (f *fakeFabric) CheckNetwork(ctx context.Context) error {
	f.record("check-network")
	return f.networkErr
}

func (f *fakeFabric) Run(ctx context.Context, handle fabric.Handle, command string, options fabric.RunOptions) (fabric.RunResult, error) {
	op, args := decodeCommand(f.t, command)
	f.record("run:" + op)
	f.mu.Lock()
	f.runArgs[op] = args
	result, ok := f.runResults[op]
	f.mu.Unlock()
	if !ok {
		return fabric.RunResult{}, nil
	}
	return result, nil
}

func (f *fakeFabric) Stream(ctx context.Context, handle fabric.Handle, command string, options fabric.StreamOptions) error {
	f.record("stream")
	f.streamCommand = command
	if f.streamOutput != "" && options.Stdout != nil {
		fmt.Fprint(options.Stdout, f.streamOutput)
	}
	return f.streamErr
}

func (f *fakeFabric) Transfer(ctx context.Context, handle fabric.Handle, specs []fabric.TransferSpec, direction fabric.Direction) error {
	for _, spec := range specs {
		f.record("transfer:" + spec.RemotePath)
		f.mu.Lock()
		f.transfers = append(f.transfers, recordedTransfer{
			remote:    spec.RemotePath,
			local:     spec.LocalPath,
			directory: spec.Directory,
			direction: direction,
		})
		f.mu.Unlock()
		if f.failTransfer != "" && strings.Contains(spec.RemotePath, f.failTransfer) {
			return fmt.Errorf("transfer of %s failed", spec.RemotePath)
		}
	}
	return nil
}

func (f *fakeFabric) ResolveEndpoint(ctx context.Context, handle fabric.Handle, port int) (string, error) {
	f.record(fmt.Sprintf("resolve-endpoint:%d", port))
	return f.endpoint, f.endpointErr
}

// decodeCommand unpacks a controller command line into its catalog
// operation and argument payload.
func decodeCommand(t *testing.T, command string) (string, codec.RawMessage) {
	t.Helper()
	fields := strings.Fields(command)
	if len(fields) != 3 || fields[0] != "skiff-controller" || fields[1] != "exec" {
		t.Fatalf("unexpected controller command %q", command)
	}
	var env struct {
		Version int              `cbor:"version"`
		Op      string           `cbor:"op"`
		Args    codec.RawMessage `cbor:"args"`
	}
	if err := codec.UnmarshalBase64(fields[2], &env); err != nil {
		t.Fatalf("decoding command payload: %v", err)
	}
	if env.Version != protocolVersion {
		t.Fatalf("protocol version = %d, want %d", env.Version, protocolVersion)
	}
	return env.Op, env.Args
}

// decodeInto decodes a raw argument payload into out.
func decodeInto(args codec.RawMessage, out any) error {
	return codec.Unmarshal(args, out)
}

// lastArgs decodes the argument payload of the last recorded call to
// the given operation into out.
func (f *fakeFabric) lastArgs(t *testing.T, op string, out any) {
	t.Helper()
	f.mu.Lock()
	args, ok := f.runArgs[op]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no recorded %s call", op)
	}
	if err := codec.Unmarshal(args, out); err != nil {
		t.Fatalf("decoding %s arguments: %v", op, err)
	}
}

// respond cans a successful result for an operation, framing v as its
// payload.
func (f *fakeFabric) respond(t *testing.T, op string, v any) {
	t.Helper()
	framed, err := FramePayload(v)
	if err != nil {
		t.Fatalf("framing payload for %s: %v", op, err)
	}
	f.runResults[op] = fabric.RunResult{Stdout: "controller says hello\n" + framed}
}

// fail cans a non-zero exit for an operation.
func (f *fakeFabric) fail(op string, exitCode int, stderr string) {
	f.runResults[op] = fabric.RunResult{ExitCode: exitCode, Stderr: stderr}
}

// newTestDriver wires a Driver to the fake, with logs landing in a
// per-test temp directory.
func newTestDriver(t *testing.T, fake *fakeFabric) *Driver {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.Logs = t.TempDir()
	driver, err := New(Options{
		Provisioner: fake,
		Channel:     fake,
		Config:      cfg,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return driver
}

// validSpec returns a spec that passes validation.
func validSpec() *ServiceSpec {
	return &ServiceSpec{
		Workload: Workload{
			Setup: "pip install -r requirements.txt",
			Run:   "python server.py --port 8080",
		},
		Resources: []ResourceSpec{{
			CPUs:  "4",
			Ports: []int{8080},
		}},
		Service: &ServicePolicy{
			Replicas:      2,
			ReadinessPath: "/healthz",
		},
	}
}
