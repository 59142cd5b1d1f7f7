// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/skiff-compute/skiff/lib/config"
)

func TestSyncDownLogsValidation(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	driver := newTestDriver(t, fake)

	tests := []struct {
		name      string
		service   string
		component Component
		replicaID int
	}{
		{"bad service name", "Bad_Name", ComponentController, 0},
		{"replica id with controller", "my-service", ComponentController, 2},
		{"replica id with load balancer", "my-service", ComponentLoadBalancer, 2},
		{"replica id with all components", "my-service", ComponentUnspecified, 2},
		{"replica component without id", "my-service", ComponentReplica, 0},
		{"negative replica id", "my-service", ComponentReplica, -1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := driver.SyncDownLogs(context.Background(), test.service, test.component, test.replicaID)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
		})
	}
	if len(fake.recorded()) != 0 {
		t.Errorf("remote calls made despite validation failures: %v", fake.recorded())
	}
}

func TestSyncDownLogsAllComponents(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	driver := newTestDriver(t, fake)

	localDir, err := driver.SyncDownLogs(context.Background(), "my-service", ComponentUnspecified, 0)
	if err != nil {
		t.Fatalf("SyncDownLogs: %v", err)
	}

	if info, err := os.Stat(localDir); err != nil || !info.IsDir() {
		t.Fatalf("returned directory %q not created: %v", localDir, err)
	}
	base := filepath.Base(localDir)
	if !strings.HasPrefix(base, "skiff-") {
		t.Errorf("run directory %q not timestamped", base)
	}
	if filepath.Base(filepath.Dir(localDir)) != "my-service" {
		t.Errorf("run directory %q not under the service directory", localDir)
	}

	// Replica logs are staged, pulled, and the staging directory
	// removed right away; the process logs follow into the same run
	// directory.
	calls := fake.recorded()
	want := []string{
		"lookup:skiff-serve-controller",
		"run:prepare-replica-logs",
		"transfer:~/.skiff/serve/my-service/replica_logs_" + base,
		"run:remove-replica-logs",
		"transfer:~/.skiff/serve/my-service/controller.log",
		"transfer:~/.skiff/serve/my-service/load_balancer.log",
	}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}

	var prepare PrepareReplicaLogsRequest
	fake.lastArgs(t, "prepare-replica-logs", &prepare)
	if prepare.ServiceName != "my-service" || prepare.RunTimestamp != base || prepare.ReplicaID != 0 {
		t.Errorf("prepare args = %+v", prepare)
	}
}

func TestSyncDownLogsSingleReplica(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	driver := newTestDriver(t, fake)

	_, err := driver.SyncDownLogs(context.Background(), "my-service", ComponentReplica, 3)
	if err != nil {
		t.Fatalf("SyncDownLogs: %v", err)
	}

	for _, call := range fake.recorded() {
		if strings.Contains(call, "controller.log") || strings.Contains(call, "load_balancer.log") {
			t.Errorf("process logs pulled for a replica-only sync: %v", fake.recorded())
		}
	}
	var prepare PrepareReplicaLogsRequest
	fake.lastArgs(t, "prepare-replica-logs", &prepare)
	if prepare.ReplicaID != 3 {
		t.Errorf("replica id = %d, want 3", prepare.ReplicaID)
	}
}

func TestSyncDownLogsFirstFailureAborts(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.failTransfer = "controller.log"
	driver := newTestDriver(t, fake)

	_, err := driver.SyncDownLogs(context.Background(), "my-service", ComponentUnspecified, 0)
	if err == nil || !strings.Contains(err.Error(), "controller log") {
		t.Fatalf("error = %v, want controller log failure", err)
	}
	for _, call := range fake.recorded() {
		if strings.Contains(call, "load_balancer.log") {
			t.Errorf("later transfers ran after a failure: %v", fake.recorded())
		}
	}
}

func TestSyncDownLogsCleanupRunsOnTransferFailure(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.failTransfer = "replica_logs_"
	driver := newTestDriver(t, fake)

	_, err := driver.SyncDownLogs(context.Background(), "my-service", ComponentReplica, 2)
	if err == nil || !strings.Contains(err.Error(), "replica logs") {
		t.Fatalf("error = %v, want replica log failure", err)
	}
	cleaned := false
	for _, call := range fake.recorded() {
		if call == "run:remove-replica-logs" {
			cleaned = true
		}
	}
	if !cleaned {
		t.Errorf("staging directory not removed after failed transfer: %v", fake.recorded())
	}
}

func TestSyncDownLogsStaleController(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.fail("prepare-replica-logs", 2, `unknown operation "prepare-replica-logs"`)
	driver := newTestDriver(t, fake)

	_, err := driver.SyncDownLogs(context.Background(), "my-service", ComponentReplica, 1)
	if err == nil || !strings.Contains(err.Error(), "does not support replica log staging") {
		t.Fatalf("error = %v, want a stale-controller explanation", err)
	}
	var commandErr *CommandError
	if !errors.As(err, &commandErr) {
		t.Fatalf("error %v does not wrap a CommandError", err)
	}
	for _, call := range fake.recorded() {
		if call == "run:remove-replica-logs" {
			t.Errorf("cleanup ran although staging never happened: %v", fake.recorded())
		}
	}
}

func TestTailLogsValidation(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	driver := newTestDriver(t, fake)

	tests := []struct {
		name      string
		component Component
		replicaID int
	}{
		{"component required", ComponentUnspecified, 0},
		{"replica needs an id", ComponentReplica, 0},
		{"controller takes no id", ComponentController, 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := driver.TailLogs(context.Background(), "my-service", test.component, test.replicaID, true)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestTailLogsStreamsToOutput(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.streamOutput = "controller log line\n"
	var output bytes.Buffer
	driver, err := New(Options{
		Provisioner:  fake,
		Channel:      fake,
		Config:       config.Default(),
		StreamOutput: &output,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := driver.TailLogs(context.Background(), "my-service", ComponentController, 0, true); err != nil {
		t.Fatalf("TailLogs: %v", err)
	}
	if output.String() != "controller log line\n" {
		t.Errorf("output = %q", output.String())
	}

	op, args := decodeCommand(t, fake.streamCommand)
	if op != "stream-process-logs" {
		t.Fatalf("streamed op = %q", op)
	}
	var request StreamProcessLogsRequest
	if err := decodeInto(args, &request); err != nil {
		t.Fatalf("decoding stream args: %v", err)
	}
	if !request.StreamController || !request.Follow {
		t.Errorf("stream args = %+v, want controller follow", request)
	}
}

func TestTailReplicaLogs(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	driver := newTestDriver(t, fake)

	if err := driver.TailLogs(context.Background(), "my-service", ComponentReplica, 5, false); err != nil {
		t.Fatalf("TailLogs: %v", err)
	}
	op, args := decodeCommand(t, fake.streamCommand)
	if op != "stream-replica-logs" {
		t.Fatalf("streamed op = %q", op)
	}
	var request StreamReplicaLogsRequest
	if err := decodeInto(args, &request); err != nil {
		t.Fatalf("decoding stream args: %v", err)
	}
	if request.ReplicaID != 5 || request.Follow {
		t.Errorf("stream args = %+v, want replica 5 without follow", request)
	}
}
