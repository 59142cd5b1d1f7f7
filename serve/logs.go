// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/skiff-compute/skiff/fabric"
	"github.com/skiff-compute/skiff/lib/naming"
)

// SyncDownLogs downloads service logs into a fresh run-timestamped
// directory under the configured logs path and returns that directory.
//
// component selects what to download: the controller log, the load
// balancer log, one replica's logs, or everything when unspecified.
// A replica id is required with the replica component (it names which
// replica) and rejected with any other; an unspecified component
// downloads every replica's logs.
//
// Transfers run strictly in order and the first failure aborts the
// run; already-downloaded files are kept. The remote staging directory
// for replica logs is removed as soon as its transfer finishes,
// whether or not the transfer succeeded.
func (d *Driver) SyncDownLogs(ctx context.Context, serviceName string, component Component, replicaID int) (string, error) {
	if err := naming.Validate(serviceName); err != nil {
		return "", &ValidationError{Field: "service name", Reason: err.Error()}
	}
	if component == ComponentReplica && replicaID < 1 {
		return "", &ValidationError{Field: "replica id", Reason: "syncing replica logs requires a replica id"}
	}
	if component != ComponentReplica && replicaID != 0 {
		return "", &ValidationError{
			Field:  "replica id",
			Reason: fmt.Sprintf("a replica id only applies to replica logs, not %q", componentLabel(component)),
		}
	}

	handle, err := d.controllerHandle(ctx,
		fmt.Sprintf("logs of service %q cannot be synced while the serve controller is stopped", serviceName),
		fmt.Sprintf("service %q does not exist; no serve controller is provisioned", serviceName))
	if err != nil {
		return "", err
	}

	stamp := runTimestamp(time.Now())
	localDir := filepath.Join(d.config.Paths.Logs, serviceName, stamp)
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", fmt.Errorf("creating log directory %s: %w", localDir, err)
	}

	wantController := component == ComponentUnspecified || component == ComponentController
	wantLoadBalancer := component == ComponentUnspecified || component == ComponentLoadBalancer
	wantReplicas := component == ComponentUnspecified || component == ComponentReplica

	// Replica logs come down first: their directory transfer is the
	// bulk of the run, and the process log files land inside the same
	// run directory afterwards.
	if wantReplicas {
		if err := d.pullReplicaLogs(ctx, handle, serviceName, stamp, replicaID, localDir); err != nil {
			return "", err
		}
	}
	if wantController {
		if err := d.pullLog(ctx, handle, remoteControllerLogPath(serviceName), localDir, "controller log"); err != nil {
			return "", err
		}
	}
	if wantLoadBalancer {
		if err := d.pullLog(ctx, handle, remoteLoadBalancerLogPath(serviceName), localDir, "load balancer log"); err != nil {
			return "", err
		}
	}

	d.logger.Info("logs synced",
		"service", serviceName,
		"directory", localDir)
	return localDir, nil
}

// pullLog downloads a single remote log file into localDir.
func (d *Driver) pullLog(ctx context.Context, handle fabric.Handle, remotePath, localDir, what string) error {
	d.logger.Info("downloading "+what, "from", remotePath)
	err := d.channel.Transfer(ctx, handle, []fabric.TransferSpec{{
		RemotePath: remotePath,
		LocalPath:  filepath.Join(localDir, filepath.Base(remotePath)),
	}}, fabric.Pull)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", what, err)
	}
	return nil
}

// pullReplicaLogs asks the controller to stage replica logs for this
// run, downloads the staged directory, and removes the staging
// directory. The removal is best-effort: a failure is logged, not
// returned, since the logs already arrived.
func (d *Driver) pullReplicaLogs(ctx context.Context, handle fabric.Handle, serviceName, stamp string, replicaID int, localDir string) error {
	_, err := d.run(ctx, handle, PrepareReplicaLogsRequest{
		ServiceName:  serviceName,
		RunTimestamp: stamp,
		ReplicaID:    replicaID,
	}, fmt.Sprintf("preparing replica logs of service %q", serviceName))
	if err != nil {
		var commandErr *CommandError
		if errors.As(err, &commandErr) && strings.Contains(commandErr.Stderr, "unknown operation") {
			return fmt.Errorf("the serve controller does not support replica log staging; "+
				"tear it down and relaunch to upgrade it: %w", err)
		}
		return err
	}

	remoteDir := remoteReplicaLogDir(serviceName, stamp)
	d.logger.Info("downloading replica logs", "from", remoteDir)
	transferErr := d.channel.Transfer(ctx, handle, []fabric.TransferSpec{{
		RemotePath: remoteDir,
		LocalPath:  localDir,
		Directory:  true,
	}}, fabric.Pull)

	if _, err := d.run(ctx, handle, RemoveReplicaLogsRequest{
		ServiceName:  serviceName,
		RunTimestamp: stamp,
	}, fmt.Sprintf("removing staged replica logs of service %q", serviceName)); err != nil {
		d.logger.Warn("removing staged replica logs failed",
			"service", serviceName,
			"error", err)
	}

	if transferErr != nil {
		return fmt.Errorf("downloading replica logs: %w", transferErr)
	}
	return nil
}

// TailLogs streams one component's log to the driver's stream output.
// A component is required, and a replica id is required for (and only
// for) the replica component. With follow set the stream runs until
// the remote side closes it or the context is cancelled.
//
// While the tail is active, SIGINT and SIGTSTP are intercepted and end
// the tail instead of killing the process; the interception is
// call-scoped and the previous signal disposition is restored on
// return.
func (d *Driver) TailLogs(ctx context.Context, serviceName string, component Component, replicaID int, follow bool) error {
	if err := naming.Validate(serviceName); err != nil {
		return &ValidationError{Field: "service name", Reason: err.Error()}
	}

	var request Request
	switch component {
	case ComponentController, ComponentLoadBalancer:
		if replicaID != 0 {
			return &ValidationError{
				Field:  "replica id",
				Reason: fmt.Sprintf("a replica id only applies to replica logs, not %q", componentLabel(component)),
			}
		}
		request = StreamProcessLogsRequest{
			ServiceName:      serviceName,
			StreamController: component == ComponentController,
			Follow:           follow,
		}
	case ComponentReplica:
		if replicaID < 1 {
			return &ValidationError{Field: "replica id", Reason: "tailing replica logs requires a replica id"}
		}
		request = StreamReplicaLogsRequest{
			ServiceName: serviceName,
			ReplicaID:   replicaID,
			Follow:      follow,
		}
	default:
		return &ValidationError{Field: "component", Reason: "tailing logs requires a component: controller, load-balancer, or replica"}
	}

	handle, err := d.controllerHandle(ctx,
		fmt.Sprintf("logs of service %q cannot be tailed while the serve controller is stopped", serviceName),
		fmt.Sprintf("service %q does not exist; no serve controller is provisioned", serviceName))
	if err != nil {
		return err
	}

	command, err := EncodeCommand(request)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTSTP)
	defer signal.Stop(signals)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	err = d.channel.Stream(ctx, handle, command, fabric.StreamOptions{
		Stdout: d.stream,
		Stderr: d.stream,
	})
	if err != nil {
		return fmt.Errorf("tailing %s logs of service %q: %w", componentLabel(component), serviceName, err)
	}
	return nil
}

// componentLabel renders a component for user-facing messages.
func componentLabel(component Component) string {
	if component == ComponentUnspecified {
		return "all components"
	}
	return string(component)
}
