// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skiff-compute/skiff/fabric"
	"github.com/skiff-compute/skiff/lib/naming"
)

// Down tears down services. Exactly one selector must be given: a
// non-empty serviceNames list, or all. Purge also removes services
// stuck in failed states.
//
// Teardown of nothing is success: when the controller cluster is
// stopped or was never provisioned, there are no services, so the
// requested end state already holds.
func (d *Driver) Down(ctx context.Context, serviceNames []string, all, purge bool) error {
	if len(serviceNames) > 0 && all {
		return &ValidationError{
			Field:  "service names",
			Reason: fmt.Sprintf("both service names (%s) and --all were given; provide one or the other", strings.Join(serviceNames, ", ")),
		}
	}
	if len(serviceNames) == 0 && !all {
		return &ValidationError{
			Field:  "service names",
			Reason: "nothing to tear down; give service names or --all",
		}
	}

	handle, err := d.provisioner.LookupController(ctx, naming.ControllerCluster)
	switch {
	case errors.Is(err, fabric.ErrControllerStopped), errors.Is(err, fabric.ErrControllerNotFound):
		d.logger.Info("no running serve controller; nothing to tear down")
		return nil
	case err != nil:
		return fmt.Errorf("looking up serve controller: %w", err)
	}

	var names []string
	if !all {
		names = serviceNames
	}
	stdout, err := d.run(ctx, handle, TerminateServicesRequest{
		ServiceNames: names,
		Purge:        purge,
	}, "tearing down services")
	if err != nil {
		return err
	}
	if message := strings.TrimSpace(stdout); message != "" {
		d.logger.Info("teardown finished", "detail", message)
	}
	return nil
}

// TerminateReplica tears down one replica of a service. Unlike Down,
// this requires a reachable controller: individual replicas only exist
// under a live controller. Purge allows removing a replica in a failed
// state.
func (d *Driver) TerminateReplica(ctx context.Context, serviceName string, replicaID int, purge bool) error {
	if err := naming.Validate(serviceName); err != nil {
		return &ValidationError{Field: "service name", Reason: err.Error()}
	}
	if replicaID < 1 {
		return &ValidationError{Field: "replica id", Reason: "replica id must be a positive integer"}
	}

	handle, err := d.controllerHandle(ctx,
		fmt.Sprintf("cannot terminate replica %d of service %q while the serve controller is stopped", replicaID, serviceName),
		fmt.Sprintf("service %q does not exist; no serve controller is provisioned", serviceName))
	if err != nil {
		return err
	}

	stdout, err := d.run(ctx, handle, TerminateReplicaRequest{
		ServiceName: serviceName,
		ReplicaID:   replicaID,
		Purge:       purge,
	}, fmt.Sprintf("terminating replica %d of service %q", replicaID, serviceName))
	if err != nil {
		return err
	}
	if message := strings.TrimSpace(stdout); message != "" {
		d.logger.Info("replica termination finished", "detail", message)
	}
	return nil
}
