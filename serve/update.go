// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/skiff-compute/skiff/fabric"
)

// Update rolls an existing service onto a new spec. The new version is
// allocated by the controller, uploaded under a version-qualified
// path, and then activated with the given rollout mode. Update returns
// once the rollout has been accepted; replica convergence is the
// controller's business.
func (d *Driver) Update(ctx context.Context, serviceName string, spec *ServiceSpec, mode UpdateMode) error {
	if err := ValidateSpec(serviceName, spec); err != nil {
		return err
	}
	if err := d.policy.Apply(serviceName, spec); err != nil {
		return fmt.Errorf("applying policy to service %q: %w", serviceName, err)
	}

	handle, err := d.controllerHandle(ctx,
		fmt.Sprintf("service %q cannot be updated while the serve controller is stopped", serviceName),
		fmt.Sprintf("service %q does not exist; no serve controller is provisioned", serviceName))
	if err != nil {
		return err
	}

	record, err := d.lookupService(ctx, handle, serviceName)
	if err != nil {
		return err
	}
	switch record.Status {
	case StatusControllerFailed:
		return fmt.Errorf("service %q has a failed controller process and cannot be updated; tear it down and relaunch", serviceName)
	case StatusControllerInit:
		return fmt.Errorf("service %q is still initializing; try the update again once it is up", serviceName)
	}

	version, err := d.addVersion(ctx, handle, serviceName)
	if err != nil {
		return err
	}

	specPath, err := stageSpec(spec)
	if err != nil {
		return err
	}
	defer os.Remove(specPath)

	remotePath := remoteTaskPath(serviceName, version)
	err = d.channel.Transfer(ctx, handle, []fabric.TransferSpec{{
		RemotePath: remotePath,
		LocalPath:  specPath,
	}}, fabric.Push)
	if err != nil {
		return fmt.Errorf("uploading version %d of service %q: %w", version, serviceName, err)
	}

	_, err = d.run(ctx, handle, UpdateServiceRequest{
		ServiceName: serviceName,
		Version:     version,
		Mode:        mode,
	}, fmt.Sprintf("updating service %q to version %d", serviceName, version))
	if err != nil {
		return err
	}

	d.logger.Info("service update accepted",
		"service", serviceName,
		"version", version,
		"mode", mode)
	return nil
}

// lookupService fetches the one status record for serviceName. A
// service the controller does not know is ErrServiceNotFound.
func (d *Driver) lookupService(ctx context.Context, handle fabric.Handle, serviceName string) (ServiceRecord, error) {
	stdout, err := d.run(ctx, handle, GetStatusRequest{
		ServiceNames: []string{serviceName},
	}, fmt.Sprintf("fetching status of service %q", serviceName))
	if err != nil {
		return ServiceRecord{}, err
	}
	var result StatusResult
	if err := DecodePayload(stdout, "service status", &result); err != nil {
		return ServiceRecord{}, err
	}
	switch len(result.Services) {
	case 0:
		return ServiceRecord{}, fmt.Errorf("service %q: %w", serviceName, ErrServiceNotFound)
	case 1:
		return result.Services[0], nil
	default:
		return ServiceRecord{}, fmt.Errorf("controller returned %d records for service %q", len(result.Services), serviceName)
	}
}

// addVersion allocates the next version number for serviceName.
func (d *Driver) addVersion(ctx context.Context, handle fabric.Handle, serviceName string) (int, error) {
	stdout, err := d.run(ctx, handle, AddVersionRequest{
		ServiceName: serviceName,
	}, fmt.Sprintf("allocating a new version for service %q", serviceName))
	if err != nil {
		return 0, err
	}
	var result AddVersionResult
	if err := DecodePayload(stdout, "new version number", &result); err != nil {
		return 0, err
	}
	version, err := strconv.Atoi(result.Version)
	if err != nil || version < 1 {
		return 0, &ParseError{
			What:    "new version number",
			Snippet: result.Version,
			Err:     fmt.Errorf("version must be a positive integer"),
		}
	}
	return version, nil
}
