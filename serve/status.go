// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"fmt"
)

// Status fetches service records from the controller. A nil or empty
// serviceNames fetches every service. Names the controller does not
// know are omitted from the result rather than reported as errors, so
// the caller can diff requested against returned names if it cares.
//
// Status fails fast with ErrNetwork when the fabric API is unreachable
// at all, before any controller lookup.
func (d *Driver) Status(ctx context.Context, serviceNames []string) ([]ServiceRecord, error) {
	if err := d.provisioner.CheckNetwork(ctx); err != nil {
		return nil, fmt.Errorf("refreshing service status: %w: %s", ErrNetwork, err)
	}

	handle, err := d.controllerHandle(ctx,
		"services cannot be queried while the serve controller is stopped",
		"no services are deployed; no serve controller is provisioned")
	if err != nil {
		return nil, err
	}

	stdout, err := d.run(ctx, handle, GetStatusRequest{
		ServiceNames: serviceNames,
	}, "fetching service status")
	if err != nil {
		return nil, err
	}
	var result StatusResult
	if err := DecodePayload(stdout, "service status", &result); err != nil {
		return nil, err
	}
	return result.Services, nil
}
