// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"errors"
	"fmt"

	"github.com/skiff-compute/skiff/fabric"
	"github.com/skiff-compute/skiff/lib/naming"
)

// UpResult is the outcome of a successful launch.
type UpResult struct {
	// ServiceName is the launched service's name (generated when the
	// caller gave none).
	ServiceName string
	// Endpoint is the reachable load balancer URL.
	Endpoint string
}

// Up launches a new service. When serviceName is empty a fresh name is
// generated. The call is synchronous: it returns once the service is
// registered with the controller and its endpoint resolved, or with an
// error describing why the launch lost.
//
// Launch races are resolved remotely. The bootstrap job registers the
// service under first-writer-wins; if this launch's job is not the
// registered writer, Up cleans up its own job where it can and reports
// the conflict. There is no local locking and nothing to clean up
// locally on failure.
func (d *Driver) Up(ctx context.Context, spec *ServiceSpec, serviceName string) (UpResult, error) {
	if serviceName == "" {
		serviceName = naming.GenerateServiceName()
	}
	if err := ValidateSpec(serviceName, spec); err != nil {
		return UpResult{}, err
	}
	if err := d.policy.Apply(serviceName, spec); err != nil {
		return UpResult{}, fmt.Errorf("applying policy to service %q: %w", serviceName, err)
	}

	task, err := d.renderControllerTask(serviceName, spec)
	if err != nil {
		return UpResult{}, err
	}

	d.logger.Info("launching service", "service", serviceName)
	jobID, handle, err := d.provisioner.Submit(ctx, fabric.BootstrapSpec{
		ClusterName: naming.ControllerCluster,
		ServiceName: serviceName,
		Task:        task,
		Ports:       d.config.Controller.LoadBalancerPortRange,
	}, fabric.SubmitOptions{
		Detach:                true,
		RetryUntilUp:          true,
		IdleMinutesToAutostop: d.config.Controller.IdleMinutesToAutostop,
	})
	if err != nil {
		return UpResult{}, fmt.Errorf("submitting launch for service %q: %w", serviceName, err)
	}

	stdout, err := d.run(ctx, handle, WaitForRegistrationRequest{
		ServiceName: serviceName,
		JobID:       int64(jobID),
	}, "waiting for service registration")
	if err != nil {
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			return UpResult{}, err
		}
		return UpResult{}, d.classifyLostRegistration(ctx, handle, serviceName, jobID)
	}

	var registration RegistrationResult
	if err := DecodePayload(stdout, "registration result", &registration); err != nil {
		return UpResult{}, err
	}
	if registration.LoadBalancerPort <= 0 {
		return UpResult{}, fmt.Errorf("service %q registered without a load balancer port", serviceName)
	}

	endpoint, err := d.channel.ResolveEndpoint(ctx, handle, registration.LoadBalancerPort)
	if err != nil {
		return UpResult{}, fmt.Errorf("resolving endpoint for service %q: %w", serviceName, err)
	}
	if endpoint == "" {
		return UpResult{}, fmt.Errorf("service %q registered on port %d but no endpoint is exposed there",
			serviceName, registration.LoadBalancerPort)
	}

	d.logger.Info("service launched",
		"service", serviceName,
		"endpoint", endpoint)
	return UpResult{ServiceName: serviceName, Endpoint: endpoint}, nil
}

// classifyLostRegistration turns a failed registration handshake into
// the most specific error the fabric can support. A launch job still
// pending means the cluster had no capacity to admit it: the orphaned
// job is cancelled and the failure is definitely capacity. Any other
// job state means another writer won the name, which from here is
// indistinguishable from a capacity loss that already resolved.
func (d *Driver) classifyLostRegistration(ctx context.Context, handle fabric.Handle, serviceName string, jobID fabric.JobID) error {
	status, statusErr := d.provisioner.JobStatus(ctx, handle, jobID)
	if statusErr == nil && status == fabric.JobPending {
		if cancelErr := d.provisioner.CancelJob(ctx, handle, jobID); cancelErr != nil {
			d.logger.Warn("cancelling unadmitted launch job failed",
				"service", serviceName,
				"job", jobID,
				"error", cancelErr)
		}
		return fmt.Errorf("launching service %q: %w", serviceName, ErrCapacityExceeded)
	}
	return fmt.Errorf("launching service %q: %w", serviceName, ErrNameConflictOrCapacityExceeded)
}
