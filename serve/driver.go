// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/skiff-compute/skiff/fabric"
	"github.com/skiff-compute/skiff/lib/config"
	"github.com/skiff-compute/skiff/lib/naming"
)

// Options configures a Driver. Provisioner and Channel are required;
// the rest default sensibly.
type Options struct {
	// Provisioner talks to the fabric API for cluster and job
	// lifecycle.
	Provisioner fabric.Provisioner

	// Channel executes commands and transfers files on provisioned
	// clusters.
	Channel fabric.Channel

	// Policy mutates specs before launch and update. Nil means no
	// policy.
	Policy Policy

	// Config supplies local paths and controller tuning. Nil means
	// config.Default().
	Config *config.Config

	// Logger receives operational logging. Nil discards.
	Logger *slog.Logger

	// StreamOutput receives streamed remote logs during tail
	// operations. Nil means os.Stdout.
	StreamOutput io.Writer
}

// Driver is the client-side control plane for serving. Every method
// is a synchronous call: it returns once the remote side has accepted
// or rejected the request. The driver holds no local state about
// services and takes no local locks; conflicting launches are resolved
// remotely by first-writer-wins registration.
type Driver struct {
	provisioner fabric.Provisioner
	channel     fabric.Channel
	policy      Policy
	config      *config.Config
	logger      *slog.Logger
	stream      io.Writer
}

// New builds a Driver from options.
func New(options Options) (*Driver, error) {
	if options.Provisioner == nil {
		return nil, fmt.Errorf("serve: a provisioner is required")
	}
	if options.Channel == nil {
		return nil, fmt.Errorf("serve: a channel is required")
	}
	driver := &Driver{
		provisioner: options.Provisioner,
		channel:     options.Channel,
		policy:      options.Policy,
		config:      options.Config,
		logger:      options.Logger,
		stream:      options.StreamOutput,
	}
	if driver.policy == nil {
		driver.policy = NopPolicy{}
	}
	if driver.config == nil {
		driver.config = config.Default()
	}
	if driver.logger == nil {
		driver.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if driver.stream == nil {
		driver.stream = os.Stdout
	}
	return driver, nil
}

// controllerHandle resolves the shared controller cluster, mapping
// fabric sentinels onto the messages the calling operation wants.
// A stopped controller wraps ErrControllerUnreachable; an absent one
// wraps ErrServiceNotFound, since no controller means no services.
func (d *Driver) controllerHandle(ctx context.Context, stoppedMessage, missingMessage string) (fabric.Handle, error) {
	handle, err := d.provisioner.LookupController(ctx, naming.ControllerCluster)
	switch {
	case errors.Is(err, fabric.ErrControllerStopped):
		return fabric.Handle{}, fmt.Errorf("%s: %w", stoppedMessage, ErrControllerUnreachable)
	case errors.Is(err, fabric.ErrControllerNotFound):
		return fabric.Handle{}, fmt.Errorf("%s: %w", missingMessage, ErrServiceNotFound)
	case err != nil:
		return fabric.Handle{}, fmt.Errorf("looking up serve controller: %w", err)
	}
	return handle, nil
}

// run executes one catalog request on the controller and returns its
// stdout. A non-zero exit becomes a *CommandError carrying the remote
// stderr; transport failures pass through unchanged.
func (d *Driver) run(ctx context.Context, handle fabric.Handle, request Request, operation string) (string, error) {
	command, err := EncodeCommand(request)
	if err != nil {
		return "", err
	}
	d.logger.Debug("running controller command",
		"operation", operation,
		"cluster", handle.ClusterName)
	result, err := d.channel.Run(ctx, handle, command, fabric.RunOptions{SeparateStderr: true})
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	if result.ExitCode != 0 {
		return result.Stdout, &CommandError{
			Operation: operation,
			ExitCode:  result.ExitCode,
			Stderr:    result.Stderr,
		}
	}
	return result.Stdout, nil
}
