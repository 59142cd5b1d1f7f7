// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/skiff-compute/skiff/cmd/skiff/cli"
	"github.com/skiff-compute/skiff/serve"
)

// componentFlags selects which service component a log command targets.
type componentFlags struct {
	target    string
	replicaID int
}

func (f *componentFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.target, "target", "", "component to target: controller, load-balancer, or replica")
	flags.IntVar(&f.replicaID, "replica", 0, "replica id (implies --target replica)")
}

// component resolves the flags to a component selection. An empty
// target with no replica id means ComponentUnspecified; a replica id
// alone implies the replica component.
func (f *componentFlags) component() (serve.Component, error) {
	if f.target == "" {
		if f.replicaID != 0 {
			return serve.ComponentReplica, nil
		}
		return serve.ComponentUnspecified, nil
	}
	component, err := serve.ParseComponent(f.target)
	if err != nil {
		return "", err
	}
	if f.replicaID != 0 && component != serve.ComponentReplica {
		return "", fmt.Errorf("--replica only applies to --target replica, not %q", f.target)
	}
	return component, nil
}

func logsCommand() *cli.Command {
	var params clientParams
	var components componentFlags
	var noFollow bool

	return &cli.Command{
		Name:    "logs",
		Summary: "Tail a service component's log",
		Description: `Stream the log of one service component to the terminal.

Exactly one component must be chosen: --target controller,
--target load-balancer, or --replica <id>. The stream follows new
output until interrupted (Ctrl-C stops the tail, not the service);
with --no-follow it stops at the current end of the log.`,
		Usage: "skiff serve logs [flags] <service-name>",
		Examples: []cli.Example{
			{
				Description: "Follow the controller log",
				Command:     "skiff serve logs my-service --target controller",
			},
			{
				Description: "Dump replica 2's log and exit",
				Command:     "skiff serve logs my-service --replica 2 --no-follow",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("logs", pflag.ContinueOnError)
			params.register(flags)
			components.register(flags)
			flags.BoolVar(&noFollow, "no-follow", false, "stop at the end of the log instead of following")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument (the service name), got %d", len(args))
			}
			component, err := components.component()
			if err != nil {
				return err
			}
			driver, _, err := params.driver()
			if err != nil {
				return err
			}
			return driver.TailLogs(context.Background(), args[0], component, components.replicaID, !noFollow)
		},
	}
}
