// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/skiff-compute/skiff/cmd/skiff/cli"
)

func downCommand() *cli.Command {
	var params clientParams
	var all bool
	var purge bool
	var replicaID int

	return &cli.Command{
		Name:    "down",
		Summary: "Tear down services or a single replica",
		Description: `Tear down services by name, or every service with --all.

With --replica, tear down a single replica of one service instead of
the whole service; this requires exactly one service name and a running
controller.

Services in failed states refuse normal teardown; --purge removes them
anyway. Tearing down services that no longer exist (or when no
controller is provisioned at all) succeeds: the requested end state
already holds.`,
		Usage: "skiff serve down [flags] [service-name ...]",
		Examples: []cli.Example{
			{
				Description: "Tear down one service",
				Command:     "skiff serve down my-service",
			},
			{
				Description: "Tear down everything",
				Command:     "skiff serve down --all",
			},
			{
				Description: "Force removal of a failed service",
				Command:     "skiff serve down --purge my-service",
			},
			{
				Description: "Tear down a single replica",
				Command:     "skiff serve down my-service --replica 3",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("down", pflag.ContinueOnError)
			params.register(flags)
			flags.BoolVar(&all, "all", false, "tear down every service")
			flags.BoolVar(&purge, "purge", false, "also remove services in failed states")
			flags.IntVar(&replicaID, "replica", 0, "tear down only this replica of the named service")
			return flags
		},
		Run: func(args []string) error {
			driver, _, err := params.driver()
			if err != nil {
				return err
			}

			if replicaID != 0 {
				if all {
					return fmt.Errorf("--replica tears down one replica of one service; it cannot be combined with --all")
				}
				if len(args) != 1 {
					return fmt.Errorf("--replica requires exactly one service name, got %d", len(args))
				}
				if err := driver.TerminateReplica(context.Background(), args[0], replicaID, purge); err != nil {
					return err
				}
				fmt.Printf("Replica %d of service %q is being torn down.\n", replicaID, args[0])
				return nil
			}

			if err := driver.Down(context.Background(), args, all, purge); err != nil {
				return err
			}
			if all {
				fmt.Println("All services are being torn down.")
			} else {
				fmt.Printf("Tearing down %d service(s).\n", len(args))
			}
			return nil
		},
	}
}
