// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/skiff-compute/skiff/cmd/skiff/cli"
)

func syncLogsCommand() *cli.Command {
	var params clientParams
	var components componentFlags

	return &cli.Command{
		Name:    "sync-logs",
		Summary: "Download service logs to the local machine",
		Description: `Download service logs into a fresh run-timestamped directory under
the configured logs path.

Without a component flag, the controller log, the load balancer log,
and every replica's logs are downloaded. --target controller,
--target load-balancer, or --replica <id> narrow the download to one
component.`,
		Usage: "skiff serve sync-logs [flags] <service-name>",
		Examples: []cli.Example{
			{
				Description: "Download everything",
				Command:     "skiff serve sync-logs my-service",
			},
			{
				Description: "Download only replica 3's logs",
				Command:     "skiff serve sync-logs my-service --replica 3",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("sync-logs", pflag.ContinueOnError)
			params.register(flags)
			components.register(flags)
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
			localDir, err := driver.SyncDownLogs(context.Background(), args[0], component, components.replicaID)
			if err != nil {
				return err
			}
			fmt.Printf("Logs synced to %s\n", localDir)
			return nil
		},
	}
}
