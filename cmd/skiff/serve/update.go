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

func updateCommand() *cli.Command {
	var params clientParams
	var mode string

	return &cli.Command{
		Name:    "update",
		Summary: "Roll a service onto a new spec",
		Description: `Update a running service to a new YAML spec.

The controller allocates the next version number, the spec is uploaded,
and the rollout starts. With the default rolling mode old replicas are
replaced one at a time as new ones become ready; blue-green brings up
the full new replica set before any traffic shifts.

The command returns once the rollout is accepted. Use "skiff serve
status" to watch replicas converge on the new version.`,
		Usage: "skiff serve update [flags] <service-name> <spec.yaml>",
		Examples: []cli.Example{
			{
				Description: "Rolling update",
				Command:     "skiff serve update my-service service.yaml",
			},
			{
				Description: "Blue-green update",
				Command:     "skiff serve update --mode blue-green my-service service.yaml",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("update", pflag.ContinueOnError)
			params.register(flags)
			flags.StringVar(&mode, "mode", string(serve.DefaultUpdateMode), "rollout mode: rolling or blue-green")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected exactly two arguments (service name and spec file), got %d", len(args))
			}
			updateMode, err := serve.ParseUpdateMode(mode)
			if err != nil {
				return err
			}
			spec, err := loadSpecFile(args[1])
			if err != nil {
				return err
			}
			driver, _, err := params.driver()
			if err != nil {
				return err
			}

			if err := driver.Update(context.Background(), args[0], spec, updateMode); err != nil {
				return err
			}
			fmt.Printf("Update of service %q accepted (%s).\n", args[0], updateMode)
			return nil
		},
	}
}
