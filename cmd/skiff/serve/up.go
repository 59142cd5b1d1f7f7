// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/skiff-compute/skiff/cmd/skiff/cli"
)

func upCommand() *cli.Command {
	var params clientParams
	var name string

	return &cli.Command{
		Name:    "up",
		Summary: "Launch a new service",
		Description: `Launch a new service from a YAML spec file.

The launch provisions (or reuses) the shared controller cluster,
registers the service, and waits until the registration is confirmed
and the load balancer endpoint is reachable. Without --name a unique
service name is generated.

Service names are claimed first-come-first-served. If another launch
claims the name first, or the controller has no capacity left for
another service, the launch fails without leaving anything behind.`,
		Usage: "skiff serve up [flags] <spec.yaml>",
		Examples: []cli.Example{
			{
				Description: "Launch with a generated name",
				Command:     "skiff serve up service.yaml",
			},
			{
				Description: "Launch under a chosen name",
				Command:     "skiff serve up --name my-service service.yaml",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("up", pflag.ContinueOnError)
			params.register(flags)
			flags.StringVar(&name, "name", "", "service name (default: generated)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument (the spec file), got %d", len(args))
			}
			spec, err := loadSpecFile(args[0])
			if err != nil {
				return err
			}
			driver, _, err := params.driver()
			if err != nil {
				return err
			}

			result, err := driver.Up(context.Background(), spec, name)
			if err != nil {
				return err
			}
			printUpEpilogue(result.ServiceName, result.Endpoint)
			return nil
		},
	}
}

// printUpEpilogue prints the endpoint and the follow-up commands a
// user typically wants right after a launch.
func printUpEpilogue(serviceName, endpoint string) {
	fmt.Fprintf(os.Stdout, "\nService %q is up.\n", serviceName)
	fmt.Fprintf(os.Stdout, "Endpoint: %s\n", endpoint)
	fmt.Fprintf(os.Stdout, `
Useful commands:

  # Check service status
  skiff serve status %[1]s

  # Follow the controller log
  skiff serve logs %[1]s --target controller

  # Follow a replica's log
  skiff serve logs %[1]s --replica 1

  # Send a test request
  curl %[2]s

  # Tear the service down
  skiff serve down %[1]s
`, serviceName, endpoint)
}
