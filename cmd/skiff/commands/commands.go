// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete Skiff CLI command tree.
package commands

import (
	"fmt"

	"github.com/skiff-compute/skiff/cmd/skiff/cli"
	servecmd "github.com/skiff-compute/skiff/cmd/skiff/serve"
	"github.com/skiff-compute/skiff/lib/version"
)

// Root builds and returns the complete Skiff CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "skiff",
		Description: `Skiff: launch and manage served workloads.

Deploy a service spec onto fabric-provisioned clusters, roll out new
versions, inspect replica state, and pull logs.`,
		Subcommands: []*cli.Command{
			servecmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func([]string) error {
					fmt.Printf("skiff %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Launch a service from a spec file",
				Command:     "skiff serve up --name my-service service.yaml",
			},
			{
				Description: "See every deployed service",
				Command:     "skiff serve status",
			},
			{
				Description: "Follow a replica's log",
				Command:     "skiff serve logs my-service --replica 1",
			},
		},
	}
}
