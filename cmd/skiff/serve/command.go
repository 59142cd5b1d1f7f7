// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package serve implements the "skiff serve" command group: launching
// services, rolling out updates, tearing services down, and inspecting
// their status and logs.
package serve

import "github.com/skiff-compute/skiff/cmd/skiff/cli"

// Command returns the "serve" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Summary: "Deploy and manage served workloads",
		Description: `Commands for serving workloads behind a managed load balancer.

A service is defined by a YAML spec: the workload each replica runs,
the resource alternatives to run it on, and a service policy block
(replica count, readiness probing, spot fallback). Launching a service
provisions a shared controller cluster on the fabric; the controller
keeps the requested replica count alive and fronts the replicas with a
load balancer.

All state lives with the controller. These commands are thin,
synchronous calls against it: they return once the controller has
accepted or rejected the request, and concurrent invocations from
different machines are safe.`,
		Subcommands: []*cli.Command{
			upCommand(),
			updateCommand(),
			downCommand(),
			statusCommand(),
			logsCommand(),
			syncLogsCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Launch a service with a generated name",
				Command:     "skiff serve up service.yaml",
			},
			{
				Description: "Roll a service onto a new spec",
				Command:     "skiff serve update my-service service.yaml",
			},
			{
				Description: "Show all services and their replicas",
				Command:     "skiff serve status",
			},
			{
				Description: "Tear down one service",
				Command:     "skiff serve down my-service",
			},
			{
				Description: "Download every log of a service",
				Command:     "skiff serve sync-logs my-service",
			},
		},
	}
}
