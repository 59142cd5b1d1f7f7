// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/skiff-compute/skiff/cmd/skiff/cli"
	"github.com/skiff-compute/skiff/lib/naming"
	"github.com/skiff-compute/skiff/serve"
)

func statusCommand() *cli.Command {
	var params clientParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show deployed services and their replicas",
		Description: `Show the status of deployed services.

Without arguments, every service is listed. With service names, only
those are shown; names the controller does not know are silently
omitted.`,
		Usage: "skiff serve status [flags] [service-name ...]",
		Examples: []cli.Example{
			{
				Description: "Show everything",
				Command:     "skiff serve status",
			},
			{
				Description: "Show one service",
				Command:     "skiff serve status my-service",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
			params.register(flags)
			return flags
		},
		Run: func(args []string) error {
			driver, _, err := params.driver()
			if err != nil {
				return err
			}
			records, err := driver.Status(context.Background(), args)
			if err != nil {
				return err
			}
			renderStatus(os.Stdout, records)
			return nil
		},
	}
}

// renderStatus writes the service and replica tables.
func renderStatus(w io.Writer, records []serve.ServiceRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No services.")
		return
	}

	fmt.Fprintln(w, "Services")
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tUPTIME\tSTATUS\tREPLICAS\tLB PORT")
	for _, record := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			record.Name,
			formatVersions(record.ActiveVersions),
			formatUptime(record.UptimeSeconds),
			record.Status,
			len(record.Replicas),
			record.LoadBalancerPort)
	}
	tw.Flush()

	var haveReplicas bool
	for _, record := range records {
		if len(record.Replicas) > 0 {
			haveReplicas = true
			break
		}
	}
	if !haveReplicas {
		return
	}

	fmt.Fprintln(w, "\nReplicas")
	tw = tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tID\tCLUSTER\tVERSION\tLAUNCHED\tSTATUS")
	for _, record := range records {
		for _, replica := range record.Replicas {
			cluster := replica.Name
			if cluster == "" {
				cluster = naming.ReplicaCluster(record.Name, replica.ReplicaID)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\t%s\n",
				record.Name,
				replica.ReplicaID,
				cluster,
				replica.Version,
				formatLaunched(replica.LaunchedAt),
				replica.Status)
		}
	}
	tw.Flush()
}

// formatVersions renders the active version set, e.g. "3" or "2,3"
// mid-rollout.
func formatVersions(versions []int) string {
	if len(versions) == 0 {
		return "-"
	}
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// formatUptime renders seconds as a compact duration, e.g. "3d4h".
func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "-"
	}
	d := time.Duration(seconds) * time.Second
	switch {
	case d >= 24*time.Hour:
		days := d / (24 * time.Hour)
		hours := (d % (24 * time.Hour)) / time.Hour
		return fmt.Sprintf("%dd%dh", days, hours)
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", d/time.Hour, (d%time.Hour)/time.Minute)
	case d >= time.Minute:
		return fmt.Sprintf("%dm%ds", d/time.Minute, (d%time.Minute)/time.Second)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

// formatLaunched renders a replica launch time.
func formatLaunched(epochSeconds int64) string {
	if epochSeconds <= 0 {
		return "-"
	}
	return time.Unix(epochSeconds, 0).UTC().Format("2006-01-02 15:04")
}
