// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"fmt"
	"strings"
	"time"
)

// Remote filesystem layout on the controller cluster. Paths are
// relative to the remote user's home directory; the channel resolves
// them on the far side.

// remoteServiceDir is the per-service directory on the controller.
func remoteServiceDir(serviceName string) string {
	return fmt.Sprintf("~/.skiff/serve/%s", serviceName)
}

// remoteTaskPath is where a version's task definition is uploaded
// before the rollout is triggered. The version suffix keeps uploads
// for concurrent updates from clobbering each other.
func remoteTaskPath(serviceName string, version int) string {
	return fmt.Sprintf("%s/task_v%d.yaml", remoteServiceDir(serviceName), version)
}

// remoteControllerLogPath is the controller's own process log.
func remoteControllerLogPath(serviceName string) string {
	return remoteServiceDir(serviceName) + "/controller.log"
}

// remoteLoadBalancerLogPath is the load balancer's process log.
func remoteLoadBalancerLogPath(serviceName string) string {
	return remoteServiceDir(serviceName) + "/load_balancer.log"
}

// remoteReplicaLogDir is the staging directory prepare-replica-logs
// fills for one sync run.
func remoteReplicaLogDir(serviceName, runTimestamp string) string {
	return fmt.Sprintf("%s/replica_logs_%s", remoteServiceDir(serviceName), runTimestamp)
}

// runTimestamp names a log-sync run. Microsecond resolution keeps two
// runs in the same second from sharing a directory.
func runTimestamp(now time.Time) string {
	stamp := now.Format("2006-01-02-15-04-05.000000")
	return "skiff-" + strings.ReplaceAll(stamp, ".", "-")
}
