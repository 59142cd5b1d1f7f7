// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package naming holds the shared naming rules for services and the
// clusters derived from them. A service name doubles as the stem of
// its controller job name and of every replica cluster name, so all
// three share one validation pattern.
package naming

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// namePattern is the shared cluster-naming pattern: lowercase letters,
// digits and dashes, starting with a letter and not ending with a dash.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ControllerCluster is the cluster name of the shared serve controller.
// One controller cluster hosts the controller processes for every
// service launched by this client.
const ControllerCluster = "skiff-serve-controller"

// serviceNamePrefix is prepended to generated service names.
const serviceNamePrefix = "skiff-service"

// Validate checks a service name against the shared naming pattern.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("service name is empty")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("service name %q is invalid: it must contain only "+
			"lowercase letters, digits and dashes, start with a letter, and "+
			"not end with a dash (pattern %s)", name, namePattern.String())
	}
	return nil
}

// GenerateServiceName returns a fresh service name that satisfies
// Validate. The random suffix comes from a UUID, truncated: collisions
// are resolved remotely by the controller's first-writer-wins
// registration, not locally.
func GenerateServiceName() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return serviceNamePrefix + "-" + suffix
}

// ReplicaCluster returns the cluster name for one replica of a service.
func ReplicaCluster(serviceName string, replicaID int) string {
	return fmt.Sprintf("%s-%d", serviceName, replicaID)
}
