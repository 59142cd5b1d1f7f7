// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import "github.com/skiff-compute/skiff/lib/naming"

// ValidateSpec checks a service spec before anything is provisioned.
// Validation failures are *ValidationError values; nothing remote is
// touched.
func ValidateSpec(serviceName string, spec *ServiceSpec) error {
	if err := naming.Validate(serviceName); err != nil {
		return &ValidationError{Field: "name", Reason: err.Error()}
	}
	if spec == nil {
		return &ValidationError{Field: "task", Reason: "no task definition given"}
	}
	if spec.Service == nil {
		return &ValidationError{Field: "service", Reason: "a service section is required to launch a service"}
	}
	if spec.Workload.Run == "" {
		return &ValidationError{Field: "run", Reason: "a run command is required"}
	}
	if len(spec.Resources) == 0 {
		return &ValidationError{Field: "resources", Reason: "at least one resource option is required"}
	}
	port := 0
	useSpot := spec.Resources[0].UseSpot
	for _, res := range spec.Resources {
		if res.JobRecovery != "" {
			return &ValidationError{Field: "resources.job_recovery", Reason: "job recovery does not apply to services; replica replenishment is managed by the platform"}
		}
		if res.UseSpot != useSpot {
			return &ValidationError{Field: "resources.use_spot", Reason: "spot usage must be uniform across all resource options"}
		}
		if len(res.Ports) == 0 {
			return &ValidationError{Field: "resources.ports", Reason: "each resource option must expose the service port"}
		}
		if len(res.Ports) > 1 {
			return &ValidationError{Field: "resources.ports", Reason: "a service exposes exactly one port per resource option"}
		}
		if port == 0 {
			port = res.Ports[0]
		} else if res.Ports[0] != port {
			return &ValidationError{Field: "resources.ports", Reason: "all resource options must expose the same port"}
		}
	}
	policy := spec.Service
	if policy.Replicas < 1 {
		return &ValidationError{Field: "service.replicas", Reason: "replica count must be at least 1"}
	}
	if (policy.DynamicOndemandFallback || policy.UseOndemandFallback || policy.BaseOndemandFallbackReplicas > 0) && !useSpot {
		return &ValidationError{Field: "service", Reason: "on-demand fallback requires spot resources"}
	}
	if policy.BaseOndemandFallbackReplicas > 0 && !policy.UseOndemandFallback && !policy.DynamicOndemandFallback {
		return &ValidationError{Field: "service.base_ondemand_fallback_replicas", Reason: "base fallback replicas require a fallback mode"}
	}
	return nil
}
