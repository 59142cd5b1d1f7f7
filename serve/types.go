// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"fmt"
)

// ServiceSpec is a user-supplied service task: a workload, one or more
// resource alternatives to run it on, and the service policy block.
type ServiceSpec struct {
	// Workload describes what each replica runs. Its contents are
	// opaque to the driver and interpreted by the controller.
	Workload Workload `yaml:"workload"`

	// Resources are the acceptable resource alternatives for a
	// replica. The fabric picks whichever it can provision first.
	Resources []ResourceSpec `yaml:"resources"`

	// Service is the service policy block. Required.
	Service *ServicePolicy `yaml:"service"`
}

// Workload describes the replica process.
type Workload struct {
	// Setup runs once before the replica process starts.
	Setup string `yaml:"setup,omitempty"`
	// Run starts the replica process.
	Run string `yaml:"run"`
	// Envs are environment variables for both Setup and Run.
	Envs map[string]string `yaml:"envs,omitempty"`
}

// ResourceSpec is one resource alternative for a replica.
type ResourceSpec struct {
	// CPUs requests processor capacity (e.g., "4", "8+").
	CPUs string `yaml:"cpus,omitempty"`
	// Memory requests memory capacity (e.g., "16", "32+").
	Memory string `yaml:"memory,omitempty"`
	// Accelerators requests accelerator devices (e.g., "A100:1").
	Accelerators string `yaml:"accelerators,omitempty"`
	// UseSpot requests preemptible capacity.
	UseSpot bool `yaml:"use_spot"`
	// Ports are the ports the replica opens. Exactly one must be
	// declared: the service's ingress port.
	Ports []int `yaml:"ports"`
	// JobRecovery is a per-replica recovery setting. It is rejected
	// for services: the platform's own replenishment policy applies.
	JobRecovery string `yaml:"job_recovery,omitempty"`
}

// ServicePolicy is the service policy block of a spec.
type ServicePolicy struct {
	// Replicas is the requested replica count.
	Replicas int `yaml:"replicas"`
	// ReadinessPath is probed to decide replica readiness.
	ReadinessPath string `yaml:"readiness_path,omitempty"`
	// DynamicOndemandFallback lets the controller mix in on-demand
	// replicas when spot capacity is preempted.
	DynamicOndemandFallback bool `yaml:"dynamic_ondemand_fallback,omitempty"`
	// UseOndemandFallback requests static on-demand fallback. Only
	// valid when all resource alternatives are spot.
	UseOndemandFallback bool `yaml:"use_ondemand_fallback,omitempty"`
	// BaseOndemandFallbackReplicas is the number of always-on-demand
	// replicas kept under spot policies.
	BaseOndemandFallbackReplicas int `yaml:"base_ondemand_fallback_replicas,omitempty"`
}

// ServiceStatus is the controller's view of a whole service.
type ServiceStatus string

// Service statuses.
const (
	// StatusControllerInit means the controller process is still
	// starting and cannot take lifecycle operations yet.
	StatusControllerInit ServiceStatus = "CONTROLLER_INIT"
	// StatusReplicaInit means the controller is up and the first
	// replicas are being provisioned.
	StatusReplicaInit ServiceStatus = "REPLICA_INIT"
	// StatusReady means at least one replica is serving.
	StatusReady ServiceStatus = "READY"
	// StatusNoReplica means the controller is up but no replica is
	// available.
	StatusNoReplica ServiceStatus = "NO_REPLICA"
	// StatusShuttingDown means teardown is in progress.
	StatusShuttingDown ServiceStatus = "SHUTTING_DOWN"
	// StatusControllerFailed means the controller process itself
	// failed; the service needs cleanup before anything else.
	StatusControllerFailed ServiceStatus = "CONTROLLER_FAILED"
	// StatusFailed means the service failed terminally.
	StatusFailed ServiceStatus = "FAILED"
)

// ReplicaStatus is the controller's view of one replica.
type ReplicaStatus string

// Replica statuses.
const (
	ReplicaPending      ReplicaStatus = "PENDING"
	ReplicaProvisioning ReplicaStatus = "PROVISIONING"
	ReplicaStarting     ReplicaStatus = "STARTING"
	ReplicaReady        ReplicaStatus = "READY"
	ReplicaNotReady     ReplicaStatus = "NOT_READY"
	ReplicaShuttingDown ReplicaStatus = "SHUTTING_DOWN"
	ReplicaFailed       ReplicaStatus = "FAILED"
	ReplicaPreempted    ReplicaStatus = "PREEMPTED"
)

// ServiceRecord is a snapshot of one service's remote state. It is
// owned by the controller; the driver only decodes and reads it.
type ServiceRecord struct {
	// Name is the service name.
	Name string `cbor:"name"`
	// ActiveVersions are the version numbers currently serving.
	ActiveVersions []int `cbor:"active_versions"`
	// ControllerJobID is the job id of the controller process; the
	// first writer of this field owns the name.
	ControllerJobID int64 `cbor:"controller_job_id"`
	// UptimeSeconds is how long the service has been up.
	UptimeSeconds int64 `cbor:"uptime"`
	// Status is the service status.
	Status ServiceStatus `cbor:"status"`
	// ControllerPort is the controller's own port.
	ControllerPort int `cbor:"controller_port"`
	// LoadBalancerPort is the port the load balancer listens on.
	LoadBalancerPort int `cbor:"load_balancer_port"`
	// Policy describes the load balancing policy.
	Policy string `cbor:"policy"`
	// RequestedResources describes the requested replica resources.
	RequestedResources string `cbor:"requested_resources"`
	// Replicas are the service's replicas, in replica-id order.
	Replicas []ReplicaRecord `cbor:"replica_info"`
}

// ReplicaRecord is a snapshot of one replica's remote state.
type ReplicaRecord struct {
	// ReplicaID identifies the replica within its service.
	ReplicaID int `cbor:"replica_id"`
	// Name is the replica cluster name derived from the service name.
	Name string `cbor:"name"`
	// Status is the replica status.
	Status ReplicaStatus `cbor:"status"`
	// Version is the service version the replica runs.
	Version int `cbor:"version"`
	// LaunchedAt is the replica launch time, seconds since the epoch.
	LaunchedAt int64 `cbor:"launched_at"`
	// Handle is an opaque reference to the replica's cluster handle.
	Handle string `cbor:"handle"`
}

// Component selects a part of a running service.
type Component string

// Service components.
const (
	// ComponentUnspecified selects every component where a component
	// argument is optional.
	ComponentUnspecified Component = ""
	// ComponentController is the per-service controller process.
	ComponentController Component = "controller"
	// ComponentLoadBalancer is the service's load balancer process.
	ComponentLoadBalancer Component = "load-balancer"
	// ComponentReplica is one running replica.
	ComponentReplica Component = "replica"
)

// ParseComponent parses a component name given as text at an external
// boundary (CLI flags, API parameters).
func ParseComponent(text string) (Component, error) {
	switch Component(text) {
	case ComponentController, ComponentLoadBalancer, ComponentReplica:
		return Component(text), nil
	default:
		return "", fmt.Errorf("unknown service component %q: valid values are %q, %q, %q",
			text, ComponentController, ComponentLoadBalancer, ComponentReplica)
	}
}

// UpdateMode selects the rollout strategy for an update. The
// replacement policy behind each mode is owned by the remote
// controller.
type UpdateMode string

// Update modes.
const (
	// UpdateRolling replaces replicas gradually, mixing old and new
	// versions during the rollout.
	UpdateRolling UpdateMode = "rolling"
	// UpdateBlueGreen provisions the new version fully before
	// retiring the old one.
	UpdateBlueGreen UpdateMode = "blue-green"
)

// DefaultUpdateMode is used when no mode is given.
const DefaultUpdateMode = UpdateRolling

// ParseUpdateMode parses an update mode given as text at an external
// boundary.
func ParseUpdateMode(text string) (UpdateMode, error) {
	switch UpdateMode(text) {
	case UpdateRolling, UpdateBlueGreen:
		return UpdateMode(text), nil
	default:
		return "", fmt.Errorf("unknown update mode %q: valid values are %q, %q",
			text, UpdateRolling, UpdateBlueGreen)
	}
}
