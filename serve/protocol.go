// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"fmt"
	"strings"

	"github.com/skiff-compute/skiff/lib/codec"
)

// The controller command protocol. Each logical operation in the
// remote command catalog is a typed request struct; EncodeCommand
// turns one into the opaque command line executed on the controller
// host. Results come back on stdout as a base64 CBOR payload framed
// between marker lines, decoded with DecodePayload. The driver never
// depends on the command encoding beyond this file.

// protocolVersion is stamped into every request envelope. The
// controller rejects versions it does not understand rather than
// guessing.
const protocolVersion = 1

// controllerBinary is the entry point installed on every controller
// cluster by the bootstrap task.
const controllerBinary = "skiff-controller"

// Payload framing markers. The controller may log freely around them;
// only the framed section is decoded.
const (
	payloadBegin = "-----BEGIN SKIFF PAYLOAD-----"
	payloadEnd   = "-----END SKIFF PAYLOAD-----"
)

// Request is one operation from the remote command catalog.
type Request interface {
	// op returns the catalog operation name.
	op() string
}

// GetStatusRequest fetches service records. A nil ServiceNames fetches
// every service; unknown names are omitted from the result, not
// errors.
type GetStatusRequest struct {
	ServiceNames []string `cbor:"service_names"`
}

func (GetStatusRequest) op() string { return "get-status" }

// AddVersionRequest allocates the next version number for a service.
// Version numbers increase strictly per service.
type AddVersionRequest struct {
	ServiceName string `cbor:"service_name"`
}

func (AddVersionRequest) op() string { return "add-version" }

// UpdateServiceRequest triggers a rollout of an uploaded version.
type UpdateServiceRequest struct {
	ServiceName string     `cbor:"service_name"`
	Version     int        `cbor:"version"`
	Mode        UpdateMode `cbor:"mode"`
}

func (UpdateServiceRequest) op() string { return "update-service" }

// TerminateServicesRequest tears down services. A nil ServiceNames
// tears down every service. Purge forces removal of services in
// failed states.
type TerminateServicesRequest struct {
	ServiceNames []string `cbor:"service_names"`
	Purge        bool     `cbor:"purge"`
}

func (TerminateServicesRequest) op() string { return "terminate-services" }

// TerminateReplicaRequest tears down a single replica. Purge is
// required to remove a replica in a non-terminal or failed state.
type TerminateReplicaRequest struct {
	ServiceName string `cbor:"service_name"`
	ReplicaID   int    `cbor:"replica_id"`
	Purge       bool   `cbor:"purge"`
}

func (TerminateReplicaRequest) op() string { return "terminate-replica" }

// WaitForRegistrationRequest is the launch handshake: it blocks until
// the service record for ServiceName is persisted, then exits zero iff
// the persisted controller job id equals JobID. Registration is
// first-writer-wins, so a zero exit means this launch owns the name.
type WaitForRegistrationRequest struct {
	ServiceName string `cbor:"service_name"`
	JobID       int64  `cbor:"job_id"`
}

func (WaitForRegistrationRequest) op() string { return "wait-for-registration" }

// PrepareReplicaLogsRequest copies replica logs into the per-run
// staging directory for download. A zero ReplicaID prepares logs for
// every replica.
type PrepareReplicaLogsRequest struct {
	ServiceName  string `cbor:"service_name"`
	RunTimestamp string `cbor:"run_timestamp"`
	ReplicaID    int    `cbor:"replica_id"`
}

func (PrepareReplicaLogsRequest) op() string { return "prepare-replica-logs" }

// RemoveReplicaLogsRequest removes a previously prepared staging
// directory.
type RemoveReplicaLogsRequest struct {
	ServiceName  string `cbor:"service_name"`
	RunTimestamp string `cbor:"run_timestamp"`
}

func (RemoveReplicaLogsRequest) op() string { return "remove-replica-logs" }

// StreamProcessLogsRequest streams the controller's or load balancer's
// own process log to stdout.
type StreamProcessLogsRequest struct {
	ServiceName      string `cbor:"service_name"`
	StreamController bool   `cbor:"stream_controller"`
	Follow           bool   `cbor:"follow"`
}

func (StreamProcessLogsRequest) op() string { return "stream-process-logs" }

// StreamReplicaLogsRequest streams one replica's log to stdout.
type StreamReplicaLogsRequest struct {
	ServiceName string `cbor:"service_name"`
	ReplicaID   int    `cbor:"replica_id"`
	Follow      bool   `cbor:"follow"`
}

func (StreamReplicaLogsRequest) op() string { return "stream-replica-logs" }

// envelope is the wire form of a request.
type envelope struct {
	Version int              `cbor:"version"`
	Op      string           `cbor:"op"`
	Args    codec.RawMessage `cbor:"args"`
}

// EncodeCommand builds the remote command line for a request.
func EncodeCommand(request Request) (string, error) {
	args, err := codec.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encoding %s arguments: %w", request.op(), err)
	}
	payload, err := codec.MarshalBase64(envelope{
		Version: protocolVersion,
		Op:      request.op(),
		Args:    args,
	})
	if err != nil {
		return "", fmt.Errorf("encoding %s envelope: %w", request.op(), err)
	}
	return controllerBinary + " exec " + payload, nil
}

// RegistrationResult is the payload of a successful registration
// handshake.
type RegistrationResult struct {
	// LoadBalancerPort is the port the controller assigned to the
	// service's load balancer, from the reserved range.
	LoadBalancerPort int `cbor:"load_balancer_port"`
}

// AddVersionResult is the payload of an add-version request. The
// version arrives as an opaque token; the caller parses it.
type AddVersionResult struct {
	Version string `cbor:"version"`
}

// StatusResult is the payload of a get-status request.
type StatusResult struct {
	Services []ServiceRecord `cbor:"services"`
}

// DecodePayload extracts the framed payload section from remote stdout
// and decodes it into out. what names the expected payload for error
// messages.
func DecodePayload(stdout, what string, out any) error {
	payload, err := extractPayload(stdout)
	if err != nil {
		return &ParseError{What: what, Snippet: snippet(stdout), Err: err}
	}
	if err := codec.UnmarshalBase64(payload, out); err != nil {
		return &ParseError{What: what, Snippet: snippet(payload), Err: err}
	}
	return nil
}

// extractPayload returns the text between the payload markers.
func extractPayload(stdout string) (string, error) {
	begin := strings.Index(stdout, payloadBegin)
	if begin < 0 {
		return "", fmt.Errorf("payload begin marker not found")
	}
	rest := stdout[begin+len(payloadBegin):]
	end := strings.Index(rest, payloadEnd)
	if end < 0 {
		return "", fmt.Errorf("payload end marker not found")
	}
	return strings.TrimSpace(rest[:end]), nil
}

// snippet bounds a payload excerpt for error messages.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "…"
	}
	return s
}

// FramePayload wraps an encoded payload in the protocol markers. The
// controller uses this framing when writing results; it lives here so
// tests and fakes produce exactly what the decoder expects.
func FramePayload(v any) (string, error) {
	payload, err := codec.MarshalBase64(v)
	if err != nil {
		return "", err
	}
	return payloadBegin + "\n" + payload + "\n" + payloadEnd + "\n", nil
}
