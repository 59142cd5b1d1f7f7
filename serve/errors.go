// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a spec or argument rejected before any
// remote call was made.
type ValidationError struct {
	// Field names the offending spec field or argument.
	Field string
	// Reason explains the rejection and what to change.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CommandError reports a remote command that ran but exited non-zero.
// The captured error output is preserved for the caller's message.
type CommandError struct {
	// Operation describes what the command was doing.
	Operation string
	// ExitCode is the remote exit code.
	ExitCode int
	// Stderr is the captured remote error output, trimmed.
	Stderr string
}

func (e *CommandError) Error() string {
	message := fmt.Sprintf("%s: remote command exited with status %d", e.Operation, e.ExitCode)
	if detail := strings.TrimSpace(e.Stderr); detail != "" {
		message += ": " + detail
	}
	return message
}

// ParseError reports a malformed structured payload from the remote
// side.
type ParseError struct {
	// What names the payload being decoded.
	What string
	// Snippet is a bounded excerpt of the offending payload.
	Snippet string
	// Err is the underlying decode error.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s from controller payload %q: %v", e.What, e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Sentinel errors for remote outcomes. Operations wrap these with
// remediation text; callers branch with errors.Is.
var (
	// ErrControllerUnreachable means the serve controller cluster is
	// stopped or cannot be reached.
	ErrControllerUnreachable = errors.New("serve controller is unreachable")

	// ErrServiceNotFound means no service record exists for the name.
	ErrServiceNotFound = errors.New("service not found")

	// ErrNameConflictOrCapacityExceeded reports a failed launch
	// handshake the remote side cannot disambiguate: either the name
	// is already registered to another controller job, or the
	// controller rejected the job on a resource check after admission.
	// The ambiguity is deliberate; see the launch handshake.
	ErrNameConflictOrCapacityExceeded = errors.New(
		"service failed to register: the name is already taken, or the controller is out of capacity")

	// ErrCapacityExceeded is the distinguishable sub-case: the
	// bootstrap job never got admitted, which only happens when the
	// platform's service capacity is exhausted.
	ErrCapacityExceeded = errors.New("maximum number of services reached")

	// ErrNetwork reports a failed reachability pre-check; no remote
	// operation was attempted.
	ErrNetwork = errors.New("network unreachable")
)
