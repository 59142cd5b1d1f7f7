// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR wire codec used for controller
// protocol payloads. Encoding is Core Deterministic Encoding (RFC 8949
// §4.2) so that the same logical request always produces identical
// bytes, which keeps remote command lines stable and diffable in
// controller logs.
//
// Payloads that travel inside a shell command line or on a process's
// stdout are base64-wrapped with MarshalBase64/UnmarshalBase64.
package codec
