// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the minimal command framework behind the skiff binary:
// a Command tree dispatched by name with pflag flag parsing, structured
// help output, typo suggestions, and the shared command logger.
//
// Commands here are thin shells: they parse flags, load configuration,
// and delegate to the serve package. No control-plane logic lives in
// the CLI layer.
package cli
