// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package fabric is the client side of the provisioning fabric: job
// submission and lookup against the fabric API, plus the SSH execution
// channel used to run commands on controller hosts and pull files back.
//
// The fabric's own scheduling and replica management are remote
// concerns. This package only submits work, asks about it, and speaks
// to the hosts the fabric hands back.
package fabric
