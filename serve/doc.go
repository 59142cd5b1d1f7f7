// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package serve is the client-side driver for the Skiff serving
// platform. It launches a dedicated remote controller per service,
// drives it through lifecycle operations (up, update, down, status,
// log retrieval), and turns the controller's terse exit-code signals
// into typed outcomes.
//
// Every operation is synchronous: one remote command is issued and
// awaited before the next. The driver holds no locks; concurrent
// launches racing on a service name are resolved by the controller's
// first-writer-wins registration, observed here through the
// registration handshake.
//
// The remote controller's scheduling and replica management, the
// provisioning fabric, and the SSH transport are collaborators behind
// the fabric package's interfaces, not implemented here.
package serve
