// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

// Policy lets a deployment mutate a service spec before launch or
// update: an operator hook for injecting mandatory labels, clamping
// replica counts, or rewriting resource requests. Apply runs after
// validation; a policy that returns an error aborts the operation
// before anything is provisioned.
type Policy interface {
	Apply(serviceName string, spec *ServiceSpec) error
}

// NopPolicy applies no changes. It is the default when Options.Policy
// is nil.
type NopPolicy struct{}

func (NopPolicy) Apply(string, *ServiceSpec) error { return nil }
