// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// controllerTask is the task definition submitted to the fabric to
// bootstrap the shared controller cluster. It carries the user's
// service spec inline; the controller persists it as version 1 on
// successful registration.
type controllerTask struct {
	Name string            `yaml:"name"`
	Envs map[string]string `yaml:"envs"`
	Run  string            `yaml:"run"`
	// Service is the user's full service spec, embedded so the
	// controller never needs a second upload during launch.
	Service *ServiceSpec `yaml:"service_spec"`
}

// renderControllerTask builds the bootstrap task for launching
// serviceName. The run command starts the controller daemon, which is
// idempotent on an already-running controller cluster: a second launch
// job finds the daemon alive and proceeds straight to registration.
func (d *Driver) renderControllerTask(serviceName string, spec *ServiceSpec) ([]byte, error) {
	task := controllerTask{
		Name: "skiff-serve-up-" + serviceName,
		Envs: map[string]string{
			"SKIFF_SERVICE_NAME":  serviceName,
			"SKIFF_LB_PORT_RANGE": d.config.Controller.LoadBalancerPortRange,
		},
		Run:     controllerBinary + " daemon --ensure-started",
		Service: spec,
	}
	data, err := yaml.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("rendering controller task: %w", err)
	}
	return data, nil
}

// stageSpec writes a service spec to a local temp file for upload.
// The caller removes the file when the upload finishes.
func stageSpec(spec *ServiceSpec) (string, error) {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("encoding service spec: %w", err)
	}
	file, err := os.CreateTemp("", "skiff-task-*.yaml")
	if err != nil {
		return "", fmt.Errorf("staging service spec: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("staging service spec: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("staging service spec: %w", err)
	}
	return file.Name(), nil
}
