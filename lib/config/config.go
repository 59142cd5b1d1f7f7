// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Skiff client.
//
// Configuration is loaded from a single YAML file specified by:
//   - SKIFF_CONFIG environment variable, or
//   - --config flag passed to the command
//
// The config file is the single source of truth. Environment variables
// do not override individual values; the only expansion performed is
// ${VAR} path expansion for portability. If no file is given, the
// built-in defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the client configuration.
type Config struct {
	// Paths configures local directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Fabric configures the provisioning fabric API client.
	Fabric FabricConfig `yaml:"fabric"`

	// Controller configures controller bootstrap parameters.
	Controller ControllerConfig `yaml:"controller"`

	// SSH configures the remote execution channel.
	SSH SSHConfig `yaml:"ssh"`
}

// PathsConfig configures local directory locations.
type PathsConfig struct {
	// Root is the base directory for Skiff client data.
	Root string `yaml:"root"`

	// Logs is where synced-down service logs are placed. Each sync
	// creates a run-timestamped subdirectory here.
	Logs string `yaml:"logs"`
}

// FabricConfig configures the provisioning fabric API client.
type FabricConfig struct {
	// Endpoint is the base URL of the provisioning fabric API
	// (e.g., "https://fabric.example.com").
	Endpoint string `yaml:"endpoint"`
}

// ControllerConfig configures controller bootstrap parameters.
type ControllerConfig struct {
	// LoadBalancerPortRange is the reserved port range opened on every
	// controller cluster. One shared range bounds open-port usage, so
	// the controller assigns each service a load-balancer port from it
	// instead of opening per-service ports.
	LoadBalancerPortRange string `yaml:"load_balancer_port_range"`

	// IdleMinutesToAutostop is passed on controller submission; the
	// fabric stops an idle controller cluster after this many minutes.
	// A negative value disables autostop.
	IdleMinutesToAutostop int `yaml:"idle_minutes_to_autostop"`
}

// SSHConfig configures the remote execution channel to controller hosts.
type SSHConfig struct {
	// User is the login user on controller hosts.
	User string `yaml:"user"`

	// KeyFile is the path to the private key used for authentication.
	KeyFile string `yaml:"key_file"`

	// Port is the SSH port on controller hosts.
	Port int `yaml:"port"`

	// KnownHostsFile verifies host keys when set. When empty, host
	// keys are not verified; the fabric hands out short-lived hosts
	// whose keys churn on every reprovision.
	KnownHostsFile string `yaml:"known_hosts_file"`
}

// Default returns the built-in defaults, used as the base before any
// config file is merged in.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".skiff")

	return &Config{
		Paths: PathsConfig{
			Root: defaultRoot,
			Logs: filepath.Join(defaultRoot, "logs"),
		},
		Fabric: FabricConfig{
			Endpoint: "http://localhost:8440",
		},
		Controller: ControllerConfig{
			LoadBalancerPortRange: "30001-30020",
			IdleMinutesToAutostop: 10,
		},
		SSH: SSHConfig{
			User: "skiff",
			Port: 22,
		},
	}
}

// Load loads configuration from the SKIFF_CONFIG environment variable,
// falling back to defaults when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("SKIFF_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"SKIFF_ROOT": c.Paths.Root,
		"HOME":       os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["SKIFF_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Logs = expandVars(c.Paths.Logs, vars)
	c.SSH.KeyFile = expandVars(c.SSH.KeyFile, vars)
	c.SSH.KnownHostsFile = expandVars(c.SSH.KnownHostsFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// portRangePattern matches "low-high" numeric port ranges.
var portRangePattern = regexp.MustCompile(`^\d+-\d+$`)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Paths.Root == "" {
		return fmt.Errorf("paths.root is required")
	}
	if c.Paths.Logs == "" {
		return fmt.Errorf("paths.logs is required")
	}
	if c.Fabric.Endpoint == "" {
		return fmt.Errorf("fabric.endpoint is required")
	}
	if !portRangePattern.MatchString(c.Controller.LoadBalancerPortRange) {
		return fmt.Errorf("controller.load_balancer_port_range %q must be of the form low-high",
			c.Controller.LoadBalancerPortRange)
	}
	if c.SSH.User == "" {
		return fmt.Errorf("ssh.user is required")
	}
	if c.SSH.Port <= 0 || c.SSH.Port > 65535 {
		return fmt.Errorf("ssh.port %d out of range", c.SSH.Port)
	}
	return nil
}
