// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/skiff-compute/skiff/cmd/skiff/cli"
	"github.com/skiff-compute/skiff/fabric"
	"github.com/skiff-compute/skiff/lib/config"
	"github.com/skiff-compute/skiff/serve"
)

// clientParams holds flags shared by every serve subcommand.
type clientParams struct {
	configPath string
}

// register adds the shared flags to a flag set.
func (p *clientParams) register(flags *pflag.FlagSet) {
	flags.StringVar(&p.configPath, "config", "", "path to the client config file (default: $SKIFF_CONFIG)")
}

// driver builds the serve driver from the loaded configuration.
func (p *clientParams) driver() (*serve.Driver, *config.Config, error) {
	cfg, err := p.load()
	if err != nil {
		return nil, nil, err
	}
	logger := cli.NewCommandLogger()

	provisioner, err := fabric.NewClient(fabric.ClientConfig{
		Endpoint: cfg.Fabric.Endpoint,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}
	channel, err := fabric.NewSSHChannel(fabric.SSHChannelConfig{
		User:           cfg.SSH.User,
		KeyFile:        cfg.SSH.KeyFile,
		KnownHostsFile: cfg.SSH.KnownHostsFile,
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, err
	}

	driver, err := serve.New(serve.Options{
		Provisioner: provisioner,
		Channel:     channel,
		Config:      cfg,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return driver, cfg, nil
}

func (p *clientParams) load() (*config.Config, error) {
	if p.configPath != "" {
		return config.LoadFile(p.configPath)
	}
	return config.Load()
}

// loadSpecFile reads a service spec from a YAML file.
func loadSpecFile(path string) (*serve.ServiceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service spec: %w", err)
	}
	var spec serve.ServiceSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing service spec %s: %w", path, err)
	}
	return &spec, nil
}
