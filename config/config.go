// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the server's optional YAML configuration file.
// Every value has a sensible default; command-line flags override
// whatever the file says.
package config

import (
	"io/ioutil"
	"os"
	"runtime"

	yaml "gopkg.in/yaml.v2"

	"kvs.io/errors"
	"kvs.io/kvs"
)

// Config carries the server's tunables.
type Config struct {
	// Addr is the address to listen on.
	Addr string `yaml:"addr"`

	// Engine selects the storage engine: "kvs" or "tree".
	Engine string `yaml:"engine"`

	// Dir is the directory holding the store's data.
	Dir string `yaml:"dir"`

	// Log is the logging level.
	Log string `yaml:"log"`

	// Workers is the size of the worker pool.
	Workers int `yaml:"workers"`

	// CompactAfter is the stale-record count that triggers
	// compaction in the log engine.
	CompactAfter int `yaml:"compactafter"`

	// MaxConns bounds simultaneously open client connections.
	MaxConns int `yaml:"maxconns"`
}

// Default returns the configuration used when no file and no flags
// say otherwise.
func Default() Config {
	return Config{
		Addr:         kvs.DefaultAddr,
		Engine:       "kvs",
		Dir:          ".",
		Log:          "info",
		Workers:      runtime.NumCPU(),
		CompactAfter: 50,
		MaxConns:     256,
	}
}

// Load reads the YAML file at path over the defaults. A missing path
// ("") just returns the defaults.
func Load(path string) (Config, error) {
	const op = "config.Load"
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.E(op, errors.Invalid, err)
		}
		return cfg, errors.E(op, errors.IO, err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.E(op, errors.Invalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.E(op, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	const op = "config.Validate"
	switch c.Engine {
	case "kvs", "tree":
	default:
		return errors.E(op, errors.Invalid,
			errors.Errorf("unknown engine %q", c.Engine))
	}
	if c.Workers < 1 {
		return errors.E(op, errors.Invalid,
			errors.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.CompactAfter < 1 {
		return errors.E(op, errors.Invalid,
			errors.Errorf("compactafter must be positive, got %d", c.CompactAfter))
	}
	if c.MaxConns < 1 {
		return errors.E(op, errors.Invalid,
			errors.Errorf("maxconns must be positive, got %d", c.MaxConns))
	}
	return nil
}
