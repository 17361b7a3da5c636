// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package collapse

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds the options that shape the folded output.
// It controls how process names are labeled, whether raw addresses are kept for
// unknown symbols, and which frames get kernel or JIT annotations.
type Config struct {
	IncludePid     bool `yaml:"pid"`    // include PID with process names
	IncludeTid     bool `yaml:"tid"`    // include TID and PID with process names
	IncludeAddrs   bool `yaml:"addrs"`  // include raw addresses where symbols can't be found
	AnnotateJit    bool `yaml:"jit"`    // annotate jit functions with a _[j]
	AnnotateKernel bool `yaml:"kernel"` // annotate kernel functions with a _[k]
	AnnotateAll    bool `yaml:"all"`    // all annotations (kernel and jit)
}

// Normalize returns a copy of the config with AnnotateAll expanded into the
// individual annotation options.
func (c Config) Normalize() Config {
	if c.AnnotateAll {
		c.AnnotateKernel = true
		c.AnnotateJit = true
	}
	return c
}

// LoadConfig reads collapse options from a YAML file, e.g.:
//
//	tid: true
//	kernel: true
func LoadConfig(path string) (config Config, err error) {
	yamlFile, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		err = errors.Wrapf(err, "failed to read config file %s", path)
		return
	}
	err = yaml.UnmarshalStrict(yamlFile, &config)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse config file %s", path)
		return
	}
	return
}
