// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package collapse

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"stackcollapse/internal/collapse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFlagsConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "collapse.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("tid: true\nkernel: true\n"), 0600))
	inputPath := filepath.Join(dir, "perf.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte(""), 0600))

	require.NoError(t, Cmd.Flags().Set(flagConfigFileName, configPath))
	require.NoError(t, Cmd.Flags().Set(flagKernelName, "false"))
	require.NoError(t, Cmd.Flags().Set(flagAddrsName, "true"))

	require.NoError(t, validateFlags(Cmd, []string{inputPath}))
	assert.Equal(t, collapse.Config{IncludeTid: true, IncludeAddrs: true}, runConfig)

	assert.Error(t, validateFlags(Cmd, []string{filepath.Join(dir, "missing.txt")}))
}

func TestCollapseStacks(t *testing.T) {
	const event = "java 100/200 1.0: cycles:\n" +
		"\tffffffff81000000 do_syscall_64+0x10 ([kernel.kallsyms])\n" +
		"\t4005d0 main (/usr/bin/java)\n" +
		"\n"
	tests := []struct {
		name        string
		input       string
		config      collapse.Config
		expected    string
		diagnostics string
		metrics     []string
	}{
		{
			name:     "identical events",
			input:    event + event,
			expected: "java;main;do_syscall_64 2\n",
			metrics: []string{
				"stackcollapse_events_total 2",
				"stackcollapse_frames_total 4",
				"stackcollapse_unique_stacks 1",
			},
		},
		{
			name:        "annotated with malformed line",
			input:       "java 100/200 1.0: cycles:\n\tbroken\n\t4005d0 main (/usr/bin/java)\n\n" + event,
			config:      collapse.Config{IncludeTid: true, AnnotateKernel: true},
			expected:    "java-100/200;main 1\njava-100/200;main;do_syscall_64_[k] 1\n",
			diagnostics: "weird stack line:",
			metrics: []string{
				"stackcollapse_events_total 2",
				`stackcollapse_malformed_lines_total{kind="stack"} 1`,
				"stackcollapse_unique_stacks 2",
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			inputPath := filepath.Join(dir, "perf.txt")
			require.NoError(t, os.WriteFile(inputPath, []byte(test.input), 0600))
			metricsPath := filepath.Join(dir, "collapse.prom")

			output := &bytes.Buffer{}
			errorOutput := &bytes.Buffer{}
			err := collapseStacks(inputPath, output, errorOutput, test.config, metricsPath)
			require.NoError(t, err)
			assert.Equal(t, test.expected, output.String())
			if test.diagnostics == "" {
				assert.Empty(t, errorOutput.String())
			} else {
				assert.Contains(t, errorOutput.String(), test.diagnostics)
			}
			content, err := os.ReadFile(metricsPath)
			require.NoError(t, err)
			for _, metric := range test.metrics {
				assert.Contains(t, string(content), metric)
			}
		})
	}
}

func TestCollapseStacksMissingInput(t *testing.T) {
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "collapse.prom")
	err := collapseStacks(filepath.Join(dir, "missing.txt"), &bytes.Buffer{}, &bytes.Buffer{}, collapse.Config{}, metricsPath)
	assert.Error(t, err)
	assert.NoFileExists(t, metricsPath)
}
