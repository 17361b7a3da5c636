// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package collapse

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessStacks(t *testing.T) {
	input := strings.NewReader(`
stress-ng-cpu 1230556 [121] 6223127.073349:  293637623 cycles:P: 
	    61e248df6091 [unknown] (/usr/bin/stress-ng)

stress-ng-cpu 1230793 [098] 6223127.074783:  307465331 cycles:P: 
	ffffffffa7c00f0b asm_sysvec_apic_timer_interrupt+0x1b ([kernel.kallsyms])
	    760c9702dc5d [unknown] (/usr/lib/x86_64-linux-gnu/libm.so.6)
	    760c96fda3a2 sincosf64x+0x122 (/usr/lib/x86_64-linux-gnu/libm.so.6)

	`)
	output := &bytes.Buffer{}
	errorOutput := &bytes.Buffer{}

	err := ProcessStacks(input, output, errorOutput, Config{})
	require.NoError(t, err)

	expected := "stress-ng-cpu;[stress-ng] 1\nstress-ng-cpu;sincosf64x;[libm.so.6];asm_sysvec_apic_timer_interrupt 1\n"
	assert.Equal(t, expected, output.String())
	assert.Empty(t, errorOutput.String())
}

func TestProcessStacksCountsIdenticalEvents(t *testing.T) {
	event := "java 100 1.0: cycles:\n  ffff foo (/lib/a.so)\n  ffff bar (/lib/a.so)\n\n"
	output := &bytes.Buffer{}

	err := ProcessStacks(strings.NewReader(event+event), output, nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, "java;bar;foo 2\n", output.String())
}

func TestProcessStacksSortedOutput(t *testing.T) {
	input := "b 1 1.0: cycles:\n  ffff x (/a)\n\n" +
		"a 2 1.0: cycles:\n  ffff z (/a)\n\n" +
		"a 3 1.0: cycles:\n  ffff y (/a)\n\n" +
		"b 4 1.0: cycles:\n  ffff x (/a)\n\n"
	output := &bytes.Buffer{}

	err := ProcessStacks(strings.NewReader(input), output, nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, "a;y 1\na;z 1\nb;x 2\n", output.String())
}

func TestProcessStacksProcessLabels(t *testing.T) {
	input := "java 100/200 1.0: cycles:\n  ffff foo (/lib/a.so)\n\n"
	tests := []struct {
		config   Config
		expected string
	}{
		{Config{IncludeTid: true}, "java-100/200;foo 1\n"},
		{Config{IncludePid: true}, "java-100;foo 1\n"},
		{Config{}, "java;foo 1\n"},
	}
	for _, test := range tests {
		output := &bytes.Buffer{}
		err := ProcessStacks(strings.NewReader(input), output, nil, test.config)
		require.NoError(t, err)
		assert.Equal(t, test.expected, output.String())
	}
}

func TestPaddedCommLabel(t *testing.T) {
	input := "    java 100 1.0: cycles:\n  ffff foo (/lib/a.so)\n\n"
	output := &bytes.Buffer{}
	err := ProcessStacks(strings.NewReader(input), output, nil, Config{IncludeTid: true})
	require.NoError(t, err)
	assert.Equal(t, "java-?/100;foo 1\n", output.String())
}

func TestEventWithoutFrames(t *testing.T) {
	output := &bytes.Buffer{}
	err := ProcessStacks(strings.NewReader("java 100 1.0: cycles:\n\n"), output, nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, "java 1\n", output.String())
}

func TestUnterminatedEventIsDropped(t *testing.T) {
	input := "java 100 1.0: cycles:\n  ffff foo (/lib/a.so)\n\njava 100 1.0: cycles:\n  ffff bar (/lib/a.so)\n"
	output := &bytes.Buffer{}
	err := ProcessStacks(strings.NewReader(input), output, nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, "java;foo 1\n", output.String())
}

func TestCommentsAndExtraBlankLines(t *testing.T) {
	input := "# ========\n# captured on: Thu Jan  1\n\n\njava 100 1.0: cycles:\n# comment inside event\n  ffff foo (/lib/a.so)\n\n\n\n"
	output := &bytes.Buffer{}
	err := ProcessStacks(strings.NewReader(input), output, nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, "java;foo 1\n", output.String())
}

func TestMalformedEventLine(t *testing.T) {
	input := "garbage header line\njava 100 1.0: cycles:\n  ffff foo (/lib/a.so)\n\n"
	output := &bytes.Buffer{}
	errorOutput := &bytes.Buffer{}

	parser := NewParser(Config{}, errorOutput)
	require.NoError(t, parser.Consume(strings.NewReader(input)))
	require.NoError(t, parser.Finish(output))

	assert.Equal(t, "java;foo 1\n", output.String())
	assert.Equal(t, "weird event line: garbage header line\n", errorOutput.String())
	stats := parser.Stats()
	assert.Equal(t, uint64(1), stats.MalformedEvents)
	assert.Equal(t, uint64(1), stats.Events)
}

func TestMalformedStackLine(t *testing.T) {
	input := "java 100 1.0: cycles:\n  ffff foo (/lib/a.so)\n  broken\n  ffff bar (/lib/a.so)\n\n"
	output := &bytes.Buffer{}
	errorOutput := &bytes.Buffer{}

	parser := NewParser(Config{}, errorOutput)
	require.NoError(t, parser.Consume(strings.NewReader(input)))
	require.NoError(t, parser.Finish(output))

	assert.Equal(t, "java;bar;foo 1\n", output.String())
	assert.Equal(t, "weird stack line:   broken\n", errorOutput.String())
	assert.Equal(t, uint64(1), parser.Stats().MalformedStacks)
}

func TestSkippedStack(t *testing.T) {
	parser := NewParser(Config{}, nil)
	parser.filter = func(event string) StackDecision {
		if event == "cycles" {
			return StackSkip
		}
		return StackKeep
	}
	input := "java 100 1.0: cycles:\n  ffff foo (/lib/a.so)\n\njava 100 1.0: instructions:\n  ffff foo (/lib/a.so)\n\n"
	require.NoError(t, parser.Consume(strings.NewReader(input)))

	assert.Equal(t, uint64(1), parser.Occurrences().Count("java"))
	assert.Equal(t, uint64(1), parser.Occurrences().Count("java;foo"))
}

func TestAnnotations(t *testing.T) {
	input := "java 100 1.0: cycles:\n" +
		"  7f722d142778 Ljava/io/PrintStream;::print (/tmp/perf-19982.map)\n" +
		"  ffffffff8103ce3b native_safe_halt ([kernel.kallsyms])\n\n"
	output := &bytes.Buffer{}
	err := ProcessStacks(strings.NewReader(input), output, nil, Config{AnnotateAll: true})
	require.NoError(t, err)
	assert.Equal(t, "java;native_safe_halt_[k];Ljava/io/PrintStream:::print_[j] 1\n", output.String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestReadErrorIsReturned(t *testing.T) {
	err := ProcessStacks(failingReader{}, &bytes.Buffer{}, nil, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
