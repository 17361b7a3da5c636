// Package collapse is a subcommand of the root command. It folds "perf script" output into stacks.
package collapse

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"stackcollapse/internal/app"
	"stackcollapse/internal/collapse"
	"stackcollapse/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const cmdName = "collapse"

var examples = []string{
	fmt.Sprintf("  Fold perf samples from stdin:         $ perf script | %s %s > out.folded", app.Name, cmdName),
	fmt.Sprintf("  Fold a file, with PIDs and TIDs:      $ %s %s --tid perf.txt > out.folded", app.Name, cmdName),
	fmt.Sprintf("  Annotate kernel and JIT frames:       $ %s %s --all perf.txt > out.folded", app.Name, cmdName),
	fmt.Sprintf("  Options from a file, write metrics:   $ %s %s --config collapse.yaml --metrics-file collapse.prom perf.txt", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName + " [infile]",
	Short:         "Fold perf script output into stacks",
	Long:          "Reads perf script output from infile, or stdin if not specified, and writes folded stacks to stdout.",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
}

// runConfig is built from the options file and flags before the command runs
var runConfig collapse.Config

var (
	// collapse options
	flagPid    bool
	flagTid    bool
	flagAddrs  bool
	flagJit    bool
	flagKernel bool
	flagAll    bool
	// advanced
	flagConfigFile  string
	flagMetricsFile string
)

const (
	flagPidName         = "pid"
	flagTidName         = "tid"
	flagAddrsName       = "addrs"
	flagJitName         = "jit"
	flagKernelName      = "kernel"
	flagAllName         = "all"
	flagConfigFileName  = "config"
	flagMetricsFileName = "metrics-file"
)

func init() {
	Cmd.Flags().BoolVar(&flagPid, flagPidName, false, "")
	Cmd.Flags().BoolVar(&flagTid, flagTidName, false, "")
	Cmd.Flags().BoolVar(&flagAddrs, flagAddrsName, false, "")
	Cmd.Flags().BoolVar(&flagJit, flagJitName, false, "")
	Cmd.Flags().BoolVar(&flagKernel, flagKernelName, false, "")
	Cmd.Flags().BoolVar(&flagAll, flagAllName, false, "")
	Cmd.Flags().StringVar(&flagConfigFile, flagConfigFileName, "", "")
	Cmd.Flags().StringVar(&flagMetricsFile, flagMetricsFileName, "", "")

	Cmd.SetUsageFunc(usageFunc)
}

func usageFunc(cmd *cobra.Command) error {
	err := app.Usage(cmd, getFlagGroups())
	cmd.Println()
	cmd.Println("[1] perf script must emit both PID and TIDs for these to work; eg, Linux < 4.1:")
	cmd.Println("        perf script -f comm,pid,tid,cpu,time,event,ip,sym,dso,trace")
	cmd.Println("    for Linux >= 4.1:")
	cmd.Println("        perf script -F comm,pid,tid,cpu,time,event,ip,sym,dso,trace")
	cmd.Println("    If you save this output add --header on Linux >= 3.14 to include perf info.")
	return err
}

func getFlagGroups() []app.FlagGroup {
	var groups []app.FlagGroup
	flags := []app.Flag{
		{Name: flagPidName, Help: "include PID with process names [1]"},
		{Name: flagTidName, Help: "include TID and PID with process names [1]"},
		{Name: flagAddrsName, Help: "include raw addresses where symbols can't be found"},
		{Name: flagJitName, Help: "annotate jit functions with a _[j]"},
		{Name: flagKernelName, Help: "annotate kernel functions with a _[k]"},
		{Name: flagAllName, Help: fmt.Sprintf("all annotations (--%s --%s)", flagKernelName, flagJitName)},
	}
	groups = append(groups, app.FlagGroup{
		GroupName: "Options",
		Flags:     flags,
	})
	flags = []app.Flag{
		{Name: flagConfigFileName, Help: "YAML file with the options above, e.g. \"tid: true\". Flags given on the command line take precedence."},
		{Name: flagMetricsFileName, Help: "write parse statistics to this file in Prometheus text format"},
	}
	groups = append(groups, app.FlagGroup{
		GroupName: "Advanced Options",
		Flags:     flags,
	})
	return groups
}

func validateFlags(cmd *cobra.Command, args []string) error {
	// validate input file
	if len(args) > 0 {
		exists, err := util.FileExists(args[0])
		if err != nil {
			return app.FlagValidationError(cmd, err.Error())
		}
		if !exists {
			return app.FlagValidationError(cmd, fmt.Sprintf("input file %s does not exist", args[0]))
		}
	}
	// build the run configuration: options file first, then explicit flags
	runConfig = collapse.Config{}
	if flagConfigFile != "" {
		var err error
		runConfig, err = collapse.LoadConfig(flagConfigFile)
		if err != nil {
			return app.FlagValidationError(cmd, err.Error())
		}
	}
	overrides := []struct {
		name   string
		value  bool
		target *bool
	}{
		{flagPidName, flagPid, &runConfig.IncludePid},
		{flagTidName, flagTid, &runConfig.IncludeTid},
		{flagAddrsName, flagAddrs, &runConfig.IncludeAddrs},
		{flagJitName, flagJit, &runConfig.AnnotateJit},
		{flagKernelName, flagKernel, &runConfig.AnnotateKernel},
		{flagAllName, flagAll, &runConfig.AnnotateAll},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.name) {
			*o.target = o.value
		}
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	var inputPath string
	if len(args) > 0 {
		inputPath = args[0]
	} else if term.IsTerminal(int(os.Stdin.Fd())) {
		slog.Warn("reading perf script output from a terminal, pipe it in or pass a file name")
	}
	err := collapseStacks(inputPath, os.Stdout, os.Stderr, runConfig, flagMetricsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// collapseStacks folds the perf script output read from inputPath, or stdin
// when empty, into output. Parse statistics are written to metricsFile when
// it is set.
func collapseStacks(inputPath string, output, errorOutput io.Writer, config collapse.Config, metricsFile string) error {
	input, err := util.OpenInput(inputPath)
	if err != nil {
		return err
	}
	defer input.Close()

	slog.Debug("collapsing stacks", slog.String("input", inputPath), slog.Any("config", config))
	parser := collapse.NewParser(config, errorOutput)
	err = parser.Consume(input)
	if err != nil {
		return err
	}
	err = parser.Finish(output)
	if err != nil {
		return err
	}
	stats := parser.Stats()
	slog.Info("collapsed stacks",
		slog.Uint64("events", stats.Events),
		slog.Int("unique stacks", stats.UniqueStacks),
		slog.Uint64("malformed event lines", stats.MalformedEvents),
		slog.Uint64("malformed stack lines", stats.MalformedStacks))
	if metricsFile != "" {
		return parser.WriteMetrics(metricsFile)
	}
	return nil
}
