// Package summary is a subcommand of the root command. It reports on folded stacks.
package summary

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"stackcollapse/internal/app"
	"stackcollapse/internal/folded"
	"stackcollapse/internal/report"
	"stackcollapse/internal/table"
	"stackcollapse/internal/util"

	"github.com/spf13/cobra"
)

const cmdName = "summary"

var examples = []string{
	fmt.Sprintf("  Summarize folded stacks:              $ %s %s out.folded", app.Name, cmdName),
	fmt.Sprintf("  Top 20 stacks as JSON from stdin:     $ %s collapse perf.txt | %s %s --top 20 --format json", app.Name, app.Name, cmdName),
	fmt.Sprintf("  Write a spreadsheet:                  $ %s %s --format xlsx --output summary.xlsx out.folded", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName + " [infile]",
	Short:         "Report samples per process and the heaviest stacks",
	Long:          "Reads folded stacks from infile, or stdin if not specified, and writes a summary report.",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
}

var (
	flagFormat string
	flagTop    int
	flagOutput string
)

const (
	flagTopName = "top"
)

func init() {
	Cmd.Flags().StringVar(&flagFormat, app.FlagFormatName, report.FormatTxt, "")
	Cmd.Flags().IntVar(&flagTop, flagTopName, 10, "")
	Cmd.Flags().StringVar(&flagOutput, app.FlagOutputName, "", "")

	Cmd.SetUsageFunc(usageFunc)

	report.RegisterTextRenderer(TopStacksTableName, topStacksTextRenderer)
}

func usageFunc(cmd *cobra.Command) error {
	return app.Usage(cmd, getFlagGroups())
}

func getFlagGroups() []app.FlagGroup {
	flags := []app.Flag{
		{
			Name: app.FlagFormatName,
			Help: fmt.Sprintf("choose output format from: %s", strings.Join(report.FormatOptions, ", ")),
		},
		{
			Name: flagTopName,
			Help: "number of stacks in the top stacks table, 0 for all",
		},
		{
			Name: app.FlagOutputName,
			Help: fmt.Sprintf("write the report to this file instead of stdout, required for %s", report.FormatXlsx),
		},
	}
	return []app.FlagGroup{{GroupName: "Options", Flags: flags}}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if !slices.Contains(report.FormatOptions, flagFormat) {
		return app.FlagValidationError(cmd, fmt.Sprintf("format options are: %s", strings.Join(report.FormatOptions, ", ")))
	}
	if flagTop < 0 {
		return app.FlagValidationError(cmd, fmt.Sprintf("--%s must be 0 or greater", flagTopName))
	}
	if flagFormat == report.FormatXlsx && flagOutput == "" {
		return app.FlagValidationError(cmd, fmt.Sprintf("--%s is required for %s output", app.FlagOutputName, report.FormatXlsx))
	}
	if len(args) > 0 {
		exists, err := util.FileExists(args[0])
		if err != nil {
			return app.FlagValidationError(cmd, err.Error())
		}
		if !exists {
			return app.FlagValidationError(cmd, fmt.Sprintf("input file %s does not exist", args[0]))
		}
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	var inputPath string
	if len(args) > 0 {
		inputPath = args[0]
	}
	out, err := createSummary(inputPath, flagFormat, flagTop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	err = util.WriteOutput(flagOutput, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if flagOutput != "" {
		slog.Info("report written", slog.String("file", flagOutput))
	}
	return nil
}

func createSummary(inputPath, format string, top int) ([]byte, error) {
	input, err := util.OpenInput(inputPath)
	if err != nil {
		return nil, err
	}
	defer input.Close()
	stacks, err := folded.Parse(input)
	if err != nil {
		return nil, err
	}
	slog.Debug("read folded stacks", slog.String("input", inputPath), slog.Int("samples", stacks.TotalSamples()))
	allTableValues := table.ProcessTables(summaryTables(format, top), stacks)
	return report.Create(format, allTableValues)
}
