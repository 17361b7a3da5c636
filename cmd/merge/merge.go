// Package merge is a subcommand of the root command. It combines folded stack files.
package merge

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"stackcollapse/internal/app"
	"stackcollapse/internal/folded"
	"stackcollapse/internal/progress"
	"stackcollapse/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const cmdName = "merge"

var examples = []string{
	fmt.Sprintf("  Sum the counts of folded files:            $ %s %s a.folded b.folded > all.folded", app.Name, cmdName),
	fmt.Sprintf("  Keep the deeper of fp and dwarf stacks:    $ %s %s --deepest fp.folded dwarf.folded > merged.folded", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName + " file...",
	Short:         "Combine folded stack files",
	Long:          "",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
}

var (
	flagDeepest bool
)

const (
	flagDeepestName = "deepest"
)

func init() {
	Cmd.Flags().BoolVar(&flagDeepest, flagDeepestName, false, "")

	Cmd.SetUsageFunc(usageFunc)
}

func usageFunc(cmd *cobra.Command) error {
	return app.Usage(cmd, getFlagGroups())
}

func getFlagGroups() []app.FlagGroup {
	flags := []app.Flag{
		{
			Name: flagDeepestName,
			Help: "merge exactly two profiles of the same run (e.g., frame pointer and dwarf) keeping, per process, the stacks with the deeper average depth. Counts of the second file are scaled to the first.",
		},
	}
	return []app.FlagGroup{{GroupName: "Options", Flags: flags}}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagDeepest && len(args) != 2 {
		return app.FlagValidationError(cmd, fmt.Sprintf("--%s requires exactly two files", flagDeepestName))
	}
	for _, arg := range args {
		exists, err := util.FileExists(arg)
		if err != nil {
			return app.FlagValidationError(cmd, err.Error())
		}
		if !exists {
			return app.FlagValidationError(cmd, fmt.Sprintf("input file %s does not exist", arg))
		}
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	multiSpinner := progress.NewMultiSpinner(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
	merged, err := mergeFiles(args, flagDeepest, multiSpinner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return merged.WriteFolded(os.Stdout)
}

func mergeFiles(paths []string, deepest bool, multiSpinner *progress.MultiSpinner) (folded.ProcessStacks, error) {
	for _, path := range paths {
		if err := multiSpinner.AddSpinner(path); err != nil {
			slog.Debug("no progress for input", slog.String("file", path), slog.String("error", err.Error()))
		}
	}
	multiSpinner.Start()
	defer multiSpinner.Finish()
	var profiles []folded.ProcessStacks
	for _, path := range paths {
		_ = multiSpinner.Status(path, "reading")
		stacks, err := readFolded(path)
		if err != nil {
			_ = multiSpinner.Status(path, "failed")
			return nil, err
		}
		_ = multiSpinner.Status(path, fmt.Sprintf("%d samples", stacks.TotalSamples()))
		slog.Debug("read folded stacks", slog.String("file", path), slog.Int("samples", stacks.TotalSamples()))
		profiles = append(profiles, stacks)
	}
	if deepest {
		return folded.MergeDeepest(profiles[0], profiles[1])
	}
	merged := make(folded.ProcessStacks)
	for _, stacks := range profiles {
		merged.Add(stacks)
	}
	return merged, nil
}

func readFolded(path string) (folded.ProcessStacks, error) {
	input, err := util.OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer input.Close()
	return folded.Parse(input)
}
