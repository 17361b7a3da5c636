// Package app defines application-wide types, constants, and helpers
// that are shared across multiple commands.
package app

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Name is the name of the application executable.
var Name = filepath.Base(os.Args[0])

// Flag names for flags defined in the root command, but sometimes used in other commands.
const (
	FlagDebugName   = "debug"
	FlagSyslogName  = "syslog"
	FlagLogFileName = "log-file"
)

// Flag names shared by commands that write reports.
const (
	FlagFormatName = "format"
	FlagOutputName = "output"
)

// Flag represents a command-line flag with its name and help text.
type Flag struct {
	Name string
	Help string
}

// FlagGroup represents a group of related flags with a group name.
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}

// FlagValidationError prints the validation message and a usage hint to stderr
// and returns it as an error.
func FlagValidationError(cmd *cobra.Command, msg string) error {
	err := fmt.Errorf("%s", msg)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprintf(os.Stderr, "See '%s --help' for usage details.\n", cmd.CommandPath())
	cmd.SilenceUsage = true
	return err
}

// Usage prints the command's usage with its flags organized in groups,
// followed by the global flags.
func Usage(cmd *cobra.Command, groups []FlagGroup) error {
	cmd.Printf("Usage: %s\n\n", cmd.UseLine())
	if cmd.Example != "" {
		cmd.Printf("Examples:\n%s\n\n", cmd.Example)
	}
	cmd.Println("Flags:")
	for _, group := range groups {
		cmd.Printf("  %s:\n", group.GroupName)
		for _, flag := range group.Flags {
			flagDefault := ""
			if f := cmd.Flags().Lookup(flag.Name); f != nil && f.DefValue != "" && f.DefValue != "false" {
				flagDefault = fmt.Sprintf(" (default: %s)", f.DefValue)
			}
			cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
		}
	}
	cmd.Println("\nGlobal Flags:")
	cmd.Root().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
		flagDefault := ""
		if pf.DefValue != "" && pf.DefValue != "false" {
			flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
		}
		cmd.Printf("  --%-20s %s%s\n", pf.Name, pf.Usage, flagDefault)
	})
	return nil
}
