// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package summary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stackcollapse/internal/folded"
	"stackcollapse/internal/report"
	"stackcollapse/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foldedInput = "java;a;b 1500\njava;a 500\nperl 1000\n"

func parseInput(t *testing.T) folded.ProcessStacks {
	t.Helper()
	stacks, err := folded.Parse(strings.NewReader(foldedInput))
	require.NoError(t, err)
	return stacks
}

func fieldValues(t *testing.T, tableValues table.TableValues, name string) []string {
	t.Helper()
	idx, err := table.GetFieldIndex(name, tableValues)
	require.NoError(t, err)
	return tableValues.Fields[idx].Values
}

func TestCountFormatter(t *testing.T) {
	assert.Equal(t, "1,234,567", countFormatter(report.FormatTxt)(1234567))
	assert.Equal(t, "1234567", countFormatter(report.FormatJson)(1234567))
	assert.Equal(t, "1234567", countFormatter(report.FormatXlsx)(1234567))
}

func TestSummaryTables(t *testing.T) {
	allTableValues := table.ProcessTables(summaryTables(report.FormatTxt, 2), parseInput(t))
	require.Len(t, allTableValues, 3)

	summary := allTableValues[0]
	assert.Equal(t, SummaryTableName, summary.Name)
	assert.Equal(t, []string{"3,000"}, fieldValues(t, summary, "Samples"))
	assert.Equal(t, []string{"2"}, fieldValues(t, summary, "Processes"))
	assert.Equal(t, []string{"3"}, fieldValues(t, summary, "Stacks"))

	processes := allTableValues[1]
	assert.Equal(t, []string{"java", "perl"}, fieldValues(t, processes, "Process"))
	assert.Equal(t, []string{"2,000", "1,000"}, fieldValues(t, processes, "Samples"))
	assert.Equal(t, []string{"66.67", "33.33"}, fieldValues(t, processes, "Percent"))
	assert.Equal(t, []string{"1.5", "0.0"}, fieldValues(t, processes, "Avg Depth"))

	topStacks := allTableValues[2]
	assert.Equal(t, []string{"java;a;b", "perl"}, fieldValues(t, topStacks, "Stack"))
	assert.Equal(t, []string{"1,500", "1,000"}, fieldValues(t, topStacks, "Samples"))
	assert.Equal(t, []string{"50.00", "33.33"}, fieldValues(t, topStacks, "Percent"))
}

func TestCreateSummaryJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.folded")
	require.NoError(t, os.WriteFile(path, []byte(foldedInput), 0600))

	out, err := createSummary(path, report.FormatJson, 0)
	require.NoError(t, err)

	var parsed map[string][]map[string]string
	require.NoError(t, json.Unmarshal(out, &parsed))
	require.Len(t, parsed[TopStacksTableName], 3)
	assert.Equal(t, "java;a", parsed[TopStacksTableName][2]["Stack"])
	assert.Equal(t, "500", parsed[TopStacksTableName][2]["Samples"])
	assert.Equal(t, "3000", parsed[SummaryTableName][0]["Samples"])
}

func TestCreateSummaryEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.folded")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	out, err := createSummary(path, report.FormatTxt, 10)
	require.NoError(t, err)
	assert.Contains(t, string(out), "No samples found.")
	assert.Contains(t, string(out), "No stacks found.")
}

func TestValidateFlags(t *testing.T) {
	defer func() {
		flagFormat = report.FormatTxt
		flagOutput = ""
		flagTop = 10
	}()
	flagFormat = "html"
	assert.Error(t, validateFlags(Cmd, nil))

	flagFormat = report.FormatXlsx
	assert.Error(t, validateFlags(Cmd, nil))
	flagOutput = filepath.Join(t.TempDir(), "summary.xlsx")
	assert.NoError(t, validateFlags(Cmd, nil))

	flagFormat = report.FormatTxt
	flagTop = -1
	assert.Error(t, validateFlags(Cmd, nil))
}

func TestTopStacksTextRenderer(t *testing.T) {
	allTableValues := table.ProcessTables(summaryTables(report.FormatTxt, 1), parseInput(t))
	out := topStacksTextRenderer(allTableValues[2])
	assert.Equal(t, "1,500 samples (50.00%)\n  java\n  a\n  b\n", out)

	text, err := report.Create(report.FormatTxt, allTableValues)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Top Stacks\n==========\n1,500 samples (50.00%)\n  java\n")
}
