package summary

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"stackcollapse/internal/folded"
	"stackcollapse/internal/report"
	"stackcollapse/internal/table"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	SummaryTableName   = "Summary"
	ProcessesTableName = "Processes"
	TopStacksTableName = "Top Stacks"
)

// countFormatter renders sample counts. Text reports get thousands separators,
// the other formats keep plain integers so that spreadsheets see numbers.
func countFormatter(format string) func(int) string {
	if format != report.FormatTxt {
		return strconv.Itoa
	}
	printer := message.NewPrinter(language.English)
	return func(count int) string {
		return printer.Sprintf("%d", count)
	}
}

func percent(count, total int) string {
	if total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(count)*100/float64(total))
}

func summaryTables(format string, top int) []table.TableDefinition {
	formatCount := countFormatter(format)
	return []table.TableDefinition{
		{
			Name: SummaryTableName,
			FieldsFunc: func(stacks folded.ProcessStacks) []table.Field {
				return summaryTableValues(stacks, formatCount)
			},
		},
		{
			Name:    ProcessesTableName,
			HasRows: true,
			FieldsFunc: func(stacks folded.ProcessStacks) []table.Field {
				return processesTableValues(stacks, formatCount)
			},
			NoDataFound: "No samples found.",
		},
		{
			Name:    TopStacksTableName,
			HasRows: true,
			FieldsFunc: func(stacks folded.ProcessStacks) []table.Field {
				return topStacksTableValues(stacks, top, formatCount)
			},
			NoDataFound: "No stacks found.",
		},
	}
}

func summaryTableValues(stacks folded.ProcessStacks, formatCount func(int) string) []table.Field {
	uniqueStacks := 0
	for _, processStacks := range stacks {
		uniqueStacks += len(processStacks)
	}
	return []table.Field{
		{Name: "Samples", Values: []string{formatCount(stacks.TotalSamples())}},
		{Name: "Processes", Values: []string{strconv.Itoa(len(stacks))}},
		{Name: "Stacks", Values: []string{strconv.Itoa(uniqueStacks)}},
	}
}

func processesTableValues(stacks folded.ProcessStacks, formatCount func(int) string) []table.Field {
	fields := []table.Field{
		{Name: "Process"},
		{Name: "Samples"},
		{Name: "Percent"},
		{Name: "Stacks"},
		{Name: "Avg Depth"},
	}
	totals := stacks.ProcessTotals()
	total := stacks.TotalSamples()
	processes := stacks.Processes()
	// heaviest first, ties in name order
	slices.SortStableFunc(processes, func(a, b string) int {
		return totals[b] - totals[a]
	})
	for _, process := range processes {
		fields[0].Values = append(fields[0].Values, process)
		fields[1].Values = append(fields[1].Values, formatCount(totals[process]))
		fields[2].Values = append(fields[2].Values, percent(totals[process], total))
		fields[3].Values = append(fields[3].Values, strconv.Itoa(len(stacks[process])))
		fields[4].Values = append(fields[4].Values, fmt.Sprintf("%.1f", stacks.AverageDepth(process)))
	}
	return fields
}

func topStacksTableValues(stacks folded.ProcessStacks, top int, formatCount func(int) string) []table.Field {
	fields := []table.Field{
		{Name: "Samples"},
		{Name: "Percent"},
		{Name: "Stack"},
	}
	total := stacks.TotalSamples()
	for _, stack := range stacks.TopStacks(top) {
		fields[0].Values = append(fields[0].Values, formatCount(stack.Count))
		fields[1].Values = append(fields[1].Values, percent(stack.Count, total))
		fields[2].Values = append(fields[2].Values, strings.TrimSpace(stack.Key()))
	}
	return fields
}

// topStacksTextRenderer prints one frame per line; folded stacks are usually
// too long for a column.
func topStacksTextRenderer(tableValues table.TableValues) string {
	var sb strings.Builder
	samplesIdx, err := table.GetFieldIndex("Samples", tableValues)
	if err != nil {
		return report.DefaultTextTableRendererFunc(tableValues)
	}
	percentIdx, err := table.GetFieldIndex("Percent", tableValues)
	if err != nil {
		return report.DefaultTextTableRendererFunc(tableValues)
	}
	stackIdx, err := table.GetFieldIndex("Stack", tableValues)
	if err != nil {
		return report.DefaultTextTableRendererFunc(tableValues)
	}
	for row := range tableValues.Fields[stackIdx].Values {
		fmt.Fprintf(&sb, "%s samples (%s%%)\n", tableValues.Fields[samplesIdx].Values[row], tableValues.Fields[percentIdx].Values[row])
		for frame := range strings.SplitSeq(tableValues.Fields[stackIdx].Values[row], ";") {
			fmt.Fprintf(&sb, "  %s\n", frame)
		}
	}
	return sb.String()
}
