// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package folded reads, combines and writes folded stack files.
package folded

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// ProcessStacks ...
// [processName][callStack]=count
type ProcessStacks map[string]Stacks

// Stacks maps a call stack (frames joined by ';', root first) to its count.
// A sample without frames is stored under the empty stack.
type Stacks map[string]int

// example folded stack:
// swapper;secondary_startup_64_no_verify;start_secondary;cpu_startup_entry;arch_cpu_idle_enter 10523019

// Parse reads folded stack lines from r. Lines that do not end in a count
// are skipped.
func Parse(r io.Reader) (ProcessStacks, error) {
	p := make(ProcessStacks)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 128*1024), 1<<30)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		splitAt := strings.LastIndexByte(line, ' ')
		if splitAt == -1 {
			slog.Debug("skipping folded line without count", slog.String("line", line))
			continue
		}
		count, err := strconv.Atoi(line[splitAt+1:])
		if err != nil {
			slog.Debug("skipping folded line with bad count", slog.String("line", line), slog.String("error", err.Error()))
			continue
		}
		processName, stack, _ := strings.Cut(line[:splitAt], ";")
		p.add(processName, stack, count)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read folded stacks")
	}
	return p, nil
}

func (p ProcessStacks) add(processName, stack string, count int) {
	if _, ok := p[processName]; !ok {
		p[processName] = make(Stacks)
	}
	p[processName][stack] += count
}

// Add sums the counts of other into p.
func (p ProcessStacks) Add(other ProcessStacks) {
	for processName, stacks := range other {
		for stack, count := range stacks {
			p.add(processName, stack, count)
		}
	}
}

// TotalSamples returns the sum of all counts.
func (p ProcessStacks) TotalSamples() (count int) {
	for _, stacks := range p {
		for _, stackCount := range stacks {
			count += stackCount
		}
	}
	return
}

// ProcessTotals returns the number of samples per process.
func (p ProcessStacks) ProcessTotals() map[string]int {
	totals := make(map[string]int, len(p))
	for processName, stacks := range p {
		for _, stackCount := range stacks {
			totals[processName] += stackCount
		}
	}
	return totals
}

// ScaleCounts multiplies every count by ratio, rounding to the nearest integer.
func (p ProcessStacks) ScaleCounts(ratio float64) {
	for processName, stacks := range p {
		for stack, stackCount := range stacks {
			p[processName][stack] = int(math.Round(float64(stackCount) * ratio))
		}
	}
}

// AverageDepth returns the mean number of frames in the stacks of a process.
func (p ProcessStacks) AverageDepth(processName string) (average float64) {
	stacks, ok := p[processName]
	if !ok || len(stacks) == 0 {
		return
	}
	total := 0
	for stack := range stacks {
		total += depth(stack)
	}
	average = float64(total) / float64(len(stacks))
	return
}

func depth(stack string) int {
	if stack == "" {
		return 0
	}
	return strings.Count(stack, ";") + 1
}

// Processes returns the distinct process names, sorted.
func (p ProcessStacks) Processes() []string {
	return slices.Sorted(maps.Keys(p))
}

// Stack is one folded stack with its process and count.
type Stack struct {
	Process string
	Stack   string
	Count   int
}

// Key returns the folded key of the stack, i.e. the process followed by the frames.
func (s Stack) Key() string {
	if s.Stack == "" {
		return s.Process
	}
	return s.Process + ";" + s.Stack
}

// Sorted returns all stacks ordered by folded key.
func (p ProcessStacks) Sorted() []Stack {
	var all []Stack
	for processName, stacks := range p {
		for stack, count := range stacks {
			all = append(all, Stack{Process: processName, Stack: stack, Count: count})
		}
	}
	slices.SortFunc(all, func(a, b Stack) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return all
}

// TopStacks returns the n stacks with the highest counts. Ties are broken by
// folded key. n <= 0 returns all stacks.
func (p ProcessStacks) TopStacks(n int) []Stack {
	all := p.Sorted()
	slices.SortStableFunc(all, func(a, b Stack) int {
		return b.Count - a.Count
	})
	if n > 0 && n < len(all) {
		all = all[:n]
	}
	return all
}

// WriteFolded writes the stacks to w in folded format, sorted by key.
func (p ProcessStacks) WriteFolded(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range p.Sorted() {
		if _, err := fmt.Fprintf(bw, "%s %d\n", s.Key(), s.Count); err != nil {
			return errors.Wrap(err, "failed to write folded stacks")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "failed to write folded stacks")
	}
	return nil
}

// MergeDeepest merges two profiles of the same run, e.g. frame pointer and
// dwarf unwound stacks. The counts of second are scaled to the sample total of
// first. For every process, the set with the deeper average stack is kept.
func MergeDeepest(first, second ProcessStacks) (merged ProcessStacks, err error) {
	firstSampleCount := first.TotalSamples()
	secondSampleCount := second.TotalSamples()
	if firstSampleCount == 0 && secondSampleCount == 0 {
		err = fmt.Errorf("both sample counts cannot be zero")
		return
	}
	if firstSampleCount == 0 {
		slog.Warn("no samples in first profile; using second")
		merged = second
		return
	}
	if secondSampleCount == 0 {
		slog.Warn("no samples in second profile; using first")
		merged = first
		return
	}
	second.ScaleCounts(float64(firstSampleCount) / float64(secondSampleCount))

	merged = make(ProcessStacks)
	processNames := mapset.NewSetFromMapKeys(first).Union(mapset.NewSetFromMapKeys(second))
	for processName := range processNames.Iter() {
		firstStacks, inFirst := first[processName]
		secondStacks, inSecond := second[processName]
		switch {
		case !inSecond:
			merged[processName] = firstStacks
		case !inFirst:
			merged[processName] = secondStacks
		case first.AverageDepth(processName) >= second.AverageDepth(processName):
			merged[processName] = firstStacks
		default:
			merged[processName] = secondStacks
		}
	}
	return
}
