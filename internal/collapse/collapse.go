// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package collapse converts "perf script" output into folded stacks, the
// input format of flame graph renderers. Each event in the perf output, a
// header line followed by stack lines and a blank line, becomes one
// "process;root;...;leaf" key whose count is the number of identical events.
package collapse

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// maxLineSize bounds a single input line; deep C++ template frames can be long.
const maxLineSize = 1 << 30

// Parser is the state machine that folds perf script events. It is not safe
// for concurrent use.
type Parser struct {
	config      Config
	errorOutput io.Writer
	filter      EventFilter

	inEvent     bool          // all lines until the next empty line are stack lines
	decision    StackDecision // what to do with the stack lines of the current event
	stack       []string      // frames of the current event, leaf first
	processName string        // label of the current event's process

	occurrences *Occurrences
	stats       Stats
	metrics     *parserMetrics
}

// NewParser creates a parser. Diagnostics about malformed lines are written
// to errorOutput.
func NewParser(config Config, errorOutput io.Writer) *Parser {
	if errorOutput == nil {
		errorOutput = io.Discard
	}
	return &Parser{
		config:      config.Normalize(),
		errorOutput: errorOutput,
		filter:      keepAllEvents,
		occurrences: NewOccurrences(),
		metrics:     newParserMetrics(),
	}
}

// ProcessStacks reads perf script output from input and writes the folded
// stacks to output. Diagnostics go to errorOutput.
func ProcessStacks(input io.Reader, output io.Writer, errorOutput io.Writer, config Config) error {
	parser := NewParser(config, errorOutput)
	if err := parser.Consume(input); err != nil {
		return err
	}
	return parser.Finish(output)
}

// Consume feeds every line of r to the parser. Comment lines are dropped and
// trailing whitespace is removed before a line is classified.
func (p *Parser) Consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 128*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			p.AfterEvent()
		} else {
			p.OnLine(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read perf script input")
	}
	return nil
}

// OnLine handles one non-empty line: an event header when no event is open,
// otherwise a stack line of the open event.
func (p *Parser) OnLine(line string) {
	if !p.inEvent {
		p.onEventLine(line)
	} else {
		p.onStackLine(line)
	}
}

func (p *Parser) onEventLine(line string) {
	comm, pid, tid, ok := eventLineParts(line)
	if !ok {
		p.stats.MalformedEvents++
		p.metrics.malformed.WithLabelValues(malformedKindEvent).Inc()
		slog.Debug("weird event line", slog.String("line", line))
		fmt.Fprintf(p.errorOutput, "weird event line: %s\n", line)
		return
	}
	p.inEvent = true
	p.decision = p.filter(eventName(line))
	p.processName = processLabel(comm, pid, tid, p.config)
}

func (p *Parser) onStackLine(line string) {
	if p.decision == StackSkip {
		return
	}
	pc, rawFunc, module, ok := stackLineParts(line)
	if !ok {
		p.stats.MalformedStacks++
		p.metrics.malformed.WithLabelValues(malformedKindStack).Inc()
		slog.Debug("weird stack line", slog.String("line", line))
		fmt.Fprintf(p.errorOutput, "weird stack line: %s\n", line)
		return
	}
	frame, keep := normalizeFrame(pc, rawFunc, module, p.config)
	if !keep {
		p.stats.SkippedFrames++
		p.metrics.skippedFrames.Inc()
		return
	}
	p.stats.Frames++
	p.metrics.frames.Inc()
	p.stack = append(p.stack, frame)
}

// AfterEvent closes the open event at a blank line: the event's folded stack
// is counted and the state is reset for the next header. Without an open
// event it does nothing.
func (p *Parser) AfterEvent() {
	if !p.inEvent {
		return
	}
	var frames []string
	if p.decision == StackKeep {
		frames = p.stack
	}
	// frames arrive leaf first; folded stacks are root first
	slices.Reverse(frames)
	length := len(p.processName)
	for _, frame := range frames {
		length += len(frame) + 1
	}
	var sb strings.Builder
	sb.Grow(length)
	sb.WriteString(p.processName)
	for _, frame := range frames {
		sb.WriteByte(';')
		sb.WriteString(frame)
	}
	p.occurrences.RememberStack(sb.String(), 1)

	p.stats.Events++
	p.metrics.events.Inc()
	p.metrics.uniqueStacks.Set(float64(p.occurrences.Len()))

	p.inEvent = false
	p.decision = StackKeep
	p.stack = p.stack[:0]
}

// Finish writes the folded stacks, sorted, to w. An event that was not
// followed by a blank line is not counted.
func (p *Parser) Finish(w io.Writer) error {
	if _, err := p.occurrences.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write folded stacks")
	}
	return nil
}

// Occurrences returns the table of folded stacks counted so far.
func (p *Parser) Occurrences() *Occurrences {
	return p.occurrences
}

// Stats returns a snapshot of the parse counters.
func (p *Parser) Stats() Stats {
	stats := p.stats
	stats.UniqueStacks = p.occurrences.Len()
	return stats
}
