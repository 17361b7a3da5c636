// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package collapse

import "strings"

// StackDecision tells the parser what to do with the stack lines of an event.
type StackDecision int

const (
	StackKeep StackDecision = iota
	StackSkip
)

// EventFilter decides, from the event name in a header line, whether the
// event's stack is kept.
type EventFilter func(event string) StackDecision

// keepAllEvents is the only filter in use; event filtering is not offered.
func keepAllEvents(string) StackDecision {
	return StackKeep
}

// eventLineParts splits an event header into comm, pid and tid. Header lines
// look like:
//
//	java 25607 4794564.109216: cycles:
//	java 12688 [002] 6544038.708352: cpu-clock:
//	V8 WorkerThread 25607 4794564.109216: cycles:
//	java 24636/25607 [000] 4794564.109216: cycles:
//	java 12688/12764 6544038.708352: cpu-clock:
//	V8 WorkerThread 24636/25607 [000] 94564.109216: cycles:
//	vote   913    72.176760:     257597 cycles:uppp:
//
// The comm may contain spaces, so fields cannot be split on whitespace. The
// first all-digit word (optionally pid/tid) after the comm ends the comm. The
// first word is never taken as the pid field and runs of spaces count as one
// separator. When no slash is present the word is the tid and pid is "?".
// perf pads comm to 16 columns when no callchain is printed, so the comm is
// trimmed on both sides.
func eventLineParts(line string) (comm, pid, tid string, ok bool) {
	commStart := len(line) - len(strings.TrimLeft(line, " "))
	wordStart := commStart
	allDigits := false
	slashAt := -1
	for idx := commStart; idx < len(line); idx++ {
		c := line[idx]
		switch {
		case c == ' ':
			if allDigits && idx > wordStart {
				if slashAt >= 0 {
					pid, tid = line[wordStart:slashAt], line[slashAt+1:idx]
				} else {
					pid, tid = "?", line[wordStart:idx]
				}
				comm = strings.TrimRight(line[commStart:wordStart], " ")
				ok = true
				return
			}
			wordStart = idx + 1
			allDigits = true
			slashAt = -1
		case c == '/':
			if allDigits {
				slashAt = idx
			}
		case c >= '0' && c <= '9':
			// still all digits if we were all digits
		default:
			allDigits = false
			slashAt = -1
		}
	}
	return
}

// eventName returns the event name at the end of a header line, e.g. "cycles"
// for "java 25607 4794564.109216: cycles:". It is empty when the last word
// does not end with a colon.
func eventName(line string) string {
	event := line[strings.LastIndexByte(line, ' ')+1:]
	if !strings.HasSuffix(event, ":") {
		return ""
	}
	return strings.TrimSuffix(event, ":")
}

// processLabel builds the process identity that leads every folded stack.
func processLabel(comm, pid, tid string, config Config) string {
	var sb strings.Builder
	sb.WriteString(strings.ReplaceAll(comm, " ", "_"))
	if config.IncludeTid {
		sb.WriteString("-")
		sb.WriteString(pid)
		sb.WriteString("/")
		sb.WriteString(tid)
	} else if config.IncludePid {
		sb.WriteString("-")
		sb.WriteString(pid)
	}
	return sb.String()
}
