// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package collapse

import (
	"bufio"
	"fmt"
	"io"
	"slices"
)

// Occurrences counts how many times each folded stack was seen.
type Occurrences struct {
	collapsed map[string]uint64
}

// NewOccurrences creates and returns an empty Occurrences table.
func NewOccurrences() *Occurrences {
	return &Occurrences{collapsed: make(map[string]uint64)}
}

// RememberStack adds count to the folded stack.
func (o *Occurrences) RememberStack(stack string, count uint64) {
	o.collapsed[stack] += count
}

// Count returns the count recorded for the folded stack.
func (o *Occurrences) Count(stack string) uint64 {
	return o.collapsed[stack]
}

// Len returns the number of distinct folded stacks.
func (o *Occurrences) Len() int {
	return len(o.collapsed)
}

// Total returns the sum of all counts.
func (o *Occurrences) Total() (total uint64) {
	for _, count := range o.collapsed {
		total += count
	}
	return
}

// Keys returns the folded stacks in byte order.
func (o *Occurrences) Keys() []string {
	keys := make([]string, 0, len(o.collapsed))
	for k := range o.collapsed {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// WriteTo writes one "<stack> <count>" line per folded stack, sorted by stack.
func (o *Occurrences) WriteTo(w io.Writer) (n int64, err error) {
	bw := bufio.NewWriter(w)
	for _, k := range o.Keys() {
		var written int
		written, err = fmt.Fprintf(bw, "%s %d\n", k, o.collapsed[k])
		n += int64(written)
		if err != nil {
			return
		}
	}
	err = bw.Flush()
	return
}
