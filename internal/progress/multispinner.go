// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

/*
Package progress provides CLI progress spinners.
*/
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinChars []string = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

type spinnerState struct {
	label     string
	status    string
	spinIndex int
}

// MultiSpinner draws one status line per label. Nothing is drawn unless the
// output is interactive.
type MultiSpinner struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	spinners    []spinnerState
	ticker      *time.Ticker
	done        chan struct{}
	stopped     chan struct{}
	spinning    bool
}

// NewMultiSpinner creates a new MultiSpinner that draws to out
func NewMultiSpinner(out io.Writer, interactive bool) *MultiSpinner {
	return &MultiSpinner{out: out, interactive: interactive}
}

// AddSpinner adds a spinner to the MultiSpinner
func (ms *MultiSpinner) AddSpinner(label string) (err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	// make sure label is unique
	for _, spinner := range ms.spinners {
		if spinner.label == label {
			err = fmt.Errorf("spinner with label %s already exists", label)
			return
		}
	}
	ms.spinners = append(ms.spinners, spinnerState{label: label, status: "?"})
	return
}

// Start starts the spinner
func (ms *MultiSpinner) Start() {
	if !ms.interactive || ms.spinning {
		return
	}
	ms.draw(true)
	ms.ticker = time.NewTicker(250 * time.Millisecond)
	ms.done = make(chan struct{})
	ms.stopped = make(chan struct{})
	ms.spinning = true
	go ms.onTick()
}

// Finish stops the spinner and leaves the final status lines in place
func (ms *MultiSpinner) Finish() {
	if !ms.spinning {
		return
	}
	ms.ticker.Stop()
	close(ms.done)
	<-ms.stopped
	ms.draw(false)
	ms.spinning = false
}

// Status updates the status of a spinner
func (ms *MultiSpinner) Status(label string, status string) (err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for spinnerIdx, spinner := range ms.spinners {
		if spinner.label == label {
			ms.spinners[spinnerIdx].status = status
			return
		}
	}
	err = fmt.Errorf("did not find spinner with label %s", label)
	return
}

func (ms *MultiSpinner) onTick() {
	defer close(ms.stopped)
	for {
		select {
		case <-ms.done:
			return
		case <-ms.ticker.C:
			ms.draw(true)
		}
	}
}

func (ms *MultiSpinner) draw(goUp bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for i, spinner := range ms.spinners {
		fmt.Fprintf(ms.out, "%-20s  %s  %-40s\n", spinner.label, spinChars[spinner.spinIndex], spinner.status)
		ms.spinners[i].spinIndex = (spinner.spinIndex + 1) % len(spinChars)
	}
	if goUp {
		for range ms.spinners {
			fmt.Fprintf(ms.out, "\x1b[1A")
		}
	}
}
