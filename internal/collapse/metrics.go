// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package collapse

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const promMetricPrefix = "stackcollapse_"

const (
	malformedKindEvent = "event"
	malformedKindStack = "stack"
)

// parserMetrics are the counters kept while parsing. Each parser registers
// them in its own registry so runs never share counts.
type parserMetrics struct {
	registry      *prometheus.Registry
	events        prometheus.Counter
	frames        prometheus.Counter
	skippedFrames prometheus.Counter
	malformed     *prometheus.CounterVec
	uniqueStacks  prometheus.Gauge
}

func newParserMetrics() *parserMetrics {
	m := &parserMetrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Name: promMetricPrefix + "events_total",
			Help: "Number of events folded into stacks",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: promMetricPrefix + "frames_total",
			Help: "Number of stack frames kept",
		}),
		skippedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: promMetricPrefix + "skipped_frames_total",
			Help: "Number of process name pseudo frames dropped",
		}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: promMetricPrefix + "malformed_lines_total",
			Help: "Number of lines that could not be parsed",
		}, []string{"kind"}),
		uniqueStacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: promMetricPrefix + "unique_stacks",
			Help: "Number of distinct folded stacks",
		}),
	}
	m.registry.MustRegister(m.events, m.frames, m.skippedFrames, m.malformed, m.uniqueStacks)
	// make both kinds visible even when zero
	m.malformed.WithLabelValues(malformedKindEvent)
	m.malformed.WithLabelValues(malformedKindStack)
	return m
}

// Stats is a snapshot of the parse counters.
type Stats struct {
	Events          uint64
	Frames          uint64
	SkippedFrames   uint64
	MalformedEvents uint64
	MalformedStacks uint64
	UniqueStacks    int
}

// WriteMetrics writes the parse counters to path in the Prometheus text
// format, suitable for the node_exporter textfile collector.
func (p *Parser) WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, p.metrics.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}

// Registry exposes the parser's metrics registry, e.g. for serving or testing.
func (p *Parser) Registry() *prometheus.Registry {
	return p.metrics.registry
}
