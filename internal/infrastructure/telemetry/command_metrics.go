package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// OutcomeOK labels a command that completed without error
const OutcomeOK = "ok"

// CommandMetrics counts executed commands and their latency by outcome.
// The outcome is "ok" or the error kind the command failed with.
type CommandMetrics struct {
	total    *Counter
	duration *Histogram
}

// NewCommandMetrics registers the command instruments on meter
func NewCommandMetrics(meter metric.Meter) (*CommandMetrics, error) {
	if meter == nil {
		return nil, errors.New("NewCommandMetrics: meter cannot be nil")
	}
	total, err := NewCounter(meter,
		"command_total",
		"Total number of executed commands by outcome",
		"{command}",
	)
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter,
		"command_duration_seconds",
		"Command latency distribution in seconds",
		"s",
		CommandDurationBuckets,
	)
	if err != nil {
		return nil, err
	}
	return &CommandMetrics{total: total, duration: duration}, nil
}

// RecordCommand records one execution of the named command
func (m *CommandMetrics) RecordCommand(ctx context.Context, name, outcome string, elapsed time.Duration) {
	if outcome == "" {
		outcome = OutcomeOK
	}
	m.total.Inc(ctx, AttrCommand.String(name), AttrOutcome.String(outcome))
	m.duration.RecordDuration(ctx, elapsed, AttrCommand.String(name), AttrOutcome.String(outcome))
}
