package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetrics holds the instruments recorded during a distribution run.
type RunMetrics struct {
	transfersTotal  metric.Int64Counter
	accountsCreated metric.Int64Counter
	batchesTotal    metric.Int64Counter
	batchDuration   metric.Float64Histogram
}

// NewRunMetrics registers distribution instruments on the meter.
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	transfers, err := meter.Int64Counter(
		"soldrop.transfers.total",
		metric.WithDescription("Completed transfer attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transfers counter: %w", err)
	}

	accounts, err := meter.Int64Counter(
		"soldrop.accounts.created.total",
		metric.WithDescription("Token accounts created for recipients"),
	)
	if err != nil {
		return nil, fmt.Errorf("create accounts counter: %w", err)
	}

	batches, err := meter.Int64Counter(
		"soldrop.batches.total",
		metric.WithDescription("Processed transfer batches by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create batches counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"soldrop.batch.duration.seconds",
		metric.WithDescription("Wall time per transfer batch"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create batch duration histogram: %w", err)
	}

	return &RunMetrics{
		transfersTotal:  transfers,
		accountsCreated: accounts,
		batchesTotal:    batches,
		batchDuration:   duration,
	}, nil
}

// RecordTransfer counts one completed transfer attempt with its outcome.
func (m *RunMetrics) RecordTransfer(ctx context.Context, outcome string) {
	if m == nil {
		return
	}

	m.transfersTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordAccountsCreated counts token accounts created in a provisioning step.
func (m *RunMetrics) RecordAccountsCreated(ctx context.Context, n int) {
	if m == nil {
		return
	}

	m.accountsCreated.Add(ctx, int64(n))
}

// RecordBatch counts one processed batch and its duration.
func (m *RunMetrics) RecordBatch(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.batchesTotal.Add(ctx, 1, attrs)
	m.batchDuration.Record(ctx, elapsed.Seconds(), attrs)
}
