package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stintlabs/stint/checkpoint"
	"github.com/stintlabs/stint/ext"
	"github.com/stintlabs/stint/id"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*MetricsExtension)(nil)
	_ ext.JobStarted        = (*MetricsExtension)(nil)
	_ ext.JobSuspended      = (*MetricsExtension)(nil)
	_ ext.JobCompleted      = (*MetricsExtension)(nil)
	_ ext.JobFailed         = (*MetricsExtension)(nil)
	_ ext.CombinationDone   = (*MetricsExtension)(nil)
	_ ext.CombinationFailed = (*MetricsExtension)(nil)
	_ ext.RetryRecovered    = (*MetricsExtension)(nil)
	_ ext.RetryExhausted    = (*MetricsExtension)(nil)
	_ ext.TriggerScheduled  = (*MetricsExtension)(nil)
)

// MetricsExtension records lifecycle metrics for every registered hook.
// Register it with the scheduler to automatically track run starts,
// suspensions, completions, failures, per-combination throughput,
// retry recoveries and exhaustions, and scheduled triggers.
type MetricsExtension struct {
	jobStarted      metric.Int64Counter
	jobResumed      metric.Int64Counter
	jobSuspended    metric.Int64Counter
	jobCompleted    metric.Int64Counter
	jobFailed       metric.Int64Counter
	jobDuration     metric.Float64Histogram
	combinationDone metric.Int64Counter
	combinationErr  metric.Int64Counter
	retryRecovered  metric.Int64Counter
	retryExhausted  metric.Int64Counter
	triggerSet      metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global
// MeterProvider. If none is configured the instruments are no-ops.
func NewMetricsExtension() (*MetricsExtension, error) {
	return NewMetricsExtensionWithMeter(otel.Meter("github.com/stintlabs/stint"))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. Use a manual-reader meter in tests.
func NewMetricsExtensionWithMeter(meter metric.Meter) (*MetricsExtension, error) {
	m := &MetricsExtension{}
	var err error

	if m.jobStarted, err = meter.Int64Counter("stint.job.started",
		metric.WithDescription("Jobs started from scratch")); err != nil {
		return nil, err
	}
	if m.jobResumed, err = meter.Int64Counter("stint.job.resumed",
		metric.WithDescription("Jobs resumed from a checkpoint")); err != nil {
		return nil, err
	}
	if m.jobSuspended, err = meter.Int64Counter("stint.job.suspended",
		metric.WithDescription("Jobs suspended on budget exhaustion")); err != nil {
		return nil, err
	}
	if m.jobCompleted, err = meter.Int64Counter("stint.job.completed",
		metric.WithDescription("Jobs that ran to completion")); err != nil {
		return nil, err
	}
	if m.jobFailed, err = meter.Int64Counter("stint.job.failed",
		metric.WithDescription("Jobs that failed terminally")); err != nil {
		return nil, err
	}
	if m.jobDuration, err = meter.Float64Histogram("stint.job.duration",
		metric.WithDescription("Wall time of completed jobs"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.combinationDone, err = meter.Int64Counter("stint.combination.done",
		metric.WithDescription("Combinations processed successfully")); err != nil {
		return nil, err
	}
	if m.combinationErr, err = meter.Int64Counter("stint.combination.failed",
		metric.WithDescription("Combinations whose action failed")); err != nil {
		return nil, err
	}
	if m.retryRecovered, err = meter.Int64Counter("stint.retry.recovered",
		metric.WithDescription("Operations that succeeded after retry")); err != nil {
		return nil, err
	}
	if m.retryExhausted, err = meter.Int64Counter("stint.retry.exhausted",
		metric.WithDescription("Operations that exhausted their retry policy")); err != nil {
		return nil, err
	}
	if m.triggerSet, err = meter.Int64Counter("stint.trigger.scheduled",
		metric.WithDescription("Resumption triggers scheduled")); err != nil {
		return nil, err
	}

	return m, nil
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func jobAttrs(name string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("job", name))
}

// ── Job lifecycle hooks ─────────────────────────────

// OnJobStarted implements ext.JobStarted.
func (m *MetricsExtension) OnJobStarted(ctx context.Context, name, _ string, resumed bool) error {
	if resumed {
		m.jobResumed.Add(ctx, 1, jobAttrs(name))
	} else {
		m.jobStarted.Add(ctx, 1, jobAttrs(name))
	}
	return nil
}

// OnJobSuspended implements ext.JobSuspended.
func (m *MetricsExtension) OnJobSuspended(ctx context.Context, name string, _ *checkpoint.Checkpoint, _ id.TriggerID) error {
	m.jobSuspended.Add(ctx, 1, jobAttrs(name))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, name string, elapsed time.Duration, _, _ int) error {
	m.jobCompleted.Add(ctx, 1, jobAttrs(name))
	m.jobDuration.Record(ctx, elapsed.Seconds(), jobAttrs(name))
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, name string, _ error) error {
	m.jobFailed.Add(ctx, 1, jobAttrs(name))
	return nil
}

// ── Combination hooks ───────────────────────────────

// OnCombinationDone implements ext.CombinationDone.
func (m *MetricsExtension) OnCombinationDone(ctx context.Context, name string, _, _ int) error {
	m.combinationDone.Add(ctx, 1, jobAttrs(name))
	return nil
}

// OnCombinationFailed implements ext.CombinationFailed.
func (m *MetricsExtension) OnCombinationFailed(ctx context.Context, name string, _ int, _ error) error {
	m.combinationErr.Add(ctx, 1, jobAttrs(name))
	return nil
}

// ── Retry hooks ─────────────────────────────────────

// OnRetryRecovered implements ext.RetryRecovered.
func (m *MetricsExtension) OnRetryRecovered(ctx context.Context, operation string, _ int) error {
	m.retryRecovered.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	return nil
}

// OnRetryExhausted implements ext.RetryExhausted.
func (m *MetricsExtension) OnRetryExhausted(ctx context.Context, operation string, kind string, _ int) error {
	m.retryExhausted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("kind", kind),
	))
	return nil
}

// ── Trigger hooks ───────────────────────────────────

// OnTriggerScheduled implements ext.TriggerScheduled.
func (m *MetricsExtension) OnTriggerScheduled(ctx context.Context, name string, _ id.TriggerID, _ time.Duration) error {
	m.triggerSet.Add(ctx, 1, jobAttrs(name))
	return nil
}
