package observability_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/stintlabs/stint/checkpoint"
	"github.com/stintlabs/stint/ext"
	"github.com/stintlabs/stint/id"
	"github.com/stintlabs/stint/observability"
)

func newTestExtension(t *testing.T) (*observability.MetricsExtension, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	e, err := observability.NewMetricsExtensionWithMeter(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsExtensionWithMeter: %v", err)
	}
	return e, reader
}

// counterValue sums all data points for a named Int64 counter.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is not an int64 sum", name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetricsExtension_Name(t *testing.T) {
	e, _ := newTestExtension(t)
	if e.Name() != "observability-metrics" {
		t.Errorf("Name() = %q, want %q", e.Name(), "observability-metrics")
	}
}

func TestMetricsExtension_JobLifecycle(t *testing.T) {
	e, reader := newTestExtension(t)
	ctx := context.Background()

	if err := e.OnJobStarted(ctx, "export", "report", false); err != nil {
		t.Fatalf("OnJobStarted: %v", err)
	}
	if err := e.OnJobStarted(ctx, "export", "report", true); err != nil {
		t.Fatalf("OnJobStarted resumed: %v", err)
	}
	if err := e.OnJobSuspended(ctx, "export", &checkpoint.Checkpoint{}, id.NewTriggerID()); err != nil {
		t.Fatalf("OnJobSuspended: %v", err)
	}
	if err := e.OnJobCompleted(ctx, "export", 2*time.Second, 10, 1); err != nil {
		t.Fatalf("OnJobCompleted: %v", err)
	}
	if err := e.OnJobFailed(ctx, "export", errors.New("boom")); err != nil {
		t.Fatalf("OnJobFailed: %v", err)
	}

	checks := []struct {
		metric string
		want   int64
	}{
		{"stint.job.started", 1},
		{"stint.job.resumed", 1},
		{"stint.job.suspended", 1},
		{"stint.job.completed", 1},
		{"stint.job.failed", 1},
	}
	for _, c := range checks {
		if got := counterValue(t, reader, c.metric); got != c.want {
			t.Errorf("%s = %d, want %d", c.metric, got, c.want)
		}
	}
}

func TestMetricsExtension_CombinationAndRetry(t *testing.T) {
	e, reader := newTestExtension(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := e.OnCombinationDone(ctx, "export", i, 10); err != nil {
			t.Fatalf("OnCombinationDone: %v", err)
		}
	}
	if err := e.OnCombinationFailed(ctx, "export", 3, errors.New("bad row")); err != nil {
		t.Fatalf("OnCombinationFailed: %v", err)
	}
	if err := e.OnRetryRecovered(ctx, "append-rows", 2); err != nil {
		t.Fatalf("OnRetryRecovered: %v", err)
	}
	if err := e.OnRetryExhausted(ctx, "append-rows", "quota", 4); err != nil {
		t.Fatalf("OnRetryExhausted: %v", err)
	}

	checks := []struct {
		metric string
		want   int64
	}{
		{"stint.combination.done", 3},
		{"stint.combination.failed", 1},
		{"stint.retry.recovered", 1},
		{"stint.retry.exhausted", 1},
	}
	for _, c := range checks {
		if got := counterValue(t, reader, c.metric); got != c.want {
			t.Errorf("%s = %d, want %d", c.metric, got, c.want)
		}
	}
}

func TestMetricsExtension_ViaRegistry(t *testing.T) {
	e, reader := newTestExtension(t)

	reg := ext.NewRegistry(slog.Default())
	reg.Register(e)

	ctx := context.Background()
	reg.EmitJobStarted(ctx, "export", "report", false)
	reg.EmitCombinationDone(ctx, "export", 0, 5)
	reg.EmitTriggerScheduled(ctx, "export", id.NewTriggerID(), time.Minute)

	checks := []struct {
		metric string
		want   int64
	}{
		{"stint.job.started", 1},
		{"stint.combination.done", 1},
		{"stint.trigger.scheduled", 1},
	}
	for _, c := range checks {
		if got := counterValue(t, reader, c.metric); got != c.want {
			t.Errorf("%s = %d, want %d", c.metric, got, c.want)
		}
	}
}
