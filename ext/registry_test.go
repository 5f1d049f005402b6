package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stintlabs/stint/ext"
	"github.com/stintlabs/stint/id"
)

// countingExt implements a subset of hooks.
type countingExt struct {
	started   int
	completed int
	failed    int
}

func (c *countingExt) Name() string { return "counting" }

func (c *countingExt) OnJobStarted(_ context.Context, _, _ string, _ bool) error {
	c.started++
	return nil
}

func (c *countingExt) OnJobCompleted(_ context.Context, _ string, _ time.Duration, _, _ int) error {
	c.completed++
	return nil
}

func (c *countingExt) OnJobFailed(_ context.Context, _ string, _ error) error {
	c.failed++
	return errors.New("hook error must not propagate")
}

func TestRegistry_EmitsOnlyImplementedHooks(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	c := &countingExt{}
	r.Register(c)

	ctx := context.Background()
	r.EmitJobStarted(ctx, "job-a", "report", false)
	r.EmitJobCompleted(ctx, "job-a", time.Second, 10, 0)
	// countingExt does not implement CombinationDone; must be a no-op.
	r.EmitCombinationDone(ctx, "job-a", 1, 10)

	if c.started != 1 || c.completed != 1 {
		t.Errorf("counts = started %d completed %d, want 1/1", c.started, c.completed)
	}
}

func TestRegistry_HookErrorIsSwallowed(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	c := &countingExt{}
	r.Register(c)

	// Must not panic or propagate.
	r.EmitJobFailed(context.Background(), "job-a", errors.New("boom"))

	if c.failed != 1 {
		t.Errorf("failed count = %d, want 1", c.failed)
	}
}

func TestRegistry_NotificationOrder(t *testing.T) {
	r := ext.NewRegistry(slog.Default())

	var order []string
	r.Register(&namedStartExt{name: "first", order: &order})
	r.Register(&namedStartExt{name: "second", order: &order})

	r.EmitJobStarted(context.Background(), "j", "t", false)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("notification order = %v, want [first second]", order)
	}
}

type namedStartExt struct {
	name  string
	order *[]string
}

func (n *namedStartExt) Name() string { return n.name }

func (n *namedStartExt) OnJobStarted(_ context.Context, _, _ string, _ bool) error {
	*n.order = append(*n.order, n.name)
	return nil
}

func TestRegistry_TriggerHooks(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	te := &triggerExt{}
	r.Register(te)

	trg := id.NewTriggerID()
	r.EmitTriggerScheduled(context.Background(), "j", trg, time.Minute)
	r.EmitTriggerCancelled(context.Background(), "j", trg)

	if te.scheduled != 1 || te.cancelled != 1 {
		t.Errorf("trigger hooks = %d/%d, want 1/1", te.scheduled, te.cancelled)
	}
	if te.lastID.String() != trg.String() {
		t.Errorf("trigger id = %v, want %v", te.lastID, trg)
	}
}

type triggerExt struct {
	scheduled int
	cancelled int
	lastID    id.TriggerID
}

func (t *triggerExt) Name() string { return "trigger" }

func (t *triggerExt) OnTriggerScheduled(_ context.Context, _ string, trg id.TriggerID, _ time.Duration) error {
	t.scheduled++
	t.lastID = trg
	return nil
}

func (t *triggerExt) OnTriggerCancelled(_ context.Context, _ string, trg id.TriggerID) error {
	t.cancelled++
	t.lastID = trg
	return nil
}
