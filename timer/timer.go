// Package timer provides the external-trigger collaborator the
// scheduler uses to wake suspended jobs. A trigger is a one-shot
// callback bound to a named entry point; the callback receives only
// the trigger ID and recovers everything else from persisted state.
package timer

import (
	"context"
	"time"

	"github.com/stintlabs/stint/id"
)

// Handler is the entry-point callback invoked when a trigger fires.
type Handler func(ctx context.Context, triggerID id.TriggerID)

// Scheduler registers and cancels one-shot resumption triggers.
type Scheduler interface {
	// Schedule arms a one-shot trigger that invokes the named entry
	// point after delay. It returns the trigger's ID immediately.
	Schedule(ctx context.Context, entryPoint string, delay time.Duration) (id.TriggerID, error)

	// Cancel disarms a pending trigger. Cancelling a trigger that
	// already fired or never existed returns stint.ErrTriggerNotFound.
	Cancel(ctx context.Context, triggerID id.TriggerID) error
}
