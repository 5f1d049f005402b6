// Package ext defines the extension system for stint.
// Extensions are notified of lifecycle events (job started, suspended,
// resumed, completed, failed; combinations processed; retries recovered
// or exhausted) and can react to them — logging, metrics, alerting.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/stintlabs/stint/checkpoint"
	"github.com/stintlabs/stint/id"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobStarted is called when the scheduler begins (or resumes) driving a job.
type JobStarted interface {
	OnJobStarted(ctx context.Context, name, jobType string, resumed bool) error
}

// JobSuspended is called when a job is time-boxed out and a resumption
// trigger has been scheduled.
type JobSuspended interface {
	OnJobSuspended(ctx context.Context, name string, cp *checkpoint.Checkpoint, triggerID id.TriggerID) error
}

// JobCompleted is called after a job's final action ran and the job
// reached the Completed state.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, name string, elapsed time.Duration, processed, failed int) error
}

// JobFailed is called when a job fails terminally (uncaught error).
type JobFailed interface {
	OnJobFailed(ctx context.Context, name string, err error) error
}

// ──────────────────────────────────────────────────
// Combination hooks
// ──────────────────────────────────────────────────

// CombinationDone is called after each successfully processed combination.
type CombinationDone interface {
	OnCombinationDone(ctx context.Context, name string, index, total int) error
}

// CombinationFailed is called when one combination's action failed.
// Iteration continues regardless; this hook is observational.
type CombinationFailed interface {
	OnCombinationFailed(ctx context.Context, name string, index int, err error) error
}

// ──────────────────────────────────────────────────
// Retry hooks
// ──────────────────────────────────────────────────

// RetryRecovered is called when an operation succeeded after >= 2 attempts.
type RetryRecovered interface {
	OnRetryRecovered(ctx context.Context, operation string, attempts int) error
}

// RetryExhausted is called when an operation exhausted its retry policy.
type RetryExhausted interface {
	OnRetryExhausted(ctx context.Context, operation string, kind string, attempts int) error
}

// ──────────────────────────────────────────────────
// Trigger hooks
// ──────────────────────────────────────────────────

// TriggerScheduled is called when a resumption trigger is registered.
type TriggerScheduled interface {
	OnTriggerScheduled(ctx context.Context, name string, triggerID id.TriggerID, delay time.Duration) error
}

// TriggerCancelled is called when a pending trigger is cancelled
// (resume consumed it, or the job state was reset).
type TriggerCancelled interface {
	OnTriggerCancelled(ctx context.Context, name string, triggerID id.TriggerID) error
}
