package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/stintlabs/stint/checkpoint"
	"github.com/stintlabs/stint/id"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type jobStartedEntry struct {
	name string
	hook JobStarted
}

type jobSuspendedEntry struct {
	name string
	hook JobSuspended
}

type jobCompletedEntry struct {
	name string
	hook JobCompleted
}

type jobFailedEntry struct {
	name string
	hook JobFailed
}

type combinationDoneEntry struct {
	name string
	hook CombinationDone
}

type combinationFailedEntry struct {
	name string
	hook CombinationFailed
}

type retryRecoveredEntry struct {
	name string
	hook RetryRecovered
}

type retryExhaustedEntry struct {
	name string
	hook RetryExhausted
}

type triggerScheduledEntry struct {
	name string
	hook TriggerScheduled
}

type triggerCancelledEntry struct {
	name string
	hook TriggerCancelled
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	jobStarted        []jobStartedEntry
	jobSuspended      []jobSuspendedEntry
	jobCompleted      []jobCompletedEntry
	jobFailed         []jobFailedEntry
	combinationDone   []combinationDoneEntry
	combinationFailed []combinationFailedEntry
	retryRecovered    []retryRecoveredEntry
	retryExhausted    []retryExhaustedEntry
	triggerScheduled  []triggerScheduledEntry
	triggerCancelled  []triggerCancelledEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobStarted); ok {
		r.jobStarted = append(r.jobStarted, jobStartedEntry{name, h})
	}
	if h, ok := e.(JobSuspended); ok {
		r.jobSuspended = append(r.jobSuspended, jobSuspendedEntry{name, h})
	}
	if h, ok := e.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, jobCompletedEntry{name, h})
	}
	if h, ok := e.(JobFailed); ok {
		r.jobFailed = append(r.jobFailed, jobFailedEntry{name, h})
	}
	if h, ok := e.(CombinationDone); ok {
		r.combinationDone = append(r.combinationDone, combinationDoneEntry{name, h})
	}
	if h, ok := e.(CombinationFailed); ok {
		r.combinationFailed = append(r.combinationFailed, combinationFailedEntry{name, h})
	}
	if h, ok := e.(RetryRecovered); ok {
		r.retryRecovered = append(r.retryRecovered, retryRecoveredEntry{name, h})
	}
	if h, ok := e.(RetryExhausted); ok {
		r.retryExhausted = append(r.retryExhausted, retryExhaustedEntry{name, h})
	}
	if h, ok := e.(TriggerScheduled); ok {
		r.triggerScheduled = append(r.triggerScheduled, triggerScheduledEntry{name, h})
	}
	if h, ok := e.(TriggerCancelled); ok {
		r.triggerCancelled = append(r.triggerCancelled, triggerCancelledEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Job event emitters
// ──────────────────────────────────────────────────

// EmitJobStarted notifies all extensions that implement JobStarted.
func (r *Registry) EmitJobStarted(ctx context.Context, name, jobType string, resumed bool) {
	for _, e := range r.jobStarted {
		if err := e.hook.OnJobStarted(ctx, name, jobType, resumed); err != nil {
			r.logHookError("OnJobStarted", e.name, err)
		}
	}
}

// EmitJobSuspended notifies all extensions that implement JobSuspended.
func (r *Registry) EmitJobSuspended(ctx context.Context, name string, cp *checkpoint.Checkpoint, triggerID id.TriggerID) {
	for _, e := range r.jobSuspended {
		if err := e.hook.OnJobSuspended(ctx, name, cp, triggerID); err != nil {
			r.logHookError("OnJobSuspended", e.name, err)
		}
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, name string, elapsed time.Duration, processed, failed int) {
	for _, e := range r.jobCompleted {
		if err := e.hook.OnJobCompleted(ctx, name, elapsed, processed, failed); err != nil {
			r.logHookError("OnJobCompleted", e.name, err)
		}
	}
}

// EmitJobFailed notifies all extensions that implement JobFailed.
func (r *Registry) EmitJobFailed(ctx context.Context, name string, jobErr error) {
	for _, e := range r.jobFailed {
		if err := e.hook.OnJobFailed(ctx, name, jobErr); err != nil {
			r.logHookError("OnJobFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Combination event emitters
// ──────────────────────────────────────────────────

// EmitCombinationDone notifies all extensions that implement CombinationDone.
func (r *Registry) EmitCombinationDone(ctx context.Context, name string, index, total int) {
	for _, e := range r.combinationDone {
		if err := e.hook.OnCombinationDone(ctx, name, index, total); err != nil {
			r.logHookError("OnCombinationDone", e.name, err)
		}
	}
}

// EmitCombinationFailed notifies all extensions that implement CombinationFailed.
func (r *Registry) EmitCombinationFailed(ctx context.Context, name string, index int, combErr error) {
	for _, e := range r.combinationFailed {
		if err := e.hook.OnCombinationFailed(ctx, name, index, combErr); err != nil {
			r.logHookError("OnCombinationFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Retry event emitters (satisfies retry.Emitter)
// ──────────────────────────────────────────────────

// EmitRetryRecovered notifies all extensions that implement RetryRecovered.
func (r *Registry) EmitRetryRecovered(ctx context.Context, operation string, attempts int) {
	for _, e := range r.retryRecovered {
		if err := e.hook.OnRetryRecovered(ctx, operation, attempts); err != nil {
			r.logHookError("OnRetryRecovered", e.name, err)
		}
	}
}

// EmitRetryExhausted notifies all extensions that implement RetryExhausted.
func (r *Registry) EmitRetryExhausted(ctx context.Context, operation string, kind string, attempts int) {
	for _, e := range r.retryExhausted {
		if err := e.hook.OnRetryExhausted(ctx, operation, kind, attempts); err != nil {
			r.logHookError("OnRetryExhausted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Trigger event emitters
// ──────────────────────────────────────────────────

// EmitTriggerScheduled notifies all extensions that implement TriggerScheduled.
func (r *Registry) EmitTriggerScheduled(ctx context.Context, name string, triggerID id.TriggerID, delay time.Duration) {
	for _, e := range r.triggerScheduled {
		if err := e.hook.OnTriggerScheduled(ctx, name, triggerID, delay); err != nil {
			r.logHookError("OnTriggerScheduled", e.name, err)
		}
	}
}

// EmitTriggerCancelled notifies all extensions that implement TriggerCancelled.
func (r *Registry) EmitTriggerCancelled(ctx context.Context, name string, triggerID id.TriggerID) {
	for _, e := range r.triggerCancelled {
		if err := e.hook.OnTriggerCancelled(ctx, name, triggerID); err != nil {
			r.logHookError("OnTriggerCancelled", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the run.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
