// Package sched drives steppers inside a wall-clock budget. The
// Scheduler owns the job lifecycle: it enforces single-instance
// execution per job name, persists a checkpoint after every advance,
// suspends the run when the budget is exhausted, arms a one-shot
// resumption trigger, and continues from the persisted checkpoint when
// the trigger fires.
//
// Suspension is strictly a response to budget exhaustion. A failing
// job transitions to Failed and propagates its error; it is never
// silently rescheduled.
package sched
