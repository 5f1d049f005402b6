// Package stint provides a time-boxed, resumable batch execution core for
// hosts whose single invocation has a strict wall-clock budget and no
// durable in-process memory between invocations.
//
// Stint decomposes a "nested loop over several independent collections"
// computation into a pausable unit of work that is checkpointed at the
// budget boundary and resumed later by an external timer callback, without
// losing progress or duplicating work.
//
// # Quick Start
//
//	store := memory.New()
//	timers := timer.NewMemory()
//	s, err := sched.New(store, timers)
//	if err != nil { ... }
//
//	s.RegisterType("report", func(ctx context.Context, p stint.Params, cp *checkpoint.Checkpoint) (*stepper.Spec, error) {
//	    return &stepper.Spec{
//	        Levels: []stepper.Level{{Name: "region", Candidates: listRegions}},
//	        Action: renderRegion,
//	    }, nil
//	})
//
//	res, err := s.Execute(ctx, "monthly-report", "report", params)
//
// # Architecture
//
// Three subsystems cooperate: the sched package owns job lifecycle,
// time-boxing, checkpoint persistence, and resumption triggers; the stepper
// package turns a declarative levels+action spec into an advance-one-
// combination unit of work; the faults and retry packages classify failures
// and run bounded, backed-off retries independently of budget-driven
// suspension.
//
// All scheduler state lives in a pluggable key-value store (kv package,
// with memory, redis, postgres, sqlite, and mongo backends). Trigger and
// run IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based identifiers.
package stint
