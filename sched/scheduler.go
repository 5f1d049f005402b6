package sched

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/stintlabs/stint"
	"github.com/stintlabs/stint/checkpoint"
	"github.com/stintlabs/stint/ext"
	"github.com/stintlabs/stint/id"
	"github.com/stintlabs/stint/kv"
	"github.com/stintlabs/stint/middleware"
	"github.com/stintlabs/stint/retry"
	"github.com/stintlabs/stint/stepper"
	"github.com/stintlabs/stint/timer"
)

// ResumeEntryPoint is the timer entry-point name the scheduler binds
// its resumption handler to.
const ResumeEntryPoint = "stint.resume"

// State is a job's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateResumable State = "resumable"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Rehydrator re-attaches process-local collaborators to params on
// resumption, after the sanitized params were reloaded from the store.
type Rehydrator func(ctx context.Context, name string, params stint.Params) error

// entryPointRegistrar is satisfied by timer.Memory; when the timer
// backend supports it, the scheduler auto-registers its resume handler.
type entryPointRegistrar interface {
	RegisterEntryPoint(name string, h timer.Handler)
}

// Result is the outcome of one Execute or Resume invocation.
type Result struct {
	// Suspended is true when the budget ran out before completion; a
	// resumption trigger has been scheduled.
	Suspended bool

	// TriggerID identifies the pending resumption trigger when
	// Suspended.
	TriggerID id.TriggerID

	// RunID identifies this invocation. Every Execute and Resume call
	// gets a fresh one.
	RunID id.RunID

	// Summary is the final action's return value on completion.
	Summary any

	// Outcomes holds one entry per combination attempted so far.
	Outcomes []checkpoint.Outcome

	Processed int
	Total     int
	Failed    int
	Percent   float64
}

// Status is a read-only lifecycle and progress projection.
type Status struct {
	State     State
	Percent   float64
	Processed int
	Total     int
	Failed    int

	// TriggerID is set while a resumption trigger is pending.
	TriggerID id.TriggerID

	// LastRunID identifies the most recent invocation that drove the
	// job.
	LastRunID id.RunID
}

// progressRecord is the persisted shape behind the progress key.
type progressRecord struct {
	Percent   float64 `json:"percent"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Failed    int     `json:"failed"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithConfig overrides the default budget and resume delay.
func WithConfig(cfg stint.Config) Option {
	return func(s *Scheduler) { s.cfg = cfg }
}

// WithExtensions sets the lifecycle extension registry.
func WithExtensions(r *ext.Registry) Option {
	return func(s *Scheduler) { s.exts = r }
}

// WithRetry wraps every combination action in the retry runner.
func WithRetry(r *retry.Runner, mode retry.Mode) Option {
	return func(s *Scheduler) {
		s.retrier = r
		s.retryMode = mode
	}
}

// WithMiddleware installs the combination middleware chain, outermost
// first.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(s *Scheduler) { s.mws = mws }
}

// WithClock replaces the wall clock. Tests inject a fake clock to make
// budget exhaustion deterministic.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithRateLimit throttles advances through the given limiter, for
// actions against quota-constrained services.
func WithRateLimit(l *rate.Limiter) Option {
	return func(s *Scheduler) { s.limiter = l }
}

// WithRehydrator installs the collaborator rehydration callback used
// by Resume.
func WithRehydrator(f Rehydrator) Option {
	return func(s *Scheduler) { s.rehydrate = f }
}

// Scheduler drives registered job types under a wall-clock budget.
type Scheduler struct {
	store     kv.Store
	guard     kv.Guard
	timers    timer.Scheduler
	registry  *Registry
	cfg       stint.Config
	logger    *slog.Logger
	exts      *ext.Registry
	retrier   *retry.Runner
	retryMode retry.Mode
	mws       []middleware.Middleware
	limiter   *rate.Limiter
	rehydrate Rehydrator
	now       func() time.Time
}

// New creates a Scheduler on the given store and trigger scheduler.
// When the store implements kv.Guard the overlap guard is atomic;
// otherwise it degrades to a best-effort check-then-set. When the
// timer backend supports entry-point registration, the scheduler's
// resumption handler is registered automatically.
func New(store kv.Store, timers timer.Scheduler, opts ...Option) (*Scheduler, error) {
	if store == nil {
		return nil, stint.ErrNoStore
	}
	if timers == nil {
		return nil, stint.ErrNoTimer
	}

	s := &Scheduler{
		store:    store,
		timers:   timers,
		registry: NewRegistry(),
		cfg:      stint.DefaultConfig(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.exts == nil {
		s.exts = ext.NewRegistry(s.logger)
	}
	s.guard, _ = store.(kv.Guard)

	if reg, ok := timers.(entryPointRegistrar); ok {
		reg.RegisterEntryPoint(ResumeEntryPoint, s.TriggerHandler())
	}
	return s, nil
}

// RegisterType binds a job type to its spec builder. Idempotent; last
// registration wins. Must run at the start of every process entry
// point, since registrations are process-local.
func (s *Scheduler) RegisterType(typ string, build SpecFunc) {
	s.registry.Register(Definition{Type: typ, Build: build})
}

// TriggerHandler returns the timer.Handler that resumes jobs from
// trigger callbacks. Backends without automatic registration bind it
// to ResumeEntryPoint themselves.
func (s *Scheduler) TriggerHandler() timer.Handler {
	return func(ctx context.Context, triggerID id.TriggerID) {
		if _, err := s.HandleTrigger(ctx, triggerID); err != nil {
			s.logger.Error("trigger resumption failed",
				slog.String("trigger_id", triggerID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// ExecOption configures one Execute call.
type ExecOption func(*execOptions)

type execOptions struct {
	forceRestart bool
}

// WithForceRestart wipes all prior state for the job name before
// executing, including any pending resumption trigger.
func WithForceRestart() ExecOption {
	return func(o *execOptions) { o.forceRestart = true }
}

// Execute runs the named job of the given type until completion or
// budget exhaustion. It returns stint.ErrJobBusy when another
// invocation holds the name, and stint.ErrTypeNotRegistered when the
// type has no builder in this process.
func (s *Scheduler) Execute(ctx context.Context, name, typ string, params stint.Params, opts ...ExecOption) (*Result, error) {
	var eo execOptions
	for _, o := range opts {
		o(&eo)
	}

	if eo.forceRestart {
		if err := s.ResetState(ctx, name); err != nil {
			return nil, fmt.Errorf("force restart %q: %w", name, err)
		}
	}

	if err := s.acquireRunning(ctx, name); err != nil {
		return nil, err
	}

	run := id.NewRunID()
	if err := s.store.Set(ctx, keyRun(name), run.String()); err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("persist run: %w", err))
	}

	// Everything below runs with the Running state held; unhandled
	// errors transition to Failed and propagate.
	var cp *checkpoint.Checkpoint
	if !eo.forceRestart {
		encoded, err := s.store.Get(ctx, keyCheckpoint(name))
		switch {
		case err == nil:
			cp, err = checkpoint.Decode(encoded)
			if err != nil {
				return nil, s.fail(ctx, name, fmt.Errorf("restore checkpoint: %w", err))
			}
		case !errors.Is(err, kv.ErrNotFound):
			return nil, s.fail(ctx, name, fmt.Errorf("load checkpoint: %w", err))
		}
	}

	if err := s.persistIdentity(ctx, name, typ, params); err != nil {
		return nil, s.fail(ctx, name, err)
	}

	def, ok := s.registry.Lookup(typ)
	if !ok {
		return nil, s.fail(ctx, name, fmt.Errorf("%w: %q", stint.ErrTypeNotRegistered, typ))
	}

	spec, err := def.Build(ctx, params, cp)
	if err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("build spec for %q: %w", typ, err))
	}

	st, err := stepper.New(ctx, *spec, params, cp,
		stepper.WithActionWrapper(s.wrapAction(name, typ)))
	if err != nil {
		return nil, s.fail(ctx, name, err)
	}

	resumed := cp != nil
	s.exts.EmitJobStarted(ctx, name, typ, resumed)
	s.logger.Info("job running",
		slog.String("job", name),
		slog.String("type", typ),
		slog.String("run_id", run.String()),
		slog.Bool("resumed", resumed),
		slog.Int("processed", st.Processed()),
		slog.Int("total", st.Total()),
	)

	start := s.now()
	lastCP := cp

	for {
		if s.now().Sub(start) >= s.cfg.Budget {
			return s.suspend(ctx, name, run, st, lastCP)
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, s.fail(ctx, name, err)
			}
		}

		p, err := st.Advance(ctx)
		if err != nil {
			return nil, s.fail(ctx, name, err)
		}
		lastCP = p.Checkpoint

		if p.Current != nil {
			if p.LastErr != nil {
				s.exts.EmitCombinationFailed(ctx, name, p.Processed-1, p.LastErr)
			} else {
				s.exts.EmitCombinationDone(ctx, name, p.Processed-1, p.Total)
			}
		}

		if p.Done {
			return s.complete(ctx, name, run, start, p)
		}

		// Write-through: the checkpoint hits the store after every
		// advance so a crash loses at most one combination's work.
		if err := s.persistProgress(ctx, name, p); err != nil {
			return nil, s.fail(ctx, name, err)
		}
	}
}

// Resume reloads the persisted type and params for a suspended job,
// rehydrates collaborators, consumes the pending trigger record, and
// continues execution from the persisted checkpoint.
func (s *Scheduler) Resume(ctx context.Context, name string) (*Result, error) {
	typ, err := s.store.Get(ctx, keyType(name))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", stint.ErrJobNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load type for %q: %w", name, err)
	}

	params := stint.Params{}
	if raw, err := s.store.Get(ctx, keyParams(name)); err == nil {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return nil, fmt.Errorf("decode params for %q: %w", name, err)
		}
	} else if !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("load params for %q: %w", name, err)
	}

	if s.rehydrate != nil {
		if err := s.rehydrate(ctx, name, params); err != nil {
			return nil, fmt.Errorf("rehydrate %q: %w", name, err)
		}
	}

	if err := s.clearTrigger(ctx, name); err != nil {
		return nil, err
	}

	return s.Execute(ctx, name, typ, params)
}

// HandleTrigger resolves a fired trigger back to its job name and
// resumes that job. It is the resumption entry point's core.
func (s *Scheduler) HandleTrigger(ctx context.Context, triggerID id.TriggerID) (*Result, error) {
	name, err := s.store.Get(ctx, keyTriggerJob(triggerID.String()))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", stint.ErrTriggerNotFound, triggerID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve trigger %s: %w", triggerID, err)
	}
	return s.Resume(ctx, name)
}

// ResumeAll scans the job index and resumes every Resumable job
// concurrently. Call it on process startup to recover jobs whose
// triggers were lost to a crash.
func (s *Scheduler) ResumeAll(ctx context.Context) error {
	names, err := s.listJobs(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			state, err := s.store.Get(ctx, keyLifecycle(name))
			if errors.Is(err, kv.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read state for %q: %w", name, err)
			}
			if State(state) != StateResumable {
				return nil
			}
			s.logger.Info("recovering resumable job", slog.String("job", name))
			_, err = s.Resume(ctx, name)
			if errors.Is(err, stint.ErrJobBusy) {
				// Another entry point picked it up first.
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// ResetState deletes every persisted key for the job and cancels any
// pending resumption trigger. Used by force-restart and by operator
// intervention on a stuck job.
func (s *Scheduler) ResetState(ctx context.Context, name string) error {
	if err := s.clearTrigger(ctx, name); err != nil {
		return err
	}
	for _, key := range []string{
		keyLifecycle(name),
		keyType(name),
		keyParams(name),
		keyCheckpoint(name),
		keyProgress(name),
		keyRun(name),
	} {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("reset %q: %w", name, err)
		}
	}
	return s.removeFromIndex(ctx, name)
}

// Status returns the lifecycle state and last persisted progress.
// A job completing with per-combination failures still reports
// Completed; check Failed for the count.
func (s *Scheduler) Status(ctx context.Context, name string) (*Status, error) {
	state, err := s.store.Get(ctx, keyLifecycle(name))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", stint.ErrJobNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read state for %q: %w", name, err)
	}

	st := &Status{State: State(state)}

	if raw, err := s.store.Get(ctx, keyProgress(name)); err == nil {
		var rec progressRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode progress for %q: %w", name, err)
		}
		st.Percent = rec.Percent
		st.Processed = rec.Processed
		st.Total = rec.Total
		st.Failed = rec.Failed
	} else if !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("read progress for %q: %w", name, err)
	}

	if raw, err := s.store.Get(ctx, keyTrigger(name)); err == nil {
		trg, err := id.ParseTriggerID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse trigger for %q: %w", name, err)
		}
		st.TriggerID = trg
	} else if !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("read trigger for %q: %w", name, err)
	}

	if raw, err := s.store.Get(ctx, keyRun(name)); err == nil {
		run, err := id.ParseRunID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse run for %q: %w", name, err)
		}
		st.LastRunID = run
	} else if !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("read run for %q: %w", name, err)
	}

	return st, nil
}

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

// acquireRunning is the overlap guard: at most one invocation per name
// holds Running. Atomic through kv.Guard when the backend provides it,
// best-effort check-then-set otherwise.
func (s *Scheduler) acquireRunning(ctx context.Context, name string) error {
	key := keyLifecycle(name)

	current, err := s.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		current = ""
	} else if err != nil {
		return fmt.Errorf("read state for %q: %w", name, err)
	}
	if State(current) == StateRunning {
		return fmt.Errorf("%w: %q", stint.ErrJobBusy, name)
	}

	if s.guard != nil {
		ok, err := s.guard.CompareAndSwap(ctx, key, current, string(StateRunning))
		if err != nil {
			return fmt.Errorf("acquire %q: %w", name, err)
		}
		if !ok {
			return fmt.Errorf("%w: %q", stint.ErrJobBusy, name)
		}
		return nil
	}

	if err := s.store.Set(ctx, key, string(StateRunning)); err != nil {
		return fmt.Errorf("acquire %q: %w", name, err)
	}
	return nil
}

// persistIdentity stores what a future resumption entry point needs:
// the job type, the sanitized params, and index membership.
func (s *Scheduler) persistIdentity(ctx context.Context, name, typ string, params stint.Params) error {
	if err := s.store.Set(ctx, keyType(name), typ); err != nil {
		return fmt.Errorf("persist type: %w", err)
	}
	raw, err := json.Marshal(params.Sanitize())
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	if err := s.store.Set(ctx, keyParams(name), string(raw)); err != nil {
		return fmt.Errorf("persist params: %w", err)
	}
	return s.addToIndex(ctx, name)
}

func (s *Scheduler) persistProgress(ctx context.Context, name string, p *stepper.Progress) error {
	encoded, err := p.Checkpoint.Encode()
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, keyCheckpoint(name), encoded); err != nil {
		return fmt.Errorf("persist checkpoint: %w", err)
	}
	rec, err := json.Marshal(progressRecord{
		Percent:   p.Percent,
		Processed: p.Processed,
		Total:     p.Total,
		Failed:    p.Failed,
	})
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := s.store.Set(ctx, keyProgress(name), string(rec)); err != nil {
		return fmt.Errorf("persist progress: %w", err)
	}
	return nil
}

// suspend persists the last checkpoint, transitions to Resumable, and
// arms the one-shot resumption trigger with a bidirectional record.
func (s *Scheduler) suspend(ctx context.Context, name string, run id.RunID, st *stepper.Stepper, lastCP *checkpoint.Checkpoint) (*Result, error) {
	if lastCP != nil {
		encoded, err := lastCP.Encode()
		if err != nil {
			return nil, s.fail(ctx, name, err)
		}
		if err := s.store.Set(ctx, keyCheckpoint(name), encoded); err != nil {
			return nil, s.fail(ctx, name, fmt.Errorf("persist checkpoint: %w", err))
		}
	}

	if err := s.store.Set(ctx, keyLifecycle(name), string(StateResumable)); err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("persist state: %w", err))
	}

	trg, err := s.timers.Schedule(ctx, ResumeEntryPoint, s.cfg.ResumeDelay)
	if err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("schedule trigger: %w", err))
	}
	if err := s.store.Set(ctx, keyTrigger(name), trg.String()); err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("persist trigger: %w", err))
	}
	if err := s.store.Set(ctx, keyTriggerJob(trg.String()), name); err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("persist trigger link: %w", err))
	}

	res := &Result{
		Suspended: true,
		TriggerID: trg,
		RunID:     run,
		Processed: st.Processed(),
		Total:     st.Total(),
		Failed:    lastCP.FailedCount(),
	}
	if lastCP != nil {
		res.Outcomes = lastCP.Outcomes
		res.Percent = lastCP.Percent
	}

	s.exts.EmitTriggerScheduled(ctx, name, trg, s.cfg.ResumeDelay)
	s.exts.EmitJobSuspended(ctx, name, lastCP, trg)
	s.logger.Info("job suspended on budget exhaustion",
		slog.String("job", name),
		slog.String("trigger_id", trg.String()),
		slog.Int("processed", res.Processed),
		slog.Int("total", res.Total),
	)
	return res, nil
}

// complete transitions to Completed, clears the checkpoint, and
// reports the final result.
func (s *Scheduler) complete(ctx context.Context, name string, run id.RunID, start time.Time, p *stepper.Progress) (*Result, error) {
	if err := s.store.Set(ctx, keyLifecycle(name), string(StateCompleted)); err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("persist state: %w", err))
	}
	if err := s.store.Delete(ctx, keyCheckpoint(name)); err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("clear checkpoint: %w", err))
	}
	rec, err := json.Marshal(progressRecord{
		Percent:   100,
		Processed: p.Processed,
		Total:     p.Total,
		Failed:    p.Failed,
	})
	if err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("encode progress: %w", err))
	}
	if err := s.store.Set(ctx, keyProgress(name), string(rec)); err != nil {
		return nil, s.fail(ctx, name, fmt.Errorf("persist progress: %w", err))
	}
	if err := s.clearTrigger(ctx, name); err != nil {
		return nil, err
	}

	elapsed := s.now().Sub(start)
	s.exts.EmitJobCompleted(ctx, name, elapsed, p.Processed, p.Failed)
	s.logger.Info("job completed",
		slog.String("job", name),
		slog.Duration("elapsed", elapsed),
		slog.Int("processed", p.Processed),
		slog.Int("failed", p.Failed),
	)

	return &Result{
		RunID:     run,
		Summary:   p.Summary,
		Outcomes:  p.Outcomes,
		Processed: p.Processed,
		Total:     p.Total,
		Failed:    p.Failed,
		Percent:   100,
	}, nil
}

// fail transitions to Failed, clears the checkpoint per the terminal
// state invariant, and returns the original error for propagation.
func (s *Scheduler) fail(ctx context.Context, name string, cause error) error {
	if err := s.store.Set(ctx, keyLifecycle(name), string(StateFailed)); err != nil {
		s.logger.Error("persist failed state",
			slog.String("job", name),
			slog.String("error", err.Error()),
		)
	}
	if err := s.store.Delete(ctx, keyCheckpoint(name)); err != nil {
		s.logger.Error("clear checkpoint on failure",
			slog.String("job", name),
			slog.String("error", err.Error()),
		)
	}
	s.exts.EmitJobFailed(ctx, name, cause)
	s.logger.Error("job failed",
		slog.String("job", name),
		slog.String("error", cause.Error()),
	)
	return cause
}

// clearTrigger cancels a pending trigger and removes both directions
// of the trigger record. Missing records are not an error.
func (s *Scheduler) clearTrigger(ctx context.Context, name string) error {
	raw, err := s.store.Get(ctx, keyTrigger(name))
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read trigger for %q: %w", name, err)
	}

	trg, err := id.ParseTriggerID(raw)
	if err != nil {
		return fmt.Errorf("parse trigger for %q: %w", name, err)
	}

	// The trigger may already have fired; that is fine.
	if err := s.timers.Cancel(ctx, trg); err != nil && !errors.Is(err, stint.ErrTriggerNotFound) {
		return fmt.Errorf("cancel trigger for %q: %w", name, err)
	}
	if err := s.store.Delete(ctx, keyTrigger(name)); err != nil {
		return fmt.Errorf("delete trigger for %q: %w", name, err)
	}
	if err := s.store.Delete(ctx, keyTriggerJob(trg.String())); err != nil {
		return fmt.Errorf("delete trigger link for %q: %w", name, err)
	}

	s.exts.EmitTriggerCancelled(ctx, name, trg)
	return nil
}

// wrapAction builds the stepper action wrapper: middleware around the
// retry runner around the raw action.
func (s *Scheduler) wrapAction(name, typ string) stepper.Wrapper {
	chain := middleware.Chain(s.mws...)

	return func(ctx context.Context, combo checkpoint.Combination, index, total int, invoke stepper.Invoker) (any, error) {
		var value any
		handler := func(ctx context.Context) error {
			if s.retrier == nil {
				v, err := invoke(ctx)
				if err != nil {
					return err
				}
				value = v
				return nil
			}
			res := s.retrier.Run(ctx, retry.Operation(invoke), retry.Options{
				Operation: name,
				Step:      typ,
				Mode:      s.retryMode,
			})
			if !res.Succeeded {
				return res.Err
			}
			value = res.Value
			return nil
		}

		attempt := &middleware.Attempt{
			Job:         name,
			Type:        typ,
			Index:       index,
			Total:       total,
			Combination: combo,
		}
		if err := chain(ctx, attempt, handler); err != nil {
			return nil, err
		}
		return value, nil
	}
}

// ──────────────────────────────────────────────────
// Job index
// ──────────────────────────────────────────────────

func (s *Scheduler) listJobs(ctx context.Context) ([]string, error) {
	raw, err := s.store.Get(ctx, keyJobIndex)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read job index: %w", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("decode job index: %w", err)
	}
	return names, nil
}

func (s *Scheduler) addToIndex(ctx context.Context, name string) error {
	names, err := s.listJobs(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	raw, err := json.Marshal(append(names, name))
	if err != nil {
		return fmt.Errorf("encode job index: %w", err)
	}
	return s.store.Set(ctx, keyJobIndex, string(raw))
}

func (s *Scheduler) removeFromIndex(ctx context.Context, name string) error {
	names, err := s.listJobs(ctx)
	if err != nil {
		return err
	}
	kept := names[:0]
	for _, n := range names {
		if n != name {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(names) {
		return nil
	}
	raw, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("encode job index: %w", err)
	}
	return s.store.Set(ctx, keyJobIndex, string(raw))
}
