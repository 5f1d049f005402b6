// Package retry runs operations under classification-driven bounded retry
// with backoff. It is independent of the scheduler's budget-driven
// suspension: retries address transient faults, suspension addresses
// budget exhaustion, and the two are never conflated.
//
// Backoff sleeps block the calling goroutine and therefore burn the job's
// own wall-clock budget — an action that retries heavily suspends and
// resumes more often instead of running indefinitely.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stintlabs/stint/backoff"
	"github.com/stintlabs/stint/faults"
)

// Mode controls how aggressively the runner remediates failures.
type Mode string

const (
	// Strict never auto-retries: the first failure is returned as a
	// structured result for the caller to decide on.
	Strict Mode = "strict"
	// Lenient retries retryable failures and allows only non-destructive
	// remediation hooks (default substitution, format conversion).
	Lenient Mode = "lenient"
	// Recovery exercises every remediation hook the caller provides.
	Recovery Mode = "recovery"
)

// Operation is the unit the runner executes and re-executes.
type Operation func(ctx context.Context) (any, error)

// Hooks are caller-provided remediation routines, exercised between
// attempts according to the strategy action and the mode.
type Hooks struct {
	CreateMissingResource func(ctx context.Context) error
	ConvertFormat         func(ctx context.Context) error
	UseDefaults           func(ctx context.Context) error
	SplitOperation        func(ctx context.Context) error
}

// Options configures one Run call.
type Options struct {
	// Operation names the call site for diagnostics and counters.
	Operation string
	// Step names the larger unit of work this call belongs to.
	Step string
	// Mode defaults to Lenient when empty.
	Mode Mode
	// Hooks are the available remediation routines.
	Hooks Hooks
}

// Result is the structured outcome of a Run call. A failed Result always
// carries the classification, attempt count, and remediation suggestions;
// a Critical non-retryable failure is never silently absorbed.
type Result struct {
	Succeeded      bool
	Value          any
	Attempts       int
	Err            error
	Classification faults.Classification
	Suggestions    []string
}

// Emitter receives retry lifecycle events. ext.Registry satisfies this
// interface so extensions observe recoveries and exhaustions.
type Emitter interface {
	EmitRetryRecovered(ctx context.Context, operation string, attempts int)
	EmitRetryExhausted(ctx context.Context, operation string, kind string, attempts int)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithEmitter sets the lifecycle event emitter.
func WithEmitter(e Emitter) Option {
	return func(r *Runner) { r.emitter = e }
}

// WithSleep replaces the delay function. Tests inject a recorder here.
func WithSleep(sleep func(context.Context, time.Duration)) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithStrategy overrides the static strategy for one failure kind.
func WithStrategy(kind faults.Kind, s faults.Strategy) Option {
	return func(r *Runner) { r.overrides[kind] = s }
}

// Runner executes operations under bounded, policy-driven retry.
// Safe for concurrent use.
type Runner struct {
	classifier *faults.Classifier
	overrides  map[faults.Kind]faults.Strategy
	stats      *Stats
	emitter    Emitter
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration)
}

// NewRunner creates a Runner with the default classifier and strategies.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		classifier: faults.NewClassifier(),
		overrides:  make(map[faults.Kind]faults.Strategy),
		stats:      NewStats(),
		logger:     slog.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats returns the runner's per-run counters.
func (r *Runner) Stats() *Stats { return r.stats }

// Run executes op under the retry policy resolved from each failure's
// classification. It returns a structured Result; the error inside is the
// last attempt's error, never a panic.
func (r *Runner) Run(ctx context.Context, op Operation, opts Options) Result {
	mode := opts.Mode
	if mode == "" {
		mode = Lenient
	}

	var (
		lastErr  error
		lastCls  faults.Classification
		attempts int
	)

	for attempt := 1; ; attempt++ {
		attempts = attempt
		value, err := op(ctx)
		if err == nil {
			if attempt >= 2 {
				r.stats.recordRecovered(opts.Operation, opts.Step)
				if r.emitter != nil {
					r.emitter.EmitRetryRecovered(ctx, opts.Operation, attempt)
				}
				r.logger.Info("operation recovered after retry",
					slog.String("operation", opts.Operation),
					slog.Int("attempts", attempt),
				)
			}
			return Result{Succeeded: true, Value: value, Attempts: attempt}
		}

		lastErr = err
		lastCls = r.classifier.Classify(err)
		strat := r.strategyFor(lastCls.Kind)
		r.stats.recordFailure(lastCls.Kind, opts.Operation, opts.Step)

		r.logger.Warn("operation attempt failed",
			slog.String("operation", opts.Operation),
			slog.String("step", opts.Step),
			slog.Int("attempt", attempt),
			slog.String("kind", string(lastCls.Kind)),
			slog.String("severity", string(lastCls.Severity)),
			slog.Bool("retryable", lastCls.Retryable),
			slog.String("error", err.Error()),
		)

		if !r.shouldContinue(ctx, mode, lastCls, strat, opts.Hooks, attempt) {
			break
		}

		if d := r.delayFor(strat, attempt); d > 0 {
			r.sleep(ctx, d)
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
	}

	r.stats.recordUnrecovered(opts.Operation, opts.Step)
	if r.emitter != nil {
		r.emitter.EmitRetryExhausted(ctx, opts.Operation, string(lastCls.Kind), attempts)
	}

	return Result{
		Succeeded:      false,
		Attempts:       attempts,
		Err:            fmt.Errorf("operation %q failed (%s): %w", opts.Operation, lastCls.Kind, lastErr),
		Classification: lastCls,
		Suggestions:    faults.Suggestions(lastCls.Kind),
	}
}

func (r *Runner) strategyFor(kind faults.Kind) faults.Strategy {
	if s, ok := r.overrides[kind]; ok {
		return s
	}
	return faults.StrategyFor(kind)
}

// shouldContinue decides whether another attempt is allowed, based on the
// strategy action, the classification's retryability, and the mode. When
// continuing requires a remediation hook, the hook runs here; a hook
// error stops the retry loop.
func (r *Runner) shouldContinue(
	ctx context.Context,
	mode Mode,
	cls faults.Classification,
	strat faults.Strategy,
	hooks Hooks,
	attempt int,
) bool {
	if mode == Strict {
		return false
	}
	if attempt >= strat.MaxAttempts {
		return false
	}

	switch strat.Action {
	case faults.RetryBackoff, faults.RetryBackoffLong, faults.RetryImmediate:
		return cls.Retryable

	case faults.Escalate, faults.LogOnly:
		return false

	case faults.CreateMissingResource:
		if mode == Recovery && hooks.CreateMissingResource != nil {
			return r.runHook(ctx, "create_missing_resource", hooks.CreateMissingResource)
		}
		return false

	case faults.SplitOperation:
		if mode == Recovery && hooks.SplitOperation != nil {
			return r.runHook(ctx, "split_operation", hooks.SplitOperation)
		}
		// Without a split hook a transient timeout still retries plainly.
		return cls.Retryable

	case faults.ConvertFormat:
		if hooks.ConvertFormat != nil { // non-destructive: allowed in Lenient
			return r.runHook(ctx, "convert_format", hooks.ConvertFormat)
		}
		return false

	case faults.UseDefault:
		if hooks.UseDefaults != nil { // non-destructive: allowed in Lenient
			return r.runHook(ctx, "use_defaults", hooks.UseDefaults)
		}
		return false

	default:
		return cls.Retryable
	}
}

func (r *Runner) runHook(ctx context.Context, name string, hook func(context.Context) error) bool {
	if err := hook(ctx); err != nil {
		r.logger.Warn("remediation hook failed",
			slog.String("hook", name),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// delayFor computes the pre-retry delay from the strategy via the capped
// proportional-jitter policy curve.
func (r *Runner) delayFor(strat faults.Strategy, attempt int) time.Duration {
	if strat.Action == faults.RetryImmediate || strat.InitialDelay <= 0 {
		return 0
	}
	return backoff.NewPolicy(strat.InitialDelay, strat.Multiplier).Delay(attempt)
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
