package retry_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stintlabs/stint/faults"
	"github.com/stintlabs/stint/retry"
)

// sleepRecorder captures requested delays without sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func newRunner(t *testing.T, opts ...retry.Option) (*retry.Runner, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	opts = append(opts, retry.WithSleep(rec.sleep))
	return retry.NewRunner(opts...), rec
}

func failNTimes(n int, msg string, value any) retry.Operation {
	calls := 0
	return func(_ context.Context) (any, error) {
		calls++
		if calls <= n {
			return nil, errors.New(msg)
		}
		return value, nil
	}
}

func TestRun_SucceedsFirstAttempt(t *testing.T) {
	r, rec := newRunner(t)

	res := r.Run(context.Background(), failNTimes(0, "", "done"), retry.Options{Operation: "op"})

	if !res.Succeeded || res.Value != "done" || res.Attempts != 1 {
		t.Errorf("Result = %+v, want success on attempt 1", res)
	}
	if len(rec.delays) != 0 {
		t.Errorf("slept %v, want no sleeps", rec.delays)
	}
}

func TestRun_RecoversAfterTransientFailure(t *testing.T) {
	r, rec := newRunner(t)

	res := r.Run(context.Background(),
		failNTimes(2, "service unavailable", 42),
		retry.Options{Operation: "fetch", Mode: retry.Lenient})

	if !res.Succeeded || res.Attempts != 3 {
		t.Fatalf("Result = %+v, want success on attempt 3", res)
	}
	if len(rec.delays) != 2 {
		t.Errorf("slept %d times, want 2", len(rec.delays))
	}
	if got := r.Stats().Recovered(); got != 1 {
		t.Errorf("Recovered() = %d, want 1", got)
	}
}

func TestRun_StrictNeverRetries(t *testing.T) {
	r, rec := newRunner(t)

	res := r.Run(context.Background(),
		failNTimes(1, "service unavailable", nil),
		retry.Options{Operation: "op", Mode: retry.Strict})

	if res.Succeeded {
		t.Fatal("Strict mode should not retry a failing operation")
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
	if len(rec.delays) != 0 {
		t.Errorf("Strict mode slept %v, want none", rec.delays)
	}
	if res.Classification.Kind != faults.Unavailable {
		t.Errorf("Kind = %v, want %v", res.Classification.Kind, faults.Unavailable)
	}
	if len(res.Suggestions) == 0 {
		t.Error("structured failure should carry suggestions")
	}
}

func TestRun_NonRetryableStopsInLenient(t *testing.T) {
	r, _ := newRunner(t)

	res := r.Run(context.Background(),
		failNTimes(5, "permission denied", nil),
		retry.Options{Operation: "op", Mode: retry.Lenient})

	if res.Succeeded || res.Attempts != 1 {
		t.Errorf("Result = %+v, want single failed attempt", res)
	}
	if res.Classification.Kind != faults.Permission {
		t.Errorf("Kind = %v, want %v", res.Classification.Kind, faults.Permission)
	}
}

func TestRun_ExhaustsMaxAttempts(t *testing.T) {
	r, _ := newRunner(t)

	res := r.Run(context.Background(),
		failNTimes(100, "connection refused", nil),
		retry.Options{Operation: "dial", Mode: retry.Lenient})

	want := faults.StrategyFor(faults.ConnectionFailure).MaxAttempts
	if res.Succeeded || res.Attempts != want {
		t.Errorf("Result = %+v, want exhaustion after %d attempts", res, want)
	}
	if r.Stats().Unrecovered() != 1 {
		t.Errorf("Unrecovered() = %d, want 1", r.Stats().Unrecovered())
	}
	if res.Err == nil {
		t.Error("exhausted Result must carry an error")
	}
}

func TestRun_RecoveryModeUsesCreateMissingHook(t *testing.T) {
	r, _ := newRunner(t)

	created := false
	hooks := retry.Hooks{
		CreateMissingResource: func(_ context.Context) error {
			created = true
			return nil
		},
	}

	res := r.Run(context.Background(),
		failNTimes(1, "folder not found", "ok"),
		retry.Options{Operation: "ensure-folder", Mode: retry.Recovery, Hooks: hooks})

	if !res.Succeeded {
		t.Fatalf("Result = %+v, want recovery success", res)
	}
	if !created {
		t.Error("CreateMissingResource hook was not invoked")
	}
}

func TestRun_LenientRejectsDestructiveHooks(t *testing.T) {
	r, _ := newRunner(t)

	created := false
	hooks := retry.Hooks{
		CreateMissingResource: func(_ context.Context) error {
			created = true
			return nil
		},
	}

	res := r.Run(context.Background(),
		failNTimes(1, "folder not found", "ok"),
		retry.Options{Operation: "ensure-folder", Mode: retry.Lenient, Hooks: hooks})

	if res.Succeeded {
		t.Fatal("Lenient mode must not run create-missing-resource")
	}
	if created {
		t.Error("destructive hook ran in Lenient mode")
	}
}

func TestRun_LenientAllowsDefaultSubstitution(t *testing.T) {
	r, _ := newRunner(t)

	defaulted := false
	hooks := retry.Hooks{
		UseDefaults: func(_ context.Context) error {
			defaulted = true
			return nil
		},
	}

	res := r.Run(context.Background(),
		failNTimes(1, "missing required field 'title'", "ok"),
		retry.Options{Operation: "render", Mode: retry.Lenient, Hooks: hooks})

	if !res.Succeeded || !defaulted {
		t.Errorf("Result = %+v defaulted=%v, want default-substitution recovery", res, defaulted)
	}
}

func TestRun_HookErrorStopsRetrying(t *testing.T) {
	r, _ := newRunner(t)

	hooks := retry.Hooks{
		ConvertFormat: func(_ context.Context) error { return errors.New("cannot convert") },
	}

	res := r.Run(context.Background(),
		failNTimes(5, "parse error in cell B2", nil),
		retry.Options{Operation: "import", Mode: retry.Recovery, Hooks: hooks})

	if res.Succeeded || res.Attempts != 1 {
		t.Errorf("Result = %+v, want stop after failing hook", res)
	}
}

func TestRun_TimeoutFallsBackToPlainRetryWithoutSplitHook(t *testing.T) {
	r, _ := newRunner(t)

	res := r.Run(context.Background(),
		failNTimes(1, "deadline exceeded", "ok"),
		retry.Options{Operation: "export", Mode: retry.Lenient})

	if !res.Succeeded || res.Attempts != 2 {
		t.Errorf("Result = %+v, want plain retry success on attempt 2", res)
	}
}

func TestRun_DelaysStayUnderCap(t *testing.T) {
	r, rec := newRunner(t, retry.WithStrategy(faults.Quota, faults.Strategy{
		Action:       faults.RetryBackoffLong,
		MaxAttempts:  8,
		InitialDelay: 4 * time.Minute,
		Multiplier:   3,
	}))

	r.Run(context.Background(),
		failNTimes(100, "quota exceeded", nil),
		retry.Options{Operation: "op", Mode: retry.Lenient})

	if len(rec.delays) == 0 {
		t.Fatal("expected recorded backoff delays")
	}
	for i, d := range rec.delays {
		if d > 5*time.Minute {
			t.Errorf("delay[%d] = %v, exceeds 5 minute cap", i, d)
		}
	}
}

func TestStats_CountersAndReport(t *testing.T) {
	r, _ := newRunner(t)

	r.Run(context.Background(), failNTimes(100, "quota exceeded", nil),
		retry.Options{Operation: "append", Step: "rows", Mode: retry.Lenient})
	r.Run(context.Background(), failNTimes(1, "network is down", "ok"),
		retry.Options{Operation: "fetch", Step: "rows", Mode: retry.Lenient})

	s := r.Stats()
	if s.ByKind()[faults.Quota] == 0 {
		t.Error("ByKind() missing quota failures")
	}
	if s.ByOperation()["append"] == 0 {
		t.Error("ByOperation() missing append failures")
	}
	if s.ByStep()["rows"] == 0 {
		t.Error("ByStep() missing step failures")
	}
	if s.Recovered() != 1 || s.Unrecovered() != 1 {
		t.Errorf("Recovered/Unrecovered = %d/%d, want 1/1", s.Recovered(), s.Unrecovered())
	}

	report := s.Report()
	for _, want := range []string{"by kind", "quota", "by operation", "append"} {
		if !strings.Contains(report, want) {
			t.Errorf("Report() missing %q:\n%s", want, report)
		}
	}

	s.Reset()
	if s.Total() != 0 || s.Recovered() != 0 || s.Unrecovered() != 0 {
		t.Error("Reset() did not clear counters")
	}
}

type recordingEmitter struct {
	recovered int
	exhausted int
	lastKind  string
}

func (e *recordingEmitter) EmitRetryRecovered(_ context.Context, _ string, _ int) {
	e.recovered++
}

func (e *recordingEmitter) EmitRetryExhausted(_ context.Context, _ string, kind string, _ int) {
	e.exhausted++
	e.lastKind = kind
}

func TestRun_EmitterReceivesLifecycle(t *testing.T) {
	em := &recordingEmitter{}
	r, _ := newRunner(t, retry.WithEmitter(em))

	r.Run(context.Background(), failNTimes(1, "service unavailable", "ok"),
		retry.Options{Operation: "a", Mode: retry.Lenient})
	r.Run(context.Background(), failNTimes(100, "permission denied", nil),
		retry.Options{Operation: "b", Mode: retry.Lenient})

	if em.recovered != 1 {
		t.Errorf("recovered events = %d, want 1", em.recovered)
	}
	if em.exhausted != 1 || em.lastKind != string(faults.Permission) {
		t.Errorf("exhausted events = %d (kind %q), want 1 permission", em.exhausted, em.lastKind)
	}
}
