// Package stepper turns a declarative iteration spec into a pausable
// unit of work. A Stepper owns one integer cursor per level and exposes
// a single operation, Advance, which processes exactly one combination
// and reports progress. The cursors and accumulated outcomes snapshot
// into a checkpoint after every advance, so a run can stop between any
// two combinations and continue later without repeating or skipping
// work.
package stepper

import (
	"context"
	"fmt"
	"time"

	"github.com/stintlabs/stint"
	"github.com/stintlabs/stint/checkpoint"
)

// Phase identifies where in the stepper lifecycle an error surfaced.
type Phase string

const (
	// PhaseInit covers candidate listing during construction.
	PhaseInit Phase = "init"
	// PhaseAction covers per-combination action invocations.
	PhaseAction Phase = "action"
	// PhaseFinal covers the final aggregation action.
	PhaseFinal Phase = "final"
)

// Level describes one axis of the iteration space.
type Level struct {
	// Name identifies the level. Names must be unique within a spec.
	Name string

	// Candidates lists the level's elements. It is called exactly once
	// at construction time; on resumption the restored checkpoint is
	// passed so listers can reproduce the original source order.
	Candidates func(ctx context.Context, params stint.Params, resume *checkpoint.Checkpoint) ([]any, error)

	// Filter, when set, drops elements before the level is sized.
	Filter func(element any, params stint.Params) bool
}

// Spec is the declarative description a job type provides.
type Spec struct {
	// Levels define the iteration space, slowest-varying first.
	Levels []Level

	// Action runs once per combination.
	Action func(ctx context.Context, combo checkpoint.Combination, params stint.Params) (any, error)

	// OnFinal, when set, aggregates all outcomes after the last
	// combination. Its return value becomes the run summary.
	OnFinal func(ctx context.Context, outcomes []checkpoint.Outcome, params stint.Params) (any, error)

	// OnError, when set, observes errors as they happen. It cannot
	// alter control flow.
	OnError func(err error, phase Phase, combo *checkpoint.Combination)
}

// Progress is the result of one Advance call.
type Progress struct {
	// Done is true once every combination has been processed and the
	// final action (if any) has run.
	Done bool

	// Checkpoint snapshots cursors and outcomes after this advance.
	Checkpoint *checkpoint.Checkpoint

	// Outcomes holds one entry per combination attempted so far.
	Outcomes []checkpoint.Outcome

	// Current is the combination processed by this advance, nil on
	// the finalizing call of an empty iteration space.
	Current *checkpoint.Combination

	Processed int
	Total     int
	Percent   float64

	// Failed counts combinations whose action returned an error.
	Failed int

	// LastErr is the action error from this advance, nil on success.
	LastErr error

	// Summary carries the final action's return value when Done.
	Summary any
}

// Invoker runs the underlying action for one combination.
type Invoker func(ctx context.Context) (any, error)

// Wrapper interposes on every action invocation. The scheduler uses
// this seam to add middleware and retry without the spec knowing.
type Wrapper func(ctx context.Context, combo checkpoint.Combination, index, total int, invoke Invoker) (any, error)

// Option configures a Stepper.
type Option func(*Stepper)

// WithActionWrapper installs a wrapper around every action invocation.
func WithActionWrapper(w Wrapper) Option {
	return func(s *Stepper) { s.wrap = w }
}

type level struct {
	name     string
	elements []any
}

// Stepper iterates a combination space one advance at a time.
// Not safe for concurrent use; a job runs on one goroutine.
type Stepper struct {
	spec     Spec
	params   stint.Params
	levels   []level
	cursors  []int
	outcomes []checkpoint.Outcome
	total    int
	failed   int
	done     bool
	summary  any
	wrap     Wrapper
}

// New validates the spec, lists and filters every level's candidates,
// and restores cursors and outcomes from resume when present.
//
// A restored cursor must address the same iteration space it was taken
// from: a level that shrank fails fast with stint.ErrStaleCheckpoint
// rather than silently skipping or repeating combinations. Growth is
// accepted only in the first (slowest-varying) level, where new
// elements extend the unvisited suffix; growth in any later level
// changes the odometer stride and would re-process visited
// combinations, so it fails fast too.
func New(ctx context.Context, spec Spec, params stint.Params, resume *checkpoint.Checkpoint, opts ...Option) (*Stepper, error) {
	if len(spec.Levels) == 0 {
		return nil, stint.ErrNoLevels
	}
	if spec.Action == nil {
		return nil, stint.ErrNoAction
	}

	seen := make(map[string]bool, len(spec.Levels))
	for _, l := range spec.Levels {
		if l.Name == "" || seen[l.Name] {
			return nil, fmt.Errorf("%w: %q", stint.ErrLevelName, l.Name)
		}
		seen[l.Name] = true
		if l.Candidates == nil {
			return nil, fmt.Errorf("%w: level %q", stint.ErrNoCandidate, l.Name)
		}
	}

	s := &Stepper{
		spec:    spec,
		params:  params,
		levels:  make([]level, 0, len(spec.Levels)),
		cursors: make([]int, len(spec.Levels)),
	}
	for _, o := range opts {
		o(s)
	}

	s.total = 1
	for _, l := range spec.Levels {
		els, err := l.Candidates(ctx, params, resume)
		if err != nil {
			s.observe(err, PhaseInit, nil)
			return nil, fmt.Errorf("list candidates for level %q: %w", l.Name, err)
		}
		if l.Filter != nil {
			kept := els[:0]
			for _, el := range els {
				if l.Filter(el, params) {
					kept = append(kept, el)
				}
			}
			els = kept
		}
		s.levels = append(s.levels, level{name: l.Name, elements: els})
		s.total *= len(els)
	}

	if resume != nil {
		for i, l := range s.levels {
			cur, ok := resume.Cursor(l.name)
			if !ok {
				continue
			}
			if cur.Count > 0 && len(l.elements) < cur.Count {
				return nil, fmt.Errorf("%w: level %q shrank from %d to %d candidates",
					stint.ErrStaleCheckpoint, l.name, cur.Count, len(l.elements))
			}
			if cur.Count > 0 && len(l.elements) > cur.Count && i > 0 {
				return nil, fmt.Errorf("%w: level %q grew from %d to %d candidates mid-run",
					stint.ErrStaleCheckpoint, l.name, cur.Count, len(l.elements))
			}
			if cur.Index < 0 || cur.Index >= len(l.elements) {
				return nil, fmt.Errorf("%w: level %q cursor %d, %d candidates",
					stint.ErrStaleCheckpoint, l.name, cur.Index, len(l.elements))
			}
			s.cursors[i] = cur.Index
		}
		s.outcomes = append(s.outcomes, resume.Outcomes...)
		for _, o := range resume.Outcomes {
			if o.Failed() {
				s.failed++
			}
		}

		// The odometer position and the outcome count must agree, or
		// Advance would re-process visited combinations. Position zero
		// with a full outcome list is a completed run whose cursors
		// wrapped; that resumes straight into finalization.
		pos := 0
		for i, l := range s.levels {
			pos = pos*len(l.elements) + s.cursors[i]
		}
		if pos != len(s.outcomes) && (pos != 0 || len(s.outcomes) != s.total) {
			return nil, fmt.Errorf("%w: cursor position %d does not match %d recorded outcomes",
				stint.ErrStaleCheckpoint, pos, len(s.outcomes))
		}
	}

	return s, nil
}

// Total returns the size of the filtered iteration space.
func (s *Stepper) Total() int { return s.total }

// Processed returns the number of combinations attempted so far.
func (s *Stepper) Processed() int { return len(s.outcomes) }

// Advance processes the next combination and reports progress. An
// action error is recorded in the combination's outcome and iteration
// continues; one failing combination never aborts the run. The advance
// that exhausts the space also runs the final action and returns Done.
// Calling Advance after Done returns the completed progress again.
func (s *Stepper) Advance(ctx context.Context) (*Progress, error) {
	if s.done {
		return s.progress(nil, nil), nil
	}
	if len(s.outcomes) >= s.total {
		// Empty space, or a restored checkpoint that already covered
		// every combination. Finalize without touching the action.
		if err := s.finalize(ctx); err != nil {
			return nil, err
		}
		return s.progress(nil, nil), nil
	}

	combo := s.current()
	index := len(s.outcomes)

	invoke := func(ctx context.Context) (any, error) {
		return s.spec.Action(ctx, combo, s.params)
	}
	var value any
	var err error
	if s.wrap != nil {
		value, err = s.wrap(ctx, combo, index, s.total, invoke)
	} else {
		value, err = invoke(ctx)
	}

	out := checkpoint.Outcome{At: time.Now().UTC(), Combination: combo}
	if err != nil {
		out.Error = err.Error()
		s.failed++
		s.observe(err, PhaseAction, &combo)
	} else {
		out.Value = value
	}
	s.outcomes = append(s.outcomes, out)
	s.increment()

	if len(s.outcomes) >= s.total {
		if ferr := s.finalize(ctx); ferr != nil {
			return nil, ferr
		}
	}
	return s.progress(&combo, err), nil
}

// current assembles the combination the cursors point at.
func (s *Stepper) current() checkpoint.Combination {
	c := checkpoint.Combination{
		Levels:   make([]string, len(s.levels)),
		Indexes:  make([]int, len(s.levels)),
		Elements: make([]any, len(s.levels)),
	}
	for i, l := range s.levels {
		c.Levels[i] = l.name
		c.Indexes[i] = s.cursors[i]
		c.Elements[i] = l.elements[s.cursors[i]]
	}
	return c
}

// increment advances the cursors odometer-style, last level fastest.
func (s *Stepper) increment() {
	for i := len(s.cursors) - 1; i >= 0; i-- {
		s.cursors[i]++
		if s.cursors[i] < len(s.levels[i].elements) {
			return
		}
		s.cursors[i] = 0
	}
}

func (s *Stepper) finalize(ctx context.Context) error {
	if s.spec.OnFinal != nil {
		summary, err := s.spec.OnFinal(ctx, s.outcomes, s.params)
		if err != nil {
			s.observe(err, PhaseFinal, nil)
			return fmt.Errorf("final action: %w", err)
		}
		s.summary = summary
	}
	s.done = true
	return nil
}

func (s *Stepper) observe(err error, phase Phase, combo *checkpoint.Combination) {
	if s.spec.OnError != nil {
		s.spec.OnError(err, phase, combo)
	}
}

func (s *Stepper) progress(current *checkpoint.Combination, lastErr error) *Progress {
	p := &Progress{
		Done:      s.done,
		Outcomes:  s.outcomes,
		Current:   current,
		Processed: len(s.outcomes),
		Total:     s.total,
		Failed:    s.failed,
		LastErr:   lastErr,
		Summary:   s.summary,
	}
	if s.done {
		p.Percent = 100
	} else if s.total > 0 {
		p.Percent = float64(len(s.outcomes)) / float64(s.total) * 100
	}
	p.Checkpoint = s.snapshot(p.Percent)
	return p
}

// snapshot captures cursors and outcomes as plain checkpoint data.
func (s *Stepper) snapshot(percent float64) *checkpoint.Checkpoint {
	cp := &checkpoint.Checkpoint{
		Cursors:  make([]checkpoint.Cursor, len(s.levels)),
		Outcomes: s.outcomes,
		Percent:  percent,
	}
	for i, l := range s.levels {
		cp.Cursors[i] = checkpoint.Cursor{
			Level: l.name,
			Index: s.cursors[i],
			Count: len(l.elements),
		}
	}
	return cp
}
