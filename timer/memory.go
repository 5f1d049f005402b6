package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/stintlabs/stint"
	"github.com/stintlabs/stint/id"
)

// Compile-time interface check.
var _ Scheduler = (*Memory)(nil)

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// Memory is an in-process trigger scheduler built on time.AfterFunc,
// with optional recurring entry-point schedules driven by robfig/cron.
// It is the right choice when the process that suspends a job is also
// the process that resumes it.
type Memory struct {
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	pending  map[string]*time.Timer
	cron     *cronlib.Cron
	stopped  bool
}

// MemoryOption configures a Memory scheduler.
type MemoryOption func(*Memory)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) MemoryOption {
	return func(m *Memory) { m.logger = l }
}

// NewMemory creates an in-process trigger scheduler.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		logger:   slog.Default(),
		handlers: make(map[string]Handler),
		pending:  make(map[string]*time.Timer),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// RegisterEntryPoint binds a handler to an entry-point name. Must be
// called before any trigger for that entry point fires; registrations
// are process-local, so every process entry point re-registers.
func (m *Memory) RegisterEntryPoint(name string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[name] = h
}

// Schedule implements Scheduler.
func (m *Memory) Schedule(_ context.Context, entryPoint string, delay time.Duration) (id.TriggerID, error) {
	trg := id.NewTriggerID()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return id.Nil, fmt.Errorf("timer: scheduler stopped")
	}

	key := trg.String()
	m.pending[key] = time.AfterFunc(delay, func() {
		m.fire(entryPoint, trg)
	})

	m.logger.Debug("trigger scheduled",
		slog.String("trigger_id", key),
		slog.String("entry_point", entryPoint),
		slog.Duration("delay", delay),
	)
	return trg, nil
}

// Cancel implements Scheduler.
func (m *Memory) Cancel(_ context.Context, triggerID id.TriggerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := triggerID.String()
	t, ok := m.pending[key]
	if !ok {
		return stint.ErrTriggerNotFound
	}
	t.Stop()
	delete(m.pending, key)
	return nil
}

// ScheduleRecurring arms a recurring entry-point invocation on a cron
// expression (standard 5-field, or descriptors like "@every 10m").
// Each fire invokes the entry point with a fresh trigger ID. The
// returned ID cancels the schedule via CancelRecurring.
func (m *Memory) ScheduleRecurring(entryPoint, expr string) (cronlib.EntryID, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("timer: parse schedule %q: %w", expr, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return 0, fmt.Errorf("timer: scheduler stopped")
	}
	if m.cron == nil {
		m.cron = cronlib.New(cronlib.WithParser(cronParser))
		m.cron.Start()
	}

	entryID := m.cron.Schedule(sched, cronlib.FuncJob(func() {
		m.fire(entryPoint, id.NewTriggerID())
	}))

	m.logger.Debug("recurring schedule armed",
		slog.String("entry_point", entryPoint),
		slog.String("schedule", expr),
	)
	return entryID, nil
}

// CancelRecurring removes a recurring schedule.
func (m *Memory) CancelRecurring(entryID cronlib.EntryID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cron != nil {
		m.cron.Remove(entryID)
	}
}

// Stop disarms all pending one-shot triggers and stops the recurring
// runner. Triggers already in flight finish.
func (m *Memory) Stop() {
	m.mu.Lock()
	m.stopped = true
	for key, t := range m.pending {
		t.Stop()
		delete(m.pending, key)
	}
	cron := m.cron
	m.cron = nil
	m.mu.Unlock()

	if cron != nil {
		<-cron.Stop().Done()
	}
}

// fire runs on the timer goroutine when a trigger comes due.
func (m *Memory) fire(entryPoint string, trg id.TriggerID) {
	m.mu.Lock()
	delete(m.pending, trg.String())
	h, ok := m.handlers[entryPoint]
	m.mu.Unlock()

	if !ok {
		m.logger.Warn("trigger fired with no registered entry point",
			slog.String("trigger_id", trg.String()),
			slog.String("entry_point", entryPoint),
		)
		return
	}
	h(context.Background(), trg)
}
