package retry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/stintlabs/stint/faults"
)

// Stats accumulates in-memory per-run counters for the retry engine.
// Counters grow until Reset is called explicitly. Safe for concurrent use.
type Stats struct {
	mu sync.Mutex

	total       int
	byKind      map[faults.Kind]int
	byOperation map[string]int
	byStep      map[string]int
	recovered   int
	unrecovered int
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{
		byKind:      make(map[faults.Kind]int),
		byOperation: make(map[string]int),
		byStep:      make(map[string]int),
	}
}

func (s *Stats) recordFailure(kind faults.Kind, operation, step string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byKind[kind]++
	if operation != "" {
		s.byOperation[operation]++
	}
	if step != "" {
		s.byStep[step]++
	}
}

func (s *Stats) recordRecovered(_, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recovered++
}

func (s *Stats) recordUnrecovered(_, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unrecovered++
}

// Total returns the number of failed attempts recorded.
func (s *Stats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Recovered returns the number of operations that succeeded after retry.
func (s *Stats) Recovered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovered
}

// Unrecovered returns the number of operations that exhausted their policy.
func (s *Stats) Unrecovered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unrecovered
}

// ByKind returns a copy of the per-kind failure counters.
func (s *Stats) ByKind() map[faults.Kind]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[faults.Kind]int, len(s.byKind))
	for k, v := range s.byKind {
		out[k] = v
	}
	return out
}

// ByOperation returns a copy of the per-call-site failure counters.
func (s *Stats) ByOperation() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.byOperation))
	for k, v := range s.byOperation {
		out[k] = v
	}
	return out
}

// ByStep returns a copy of the per-step failure counters.
func (s *Stats) ByStep() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.byStep))
	for k, v := range s.byStep {
		out[k] = v
	}
	return out
}

// Reset clears all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = 0
	s.recovered = 0
	s.unrecovered = 0
	s.byKind = make(map[faults.Kind]int)
	s.byOperation = make(map[string]int)
	s.byStep = make(map[string]int)
}

// Report renders a readable failure analysis.
func (s *Stats) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "retry analysis: %d failed attempts, %d recovered, %d unrecovered\n",
		s.total, s.recovered, s.unrecovered)

	writeSection := func(title string, counts map[string]int) {
		if len(counts) == 0 {
			return
		}
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		// Highest count first, name as tiebreak.
		sort.Slice(keys, func(i, j int) bool {
			if counts[keys[i]] != counts[keys[j]] {
				return counts[keys[i]] > counts[keys[j]]
			}
			return keys[i] < keys[j]
		})
		fmt.Fprintf(&b, "%s:\n", title)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %-24s %d\n", k, counts[k])
		}
	}

	kinds := make(map[string]int, len(s.byKind))
	for k, v := range s.byKind {
		kinds[string(k)] = v
	}
	writeSection("by kind", kinds)
	writeSection("by operation", s.byOperation)
	writeSection("by step", s.byStep)

	return b.String()
}
