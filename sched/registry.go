package sched

import (
	"context"
	"sync"

	"github.com/stintlabs/stint"
	"github.com/stintlabs/stint/checkpoint"
	"github.com/stintlabs/stint/stepper"
)

// SpecFunc builds the iteration spec for one job type. On resumption
// the restored checkpoint is passed so candidate listers can reproduce
// the original source order.
type SpecFunc func(ctx context.Context, params stint.Params, resume *checkpoint.Checkpoint) (*stepper.Spec, error)

// Definition binds a job type to its spec builder.
type Definition struct {
	Type  string
	Build SpecFunc
}

// Registry holds the process-local type registrations. Registrations
// are not persisted: every process entry point, normal or resumption,
// must re-register its types before executing or resuming jobs.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition. Registration is idempotent; registering
// the same type again replaces the previous builder (last wins).
func (r *Registry) Register(d Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.Type] = d
}

// Lookup returns the definition for a job type.
func (r *Registry) Lookup(typ string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[typ]
	return d, ok
}
