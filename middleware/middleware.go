package middleware

import (
	"context"

	"github.com/stintlabs/stint/checkpoint"
)

// Attempt describes one combination execution passing through the chain.
type Attempt struct {
	// Job is the name of the job the combination belongs to.
	Job string

	// Type is the registered job type.
	Type string

	// Index is the zero-based position of the combination in the
	// iteration space.
	Index int

	// Total is the size of the iteration space, 0 when unknown.
	Total int

	// Combination carries the elements the action receives.
	Combination checkpoint.Combination
}

// Handler is the terminal function that executes the combination action.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the attempt being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, a *Attempt, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, a *Attempt, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, a, prev)
			}
		}
		return h(ctx)
	}
}
