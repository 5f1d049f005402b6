package middleware

import (
	"context"
	"time"
)

// Timeout returns middleware that enforces a per-combination deadline.
// A context.WithTimeout wraps the action call; when the deadline is
// exceeded the context is cancelled and the action should return
// context.DeadlineExceeded. A non-positive duration disables the limit.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, a *Attempt, next Handler) error {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
