// Package middleware provides composable middleware for combination
// execution.
//
// A [Middleware] is a function that wraps the action call for one
// combination. Middleware are composed into a chain using [Chain] and
// applied before each combination executes. They are applied
// right-to-left: the first middleware in the slice is the outermost
// wrapper.
//
//	// logging → recover → action
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs combination index, duration, and outcome
//   - [Recover] — catches panics in actions and converts them to errors
//   - [Timeout] — cancels the action context after a fixed duration
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-combination duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, a *middleware.Attempt, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting (e.g., rate limiting).
package middleware
