package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs combination start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *Attempt, next Handler) error {
		logger.Debug("combination started",
			slog.String("job", a.Job),
			slog.Int("index", a.Index),
			slog.Int("total", a.Total),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("combination failed",
				slog.String("job", a.Job),
				slog.Int("index", a.Index),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("combination completed",
				slog.String("job", a.Job),
				slog.Int("index", a.Index),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
