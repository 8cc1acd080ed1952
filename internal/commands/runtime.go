package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// DefaultCommandTimeout caps a single render or build run. Large trees
// passed to a build share this budget.
const DefaultCommandTimeout = 5 * time.Minute

// EnsureContext lets callers such as the CLI and cron jobs pass a nil context.
func EnsureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithCommandTimeout derives the run context. A non-positive timeout leaves
// the run bounded only by ctx.
func WithCommandTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger returns logger, or a silent logger for handlers built without one.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
