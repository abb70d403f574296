package statemachine

import (
	"context"
	"log/slog"
	"time"

	"github.com/amp-labs/amp-fsm/logger"
)

// Logger provides logging hooks for state machine execution.
type Logger interface {
	ActionCalled(ctx context.Context, action, state string, handled bool, err error)
	TransitionStarted(ctx context.Context, from, to string)
	TransitionCompleted(ctx context.Context, from, to string, duration time.Duration)
	TransitionFailed(ctx context.Context, from, to string, err error)
	TransitionIgnored(ctx context.Context, from, to string)
}

// DefaultLogger implements Logger using slog. Without an explicit logger it
// goes through the logger package, so output follows whatever
// logger.ConfigureLogging set up and honors muted contexts.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a new default logger.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{}
}

// NewSlogLogger creates a Logger writing to l. Context values added with
// logger.With are still attached.
func NewSlogLogger(l *slog.Logger) *DefaultLogger {
	return &DefaultLogger{logger: l}
}

func (l *DefaultLogger) get(ctx context.Context) *slog.Logger {
	if l.logger == nil {
		return logger.Get(ctx)
	}

	return l.logger.With(logger.Values(ctx)...)
}

func (l *DefaultLogger) ActionCalled(ctx context.Context, action, state string, handled bool, err error) {
	log := l.get(ctx)

	if err != nil {
		log.ErrorContext(ctx, "Action failed",
			"action", action,
			"state", state,
			"error", err,
		)

		return
	}

	log.DebugContext(ctx, "Action called",
		"action", action,
		"state", state,
		"handled", handled,
	)
}

func (l *DefaultLogger) TransitionStarted(ctx context.Context, from, to string) {
	l.get(ctx).DebugContext(ctx, "Transition started",
		"from", from,
		"to", to,
	)
}

func (l *DefaultLogger) TransitionCompleted(ctx context.Context, from, to string, duration time.Duration) {
	l.get(ctx).InfoContext(ctx, "Transition completed",
		"from", from,
		"to", to,
		"duration_ms", duration.Milliseconds(),
	)
}

func (l *DefaultLogger) TransitionFailed(ctx context.Context, from, to string, err error) {
	l.get(ctx).ErrorContext(ctx, "Transition failed",
		"from", from,
		"to", to,
		"error", err,
	)
}

func (l *DefaultLogger) TransitionIgnored(ctx context.Context, from, to string) {
	l.get(ctx).DebugContext(ctx, "Transition ignored, machine is transitioning",
		"from", from,
		"to", to,
	)
}
