package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const RunIDKey contextKey = "run_id"

// WithRunID returns ctx carrying a run id, reusing the one already present.
func WithRunID(ctx context.Context) (context.Context, string) {
	if id := GetRunID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.New().String()
	return context.WithValue(ctx, RunIDKey, id), id
}

func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// Step runs one pipeline step with a run id and a logger bound to ctx, and
// logs when it starts and completes.
func Step(ctx context.Context, logger zerolog.Logger, name string, fn func(ctx context.Context) error) error {
	start := time.Now()

	ctx, runID := WithRunID(ctx)
	loggerWithID := logger.With().Str("run_id", runID).Str("step", name).Logger()
	ctx = loggerWithID.WithContext(ctx)

	loggerWithID.Info().Msg("step started")

	err := fn(ctx)

	duration := time.Since(start)
	event := loggerWithID.Info()
	if err != nil {
		event = loggerWithID.Error().Err(err)
	}
	event.
		Int64("duration_ms", duration.Milliseconds()).
		Dur("duration", duration).
		Bool("ok", err == nil).
		Msg("step completed")
	return err
}
