package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bingo-tracker/internal/db"
	"bingo-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type FetchRunRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewFetchRunRepository(queries *db.Queries, logger zerolog.Logger) *FetchRunRepository {
	return &FetchRunRepository{queries: queries, logger: logger}
}

// Start records a new fetch run. Every snapshot written during the run
// carries its id.
func (r *FetchRunRepository) Start(ctx context.Context, startedAt time.Time) (*domain.FetchRun, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}
	if err := r.queries.CreateFetchRun(ctx, id, startedAt); err != nil {
		return nil, fmt.Errorf("failed to create fetch run: %w", err)
	}
	r.logger.Debug().Str("fetch_run_id", id).Msg("fetch run started")
	return &domain.FetchRun{ID: id, StartedAt: startedAt}, nil
}

func (r *FetchRunRepository) Finish(ctx context.Context, run *domain.FetchRun, finishedAt time.Time) error {
	err := r.queries.FinishFetchRun(ctx, db.FinishFetchRunParams{
		FinishedAt: finishedAt,
		Players:    int64(run.Players),
		Failures:   int64(run.Failures),
		ID:         run.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to finish fetch run %s: %w", run.ID, err)
	}
	run.FinishedAt = &finishedAt
	return nil
}

// Latest returns the most recently started run, or nil before the first
// fetch.
func (r *FetchRunRepository) Latest(ctx context.Context) (*domain.FetchRun, error) {
	row, err := r.queries.GetLatestFetchRun(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest fetch run: %w", err)
	}
	run := &domain.FetchRun{
		ID:        row.ID,
		StartedAt: row.StartedAt,
		Players:   int(row.Players),
		Failures:  int(row.Failures),
	}
	if row.FinishedAt.Valid {
		run.FinishedAt = &row.FinishedAt.Time
	}
	return run, nil
}
