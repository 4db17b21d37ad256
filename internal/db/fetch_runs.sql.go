package db

import (
	"context"
	"time"
)

const createFetchRun = `
INSERT INTO fetch_runs (id, started_at)
VALUES (?, ?)
`

func (q *Queries) CreateFetchRun(ctx context.Context, id string, startedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, createFetchRun, id, startedAt)
	return err
}

const finishFetchRun = `
UPDATE fetch_runs
SET finished_at = ?, players = ?, failures = ?
WHERE id = ?
`

type FinishFetchRunParams struct {
	FinishedAt time.Time
	Players    int64
	Failures   int64
	ID         string
}

func (q *Queries) FinishFetchRun(ctx context.Context, arg FinishFetchRunParams) error {
	_, err := q.db.ExecContext(ctx, finishFetchRun, arg.FinishedAt, arg.Players, arg.Failures, arg.ID)
	return err
}

const getLatestFetchRun = `
SELECT id, started_at, finished_at, players, failures
FROM fetch_runs
ORDER BY started_at DESC
LIMIT 1
`

func (q *Queries) GetLatestFetchRun(ctx context.Context) (FetchRun, error) {
	row := q.db.QueryRowContext(ctx, getLatestFetchRun)
	var i FetchRun
	err := row.Scan(
		&i.ID,
		&i.StartedAt,
		&i.FinishedAt,
		&i.Players,
		&i.Failures,
	)
	return i, err
}
