package db

import (
	"database/sql"
	"time"
)

type Player struct {
	ID           int64
	Rsn          string
	Team         string
	Build        string
	CreatedDate  time.Time
	ModifiedDate time.Time
}

type FetchRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Players    int64
	Failures   int64
}

// SnapshotRow is a snapshot joined with its player. Primary and Secondary
// hold the table's value columns in declaration order (exp/ehp,
// kills/ehb, clue_completions, score, ehb/ehp).
type SnapshotRow struct {
	ID           int64
	PlayerID     int64
	Rsn          string
	Team         string
	Metric       string
	Primary      sql.NullFloat64
	Secondary    sql.NullFloat64
	Rank         sql.NullInt64
	SnapshotDate sql.NullTime
	FetchRunID   sql.NullString
	CreatedDate  time.Time
}
