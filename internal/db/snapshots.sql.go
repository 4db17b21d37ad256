package db

import (
	"context"
	"database/sql"
	"time"
)

// SnapshotTable describes one append-only snapshot table and the statements
// that read and write it. Every list statement selects the same columns so
// rows scan into SnapshotRow.
type SnapshotTable struct {
	Name         string
	HasMetric    bool
	HasSecondary bool
	HasRank      bool

	insert string
	list   string
}

const insertSkilling = `
INSERT INTO skilling (player_id, skill_name, exp, ehp, rank, snapshot_date, fetch_run_id)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const listSkilling = `
SELECT s.id, s.player_id, p.rsn, p.team, s.skill_name, s.exp, s.ehp, s.rank, s.snapshot_date, s.fetch_run_id, s.created_date
FROM skilling s
JOIN players p ON s.player_id = p.id
ORDER BY s.id
`

const insertBossing = `
INSERT INTO bossing (player_id, boss_name, kills, ehb, rank, snapshot_date, fetch_run_id)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const listBossing = `
SELECT s.id, s.player_id, p.rsn, p.team, s.boss_name, s.kills, s.ehb, s.rank, s.snapshot_date, s.fetch_run_id, s.created_date
FROM bossing s
JOIN players p ON s.player_id = p.id
ORDER BY s.id
`

const insertClue = `
INSERT INTO clues (player_id, clue_type, clue_completions, rank, snapshot_date, fetch_run_id)
VALUES (?, ?, ?, ?, ?, ?)
`

const listClues = `
SELECT s.id, s.player_id, p.rsn, p.team, s.clue_type, s.clue_completions, NULL, s.rank, s.snapshot_date, s.fetch_run_id, s.created_date
FROM clues s
JOIN players p ON s.player_id = p.id
ORDER BY s.id
`

const insertActivity = `
INSERT INTO activities (player_id, activity_name, score, rank, snapshot_date, fetch_run_id)
VALUES (?, ?, ?, ?, ?, ?)
`

const listActivities = `
SELECT s.id, s.player_id, p.rsn, p.team, s.activity_name, s.score, NULL, s.rank, s.snapshot_date, s.fetch_run_id, s.created_date
FROM activities s
JOIN players p ON s.player_id = p.id
ORDER BY s.id
`

const insertStats = `
INSERT INTO stats (player_id, ehb, ehp, snapshot_date, fetch_run_id)
VALUES (?, ?, ?, ?, ?)
`

const listStats = `
SELECT s.id, s.player_id, p.rsn, p.team, 'Stats', s.ehb, s.ehp, NULL, s.snapshot_date, s.fetch_run_id, s.created_date
FROM stats s
JOIN players p ON s.player_id = p.id
ORDER BY s.id
`

var (
	SkillingTable   = SnapshotTable{Name: "skilling", HasMetric: true, HasSecondary: true, HasRank: true, insert: insertSkilling, list: listSkilling}
	BossingTable    = SnapshotTable{Name: "bossing", HasMetric: true, HasSecondary: true, HasRank: true, insert: insertBossing, list: listBossing}
	CluesTable      = SnapshotTable{Name: "clues", HasMetric: true, HasRank: true, insert: insertClue, list: listClues}
	ActivitiesTable = SnapshotTable{Name: "activities", HasMetric: true, HasRank: true, insert: insertActivity, list: listActivities}
	StatsTable      = SnapshotTable{Name: "stats", HasSecondary: true, insert: insertStats, list: listStats}
)

type InsertSnapshotParams struct {
	PlayerID     int64
	Metric       string
	Primary      sql.NullFloat64
	Secondary    sql.NullFloat64
	Rank         sql.NullInt64
	SnapshotDate time.Time
	FetchRunID   string
}

// InsertSnapshot binds only the columns the table has, in statement order.
func (q *Queries) InsertSnapshot(ctx context.Context, table SnapshotTable, arg InsertSnapshotParams) error {
	args := []interface{}{arg.PlayerID}
	if table.HasMetric {
		args = append(args, arg.Metric)
	}
	args = append(args, arg.Primary)
	if table.HasSecondary {
		args = append(args, arg.Secondary)
	}
	if table.HasRank {
		args = append(args, arg.Rank)
	}
	args = append(args, arg.SnapshotDate, arg.FetchRunID)

	_, err := q.db.ExecContext(ctx, table.insert, args...)
	return err
}

// ListSnapshots returns every row of the table in insertion order.
func (q *Queries) ListSnapshots(ctx context.Context, table SnapshotTable) ([]SnapshotRow, error) {
	rows, err := q.db.QueryContext(ctx, table.list)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SnapshotRow
	for rows.Next() {
		var i SnapshotRow
		if err := rows.Scan(
			&i.ID,
			&i.PlayerID,
			&i.Rsn,
			&i.Team,
			&i.Metric,
			&i.Primary,
			&i.Secondary,
			&i.Rank,
			&i.SnapshotDate,
			&i.FetchRunID,
			&i.CreatedDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
