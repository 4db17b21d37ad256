package repository

import (
	"context"
	"database/sql"
	"fmt"

	"bingo-tracker/internal/db"
	"bingo-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// snapshotTable binds a category to its table and to the value fields
// stored in the primary and secondary columns.
type snapshotTable struct {
	table     db.SnapshotTable
	primary   string
	secondary string
}

var snapshotTables = map[domain.Category]snapshotTable{
	domain.CategorySkill:    {db.SkillingTable, domain.FieldExp, domain.FieldEHP},
	domain.CategoryBoss:     {db.BossingTable, domain.FieldKills, domain.FieldEHB},
	domain.CategoryClue:     {db.CluesTable, domain.FieldClueCompletions, ""},
	domain.CategoryActivity: {db.ActivitiesTable, domain.FieldScore, ""},
	domain.CategoryStats:    {db.StatsTable, domain.FieldEHB, domain.FieldEHP},
}

func tableFor(category domain.Category) (snapshotTable, error) {
	t, ok := snapshotTables[category]
	if !ok {
		return snapshotTable{}, fmt.Errorf("unknown snapshot category %q", category)
	}
	return t, nil
}

type SnapshotRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewSnapshotRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// InsertBatch appends snapshots in a single transaction. Either all of them
// are stored or none are.
func (r *SnapshotRepository) InsertBatch(ctx context.Context, snapshots []domain.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	for _, s := range snapshots {
		t, err := tableFor(s.Category)
		if err != nil {
			return err
		}

		params := db.InsertSnapshotParams{
			PlayerID:     s.PlayerID,
			Metric:       s.Metric,
			Primary:      nullFloat(s.Values[t.primary]),
			SnapshotDate: s.CapturedAt,
			FetchRunID:   s.FetchRunID,
		}
		if t.secondary != "" {
			params.Secondary = nullFloat(s.Values[t.secondary])
		}
		if s.Rank != nil {
			params.Rank = sql.NullInt64{Int64: *s.Rank, Valid: true}
		}

		if err := qtx.InsertSnapshot(ctx, t.table, params); err != nil {
			return fmt.Errorf("failed to insert %s snapshot %s for %s: %w", s.Category, s.Metric, s.RSN, err)
		}
	}

	return tx.Commit()
}

// ListByCategory returns the full history of one category in insertion
// order, joined with each player's RSN and team.
func (r *SnapshotRepository) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Snapshot, error) {
	t, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	rows, err := r.queries.ListSnapshots(ctx, t.table)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s snapshots: %w", category, err)
	}

	result := make([]domain.Snapshot, len(rows))
	for i, row := range rows {
		s := domain.Snapshot{
			Seq:      row.ID,
			PlayerID: row.PlayerID,
			RSN:      row.Rsn,
			Team:     row.Team,
			Metric:   row.Metric,
			Category: category,
			Values:   map[string]*float64{t.primary: floatPtr(row.Primary)},
		}
		if t.secondary != "" {
			s.Values[t.secondary] = floatPtr(row.Secondary)
		}
		if row.Rank.Valid {
			rank := row.Rank.Int64
			s.Rank = &rank
		}
		if row.SnapshotDate.Valid {
			s.CapturedAt = row.SnapshotDate.Time
		} else {
			s.CapturedAt = row.CreatedDate
		}
		if row.FetchRunID.Valid {
			s.FetchRunID = row.FetchRunID.String
		}
		result[i] = s
	}

	r.logger.Debug().Str("category", string(category)).Int("count", len(result)).Msg("snapshots loaded")
	return result, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float(v.Float64)
}
