package repository

import (
	"context"
	"database/sql"
	"fmt"

	"bingo-tracker/internal/constants"
	"bingo-tracker/internal/db"
	"bingo-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// InsertNew stores every player whose RSN is not known yet and returns how
// many rows were added. Existing players are left untouched.
func (r *PlayerRepository) InsertNew(ctx context.Context, players []domain.Player) (int, error) {
	if len(players) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	inserted := 0
	for i := 0; i < len(players); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(players))

		for _, player := range players[i:end] {
			ok, err := qtx.InsertPlayer(ctx, db.InsertPlayerParams{
				Rsn:   player.RSN,
				Team:  player.Team,
				Build: player.Build,
			})
			if err != nil {
				return 0, fmt.Errorf("failed to insert player %s: %w", player.RSN, err)
			}
			if ok {
				inserted++
				r.logger.Debug().Str("rsn", player.RSN).Str("team", player.Team).Msg("player added")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit players: %w", err)
	}
	return inserted, nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]domain.Player, error) {
	players, err := r.queries.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Player, len(players))
	for i, p := range players {
		result[i] = toDomainPlayer(p)
	}
	return result, nil
}

func toDomainPlayer(p db.Player) domain.Player {
	return domain.Player{
		ID:        p.ID,
		RSN:       p.Rsn,
		Team:      p.Team,
		Build:     p.Build,
		CreatedAt: p.CreatedDate,
		UpdatedAt: p.ModifiedDate,
	}
}
