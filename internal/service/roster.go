package service

import (
	"context"
	"fmt"

	"bingo-tracker/internal/api"
	"bingo-tracker/internal/config"
	"bingo-tracker/internal/constants"
	"bingo-tracker/internal/domain"
	"bingo-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type RosterService struct {
	wom    *api.WOMClient
	repo   *repository.PlayerRepository
	cfg    *config.Config
	logger zerolog.Logger
}

func NewRosterService(wom *api.WOMClient, repo *repository.PlayerRepository, cfg *config.Config, logger zerolog.Logger) *RosterService {
	return &RosterService{wom: wom, repo: repo, cfg: cfg, logger: logger}
}

// Sync stores every competition participant not known yet. Known
// participants keep the team they were first registered with.
func (s *RosterService) Sync(ctx context.Context) (int, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	comp, err := s.wom.GetCompetition(apiCtx, s.cfg.CompetitionID)
	if err != nil {
		s.logger.Error().Err(err).Int("competition_id", s.cfg.CompetitionID).Msg("failed to fetch competition")
		return 0, fmt.Errorf("failed to fetch competition %d: %w", s.cfg.CompetitionID, err)
	}

	players := make([]domain.Player, 0, len(comp.Participations))
	for _, p := range comp.Participations {
		players = append(players, domain.Player{
			RSN:   p.Player.DisplayName,
			Team:  p.TeamName,
			Build: p.Player.Build,
		})
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer dbCancel()

	added, err := s.repo.InsertNew(dbCtx, players)
	if err != nil {
		return 0, fmt.Errorf("failed to store roster: %w", err)
	}

	s.logger.Info().
		Str("competition", comp.Title).
		Int("participants", len(players)).
		Int("added", added).
		Msg("roster synced")
	return added, nil
}
