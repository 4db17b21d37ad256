package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"bingo-tracker/internal/api"
	"bingo-tracker/internal/config"
	"bingo-tracker/internal/constants"
	"bingo-tracker/internal/domain"
	"bingo-tracker/internal/metrics"
	"bingo-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// StatsMetric is the metric name of the per-player aggregate stats series.
const StatsMetric = "Stats"

type SnapshotService struct {
	wom       *api.WOMClient
	players   *repository.PlayerRepository
	snapshots *repository.SnapshotRepository
	runs      *repository.FetchRunRepository
	metrics   *metrics.Manager
	cfg       *config.Config
	logger    zerolog.Logger
}

func NewSnapshotService(
	wom *api.WOMClient,
	players *repository.PlayerRepository,
	snapshots *repository.SnapshotRepository,
	runs *repository.FetchRunRepository,
	m *metrics.Manager,
	cfg *config.Config,
	logger zerolog.Logger,
) *SnapshotService {
	return &SnapshotService{
		wom:       wom,
		players:   players,
		snapshots: snapshots,
		runs:      runs,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
	}
}

// Fetch takes one snapshot of every known participant. Participants are
// processed one at a time with FetchDelay between them; a participant that
// fails is logged and skipped.
func (s *SnapshotService) Fetch(ctx context.Context) (*domain.FetchRun, error) {
	players, err := s.players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	run, err := s.runs.Start(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	logger := s.logger.With().Str("fetch_run_id", run.ID).Logger()
	logger.Info().Int("players", len(players)).Msg("fetch started")

	for i, player := range players {
		if i > 0 {
			if err := sleep(ctx, s.nextDelay(logger)); err != nil {
				logger.Warn().Err(err).Int("remaining", len(players)-i).Msg("fetch interrupted")
				_ = s.finish(ctx, run, logger)
				return run, err
			}
		}

		n, err := s.fetchPlayer(ctx, run.ID, player)
		if err != nil {
			run.Failures++
			s.metrics.RecordFetchFailure()
			logger.Error().Err(err).Str("rsn", player.RSN).Msg("failed to fetch player, skipping")
			continue
		}
		run.Players++
		logger.Debug().Str("rsn", player.RSN).Int("snapshots", n).Msg("player fetched")
	}

	if err := s.finish(ctx, run, logger); err != nil {
		return run, err
	}
	s.metrics.RecordSuccess("fetch", *run.FinishedAt)

	logger.Info().
		Int("players", run.Players).
		Int("failures", run.Failures).
		Msg("fetch completed")
	return run, nil
}

// nextDelay is FetchDelay, stretched to the rate limit reset when the API
// reports no requests left.
func (s *SnapshotService) nextDelay(logger zerolog.Logger) time.Duration {
	delay := s.cfg.FetchDelay
	if wait := s.wom.GetRateLimitInfo().Wait(time.Now()); wait > delay {
		logger.Warn().Dur("wait", wait).Msg("rate limit exhausted, waiting for reset")
		delay = wait
	}
	return delay
}

// finish records the run's counts even when ctx is already cancelled.
func (s *SnapshotService) finish(ctx context.Context, run *domain.FetchRun, logger zerolog.Logger) error {
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer cancel()
	if err := s.runs.Finish(dbCtx, run, time.Now().UTC()); err != nil {
		logger.Error().Err(err).Msg("failed to finish fetch run")
		return err
	}
	return nil
}

func (s *SnapshotService) fetchPlayer(ctx context.Context, runID string, player domain.Player) (int, error) {
	updateCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()
	if _, err := s.wom.UpdatePlayer(updateCtx, player.RSN); err != nil {
		// stale details are still worth storing
		s.logger.Warn().Err(err).Str("rsn", player.RSN).Msg("failed to update player")
	}

	detailsCtx, detailsCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer detailsCancel()
	details, err := s.wom.GetPlayerDetails(detailsCtx, player.RSN)
	if err != nil {
		return 0, fmt.Errorf("failed to get player details: %w", err)
	}
	if details.LatestSnapshot == nil {
		return 0, fmt.Errorf("player %s has no snapshot", player.RSN)
	}

	snaps := BuildSnapshots(player, runID, details)

	dbCtx, dbCancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer dbCancel()
	if err := s.snapshots.InsertBatch(dbCtx, snaps); err != nil {
		return 0, err
	}

	counts := make(map[domain.Category]int)
	for _, snap := range snaps {
		counts[snap.Category]++
	}
	for category, n := range counts {
		s.metrics.RecordSnapshots(string(category), n)
	}
	return len(snaps), nil
}

// BuildSnapshots converts a player's latest API snapshot into store rows.
// Clue activities go to the clue category. Guardians Of The Rift is also
// recorded as a boss without ehb.
func BuildSnapshots(player domain.Player, runID string, details *api.PlayerDetails) []domain.Snapshot {
	at := details.LatestSnapshot.CreatedAt.UTC()
	data := details.LatestSnapshot.Data

	snap := func(category domain.Category, metric string, rank *int64, values map[string]*float64) domain.Snapshot {
		return domain.Snapshot{
			PlayerID:   player.ID,
			RSN:        player.RSN,
			Team:       player.Team,
			Metric:     metric,
			Category:   category,
			Values:     values,
			Rank:       rank,
			CapturedAt: at,
			FetchRunID: runID,
		}
	}

	var out []domain.Snapshot
	for _, key := range slices.Sorted(maps.Keys(data.Skills)) {
		v := data.Skills[key]
		out = append(out, snap(domain.CategorySkill, api.MetricName(key), &v.Rank, map[string]*float64{
			domain.FieldExp: domain.Float(float64(v.Experience)),
			domain.FieldEHP: domain.Float(v.EHP),
		}))
	}
	for _, key := range slices.Sorted(maps.Keys(data.Bosses)) {
		v := data.Bosses[key]
		out = append(out, snap(domain.CategoryBoss, api.MetricName(key), &v.Rank, map[string]*float64{
			domain.FieldKills: domain.Float(float64(v.Kills)),
			domain.FieldEHB:   domain.Float(v.EHB),
		}))
	}
	for _, key := range slices.Sorted(maps.Keys(data.Activities)) {
		v := data.Activities[key]
		name := api.MetricName(key)
		score := float64(v.Score)

		if strings.Contains(name, "Clue") {
			out = append(out, snap(domain.CategoryClue, name, &v.Rank, map[string]*float64{
				domain.FieldClueCompletions: domain.Float(score),
			}))
			continue
		}
		out = append(out, snap(domain.CategoryActivity, name, &v.Rank, map[string]*float64{
			domain.FieldScore: domain.Float(score),
		}))
		if strings.Contains(name, "Guardian") {
			out = append(out, snap(domain.CategoryBoss, name, &v.Rank, map[string]*float64{
				domain.FieldKills: domain.Float(score),
				domain.FieldEHB:   domain.Float(0),
			}))
		}
	}
	out = append(out, snap(domain.CategoryStats, StatsMetric, nil, map[string]*float64{
		domain.FieldEHB: domain.Float(details.EHB),
		domain.FieldEHP: domain.Float(details.EHP),
	}))
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
