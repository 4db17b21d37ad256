package service

import (
	"context"
	"fmt"
	"time"

	"bingo-tracker/internal/constants"
	"bingo-tracker/internal/metrics"
	"bingo-tracker/internal/report"
	"bingo-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Publisher writes a built report to its destination, replacing whatever
// the previous run wrote there.
type Publisher interface {
	Publish(ctx context.Context, r *report.Report) error
}

type ReportService struct {
	players   *repository.PlayerRepository
	snapshots *repository.SnapshotRepository
	publisher Publisher
	constants report.Constants
	metrics   *metrics.Manager
	logger    zerolog.Logger
}

func NewReportService(
	players *repository.PlayerRepository,
	snapshots *repository.SnapshotRepository,
	publisher Publisher,
	consts report.Constants,
	m *metrics.Manager,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		players:   players,
		snapshots: snapshots,
		publisher: publisher,
		constants: consts,
		metrics:   m,
		logger:    logger,
	}
}

func (s *ReportService) Constants() report.Constants {
	return s.constants
}

// Build loads the roster once and builds every requested report
// concurrently. Results keep the order of cfgs.
func (s *ReportService) Build(ctx context.Context, cfgs ...report.CategoryConfig) ([]*report.Report, error) {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	roster, err := participants(dbCtx, s.players)
	if err != nil {
		return nil, err
	}

	reports := make([]*report.Report, len(cfgs))
	g, gctx := errgroup.WithContext(dbCtx)
	for i, cfg := range cfgs {
		g.Go(func() error {
			start := time.Now()

			snaps, err := s.snapshots.ListByCategory(gctx, cfg.Category)
			if err != nil {
				return err
			}
			r, err := report.Build(cfg, roster, snaps)
			if err != nil {
				return fmt.Errorf("failed to build %s report: %w", cfg.Name, err)
			}

			took := time.Since(start)
			s.metrics.RecordReport(cfg.Name, len(r.Rows), took)
			s.logger.Debug().
				Str("report", cfg.Name).
				Int("snapshots", len(snaps)).
				Int("rows", len(r.Rows)).
				Int("columns", r.Layout.Len()).
				Dur("took", took).
				Msg("report built")

			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Publish builds the reports and publishes them one by one in order,
// stopping at the first failure.
func (s *ReportService) Publish(ctx context.Context, cfgs ...report.CategoryConfig) error {
	reports, err := s.Build(ctx, cfgs...)
	if err != nil {
		return err
	}

	for _, r := range reports {
		for _, w := range r.Warnings {
			s.logger.Warn().Err(w).Str("report", r.Config.Name).Msg("report warning")
		}

		pubCtx, cancel := context.WithTimeout(ctx, constants.PublishTimeout)
		err := s.publisher.Publish(pubCtx, r)
		cancel()
		if err != nil {
			s.metrics.RecordPublishError(r.Config.Name)
			return fmt.Errorf("failed to publish %s report: %w", r.Config.Name, err)
		}

		s.logger.Info().
			Str("report", r.Config.Name).
			Str("sheet", r.Config.SheetTitle).
			Int("rows", len(r.Rows)).
			Msg("report published")
	}
	s.metrics.RecordSuccess("publish", time.Now())
	return nil
}

// participants returns the stored roster in report order.
func participants(ctx context.Context, repo *repository.PlayerRepository) ([]report.Participant, error) {
	players, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	out := make([]report.Participant, len(players))
	for i, p := range players {
		out[i] = report.Participant{ID: p.RSN, Team: p.Team}
	}
	return out, nil
}
