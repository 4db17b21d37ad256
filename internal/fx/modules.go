package fx

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"bingo-tracker/internal/api"
	"bingo-tracker/internal/config"
	"bingo-tracker/internal/database"
	"bingo-tracker/internal/db"
	"bingo-tracker/internal/export"
	"bingo-tracker/internal/logger"
	"bingo-tracker/internal/metrics"
	"bingo-tracker/internal/report"
	"bingo-tracker/internal/repository"
	"bingo-tracker/internal/service"
	"bingo-tracker/internal/sheets"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var (
	ErrMissingSpreadsheetID = errors.New("SPREADSHEET_ID is required when PUBLISH_TARGET=sheets")
	ErrMissingCredentials   = errors.New("GOOGLE_CREDENTIALS_FILE is required when PUBLISH_TARGET=sheets")
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

// ProvideConstants loads the efficiency constants file when one is
// configured.
func ProvideConstants(cfg *config.Config, logger zerolog.Logger) (report.Constants, error) {
	if cfg.ConstantsFile == "" {
		return nil, nil
	}
	consts, err := report.LoadConstants(cfg.ConstantsFile)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.ConstantsFile).Int("reports", len(consts)).Msg("efficiency constants loaded")
	return consts, nil
}

// ProvidePublisher opens a sheets session for PUBLISH_TARGET=sheets and
// prints to stdout otherwise.
func ProvidePublisher(lc fx.Lifecycle, cfg *config.Config, consts report.Constants, logger zerolog.Logger) (service.Publisher, error) {
	if cfg.PublishTarget != config.PublishTargetSheets {
		return ProvideConsolePublisher(consts, logger), nil
	}
	if cfg.SpreadsheetID == "" {
		return nil, ErrMissingSpreadsheetID
	}
	if cfg.GoogleCredentialsFile == "" {
		return nil, ErrMissingCredentials
	}

	p, err := sheets.Open(context.Background(), cfg.GoogleCredentialsFile, cfg.SpreadsheetID, consts, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			p.Close()
			return nil
		},
	})
	return p, nil
}

func ProvideConsolePublisher(consts report.Constants, logger zerolog.Logger) service.Publisher {
	return export.NewConsolePublisher(os.Stdout, consts, logger)
}

// Core is shared by every command: logging, configuration, metrics and
// the snapshot store.
var Core = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewSnapshotRepository),
	fx.Provide(repository.NewFetchRunRepository),
)

// Acquisition talks to the stats API.
var Acquisition = fx.Options(
	fx.Provide(api.NewWOMClient),
	fx.Provide(service.NewRosterService),
	fx.Provide(service.NewSnapshotService),
)

// Reporting builds reports and publishes them to the configured target.
var Reporting = fx.Options(
	fx.Provide(ProvideConstants),
	fx.Provide(ProvidePublisher),
	fx.Provide(service.NewReportService),
)

// Preview builds reports and always prints them locally.
var Preview = fx.Options(
	fx.Provide(ProvideConstants),
	fx.Provide(ProvideConsolePublisher),
	fx.Provide(service.NewReportService),
)
