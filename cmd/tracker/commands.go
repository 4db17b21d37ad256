package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bingo-tracker/internal/database"
	"bingo-tracker/internal/export"
	fxmodules "bingo-tracker/internal/fx"
	"bingo-tracker/internal/middleware"
	"bingo-tracker/internal/report"
	"bingo-tracker/internal/repository"
	"bingo-tracker/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Track bingo competition progress and publish it to a spreadsheet",
	Long: `Snapshot participant stats into a local SQLite store, then publish
delta and cumulative progress reports with efficiency formulas.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// logger.New reads LOG_LEVEL before config.Load runs
		_ = godotenv.Load()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the snapshot store schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var sqlDB *sql.DB
		var logger zerolog.Logger
		return execute(cmd.Context(), fx.Populate(&sqlDB, &logger), func(ctx context.Context) error {
			version, err := database.SchemaVersion(sqlDB)
			if err != nil {
				return err
			}
			logger.Info().Int64("version", version).Msg("schema up to date")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version, roster size and the latest fetch run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var sqlDB *sql.DB
		var players *repository.PlayerRepository
		var runs *repository.FetchRunRepository
		var logger zerolog.Logger
		return execute(cmd.Context(), fx.Populate(&sqlDB, &players, &runs, &logger), func(ctx context.Context) error {
			version, err := database.SchemaVersion(sqlDB)
			if err != nil {
				return err
			}
			roster, err := players.List(ctx)
			if err != nil {
				return err
			}
			event := logger.Info().Int64("version", version).Int("players", len(roster))

			run, err := runs.Latest(ctx)
			if err != nil {
				return err
			}
			if run == nil {
				event.Msg("no fetch run yet")
				return nil
			}
			event = event.
				Str("fetch_run_id", run.ID).
				Time("started_at", run.StartedAt).
				Int("fetched", run.Players).
				Int("failures", run.Failures)
			if run.FinishedAt != nil {
				event = event.Time("finished_at", *run.FinishedAt)
			}
			event.Msg("latest fetch run")
			return nil
		})
	},
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Register competition participants not yet in the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var svc *service.RosterService
		var logger zerolog.Logger
		return execute(cmd.Context(), fx.Options(fxmodules.Acquisition, fx.Populate(&svc, &logger)), func(ctx context.Context) error {
			return runRoster(ctx, logger, svc)
		})
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Append a snapshot of every participant to the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var svc *service.SnapshotService
		var logger zerolog.Logger
		return execute(cmd.Context(), fx.Options(fxmodules.Acquisition, fx.Populate(&svc, &logger)), func(ctx context.Context) error {
			return runFetch(ctx, logger, svc)
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish [report...]",
	Short: "Build reports and publish them (all reports when none are named)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgs, err := selectReports(args)
		if err != nil {
			return err
		}
		var svc *service.ReportService
		var logger zerolog.Logger
		return execute(cmd.Context(), fx.Options(fxmodules.Reporting, fx.Populate(&svc, &logger)), func(ctx context.Context) error {
			return runPublish(ctx, logger, svc, cfgs)
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sync the roster, fetch snapshots and publish every report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var roster *service.RosterService
		var snapshots *service.SnapshotService
		var reports *service.ReportService
		var logger zerolog.Logger
		opts := fx.Options(
			fxmodules.Acquisition,
			fxmodules.Reporting,
			fx.Populate(&roster, &snapshots, &reports, &logger),
		)
		return execute(cmd.Context(), opts, func(ctx context.Context) error {
			ctx, _ = middleware.WithRunID(ctx)
			if err := runRoster(ctx, logger, roster); err != nil {
				return err
			}
			if err := runFetch(ctx, logger, snapshots); err != nil {
				return err
			}
			return runPublish(ctx, logger, reports, report.Reports())
		})
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <report>",
	Short: "Print one report as a table without publishing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := report.ReportByName(args[0])
		if err != nil {
			return err
		}
		var svc *service.ReportService
		var publisher service.Publisher
		var logger zerolog.Logger
		return execute(cmd.Context(), fx.Options(fxmodules.Preview, fx.Populate(&svc, &publisher, &logger)), func(ctx context.Context) error {
			return middleware.Step(ctx, logger, "preview", func(ctx context.Context) error {
				reports, err := svc.Build(ctx, cfg)
				if err != nil {
					return err
				}
				return publisher.Publish(ctx, reports[0])
			})
		})
	},
}

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <report>",
	Short: "Write the delta records of one report to a Parquet file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := report.ReportByName(args[0])
		if err != nil {
			return err
		}
		output := exportOutput
		if output == "" {
			output = cfg.Name + ".parquet"
		}
		var svc *service.ReportService
		var logger zerolog.Logger
		return execute(cmd.Context(), fx.Options(fxmodules.Preview, fx.Populate(&svc, &logger)), func(ctx context.Context) error {
			return middleware.Step(ctx, logger, "export", func(ctx context.Context) error {
				reports, err := svc.Build(ctx, cfg)
				if err != nil {
					return err
				}
				n, err := export.WriteDeltas(reports[0], output)
				if err != nil {
					return err
				}
				logger.Info().Str("report", cfg.Name).Str("output", output).Int("rows", n).Msg("deltas exported")
				return nil
			})
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default <report>.parquet)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(exportCmd)
}

func runRoster(ctx context.Context, logger zerolog.Logger, svc *service.RosterService) error {
	return middleware.Step(ctx, logger, "roster", func(ctx context.Context) error {
		_, err := svc.Sync(ctx)
		return err
	})
}

func runFetch(ctx context.Context, logger zerolog.Logger, svc *service.SnapshotService) error {
	return middleware.Step(ctx, logger, "fetch", func(ctx context.Context) error {
		_, err := svc.Fetch(ctx)
		return err
	})
}

func runPublish(ctx context.Context, logger zerolog.Logger, svc *service.ReportService, cfgs []report.CategoryConfig) error {
	return middleware.Step(ctx, logger, "publish", func(ctx context.Context) error {
		return svc.Publish(ctx, cfgs...)
	})
}

func selectReports(names []string) ([]report.CategoryConfig, error) {
	if len(names) == 0 {
		return report.Reports(), nil
	}
	cfgs := make([]report.CategoryConfig, 0, len(names))
	for _, name := range names {
		cfg, err := report.ReportByName(name)
		if err != nil {
			return nil, fmt.Errorf("%w (known: %s)", err, knownReports())
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

func knownReports() string {
	var names []string
	for _, cfg := range report.Reports() {
		names = append(names, cfg.Name)
	}
	return strings.Join(names, ", ")
}
