package main

import (
	"context"
	"fmt"

	"bingo-tracker/internal/constants"
	fxmodules "bingo-tracker/internal/fx"

	"go.uber.org/fx"
)

// execute builds an app from the core graph plus opts, starts it, runs fn
// and always stops it so lifecycle hooks release what they acquired.
func execute(ctx context.Context, opts fx.Option, fn func(ctx context.Context) error) error {
	app := fx.New(
		fxmodules.Core,
		opts,
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	runErr := fn(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop application: %w", err)
	}
	return runErr
}
