package metrics

import (
	"context"

	"bingo-tracker/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func New(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) *Manager {
	m := NewManager()

	if cfg.PushgatewayURL != "" {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if err := m.Push(ctx, cfg.PushgatewayURL); err != nil {
					logger.Warn().Err(err).Str("url", cfg.PushgatewayURL).Msg("failed to push metrics")
					return nil
				}
				logger.Debug().Str("url", cfg.PushgatewayURL).Msg("metrics pushed")
				return nil
			},
		})
	}
	return m
}

var Module = fx.Provide(New)
