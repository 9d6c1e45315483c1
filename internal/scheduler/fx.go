package scheduler

import (
	"context"

	"github.com/theronnieguidry/teachers-assistant-sub004/internal/clock"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("scheduler",
	fx.Provide(func(cfg config.Config, db *gorm.DB, clk clock.Clock, log *zap.Logger) *Sweeper {
		return NewSweeper(Config{
			Schedule: cfg.SweepSchedule,
			MaxAge:   cfg.SweepMaxAge,
		}, db, clk, log)
	}),
	fx.Invoke(func(lc fx.Lifecycle, sweeper *Sweeper) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return sweeper.Start()
			},
			OnStop: func(ctx context.Context) error {
				sweeper.Stop()
				return nil
			},
		})
	}),
)
