package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/clock"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/config"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/credit"
	creditdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/credit/domain"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/events"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/generation"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/migration"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/project"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/provider"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/readiness"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/scheduler"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/seed"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/server"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/usage"
	"github.com/theronnieguidry/teachers-assistant-sub004/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		fx.Provide(events.NewOutbox),

		credit.Module,
		project.Module,
		usage.Module,
		readiness.Module,
		provider.Module,
		generation.Module,
		scheduler.Module,

		fx.Invoke(Migrate),
		fx.Invoke(SeedStarterAccount),

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// Migrate applies the embedded SQL migrations before anything touches
// the store.
func Migrate(gdb *gorm.DB, log *zap.Logger) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

// SeedStarterAccount grants the default local account its starter
// credits on first boot.
func SeedStarterAccount(cfg config.Config, credits creditdomain.Service, log *zap.Logger) error {
	if err := seed.EnsureStarterAccount(context.Background(), credits, cfg.StarterCredits); err != nil {
		return err
	}
	log.Info("starter account ready", zap.String("user_id", seed.DefaultUserID))
	return nil
}
