// Package scheduler runs the stale-run sweeper. A crash mid-pipeline
// leaves a project stuck in the generating status; the sweeper marks
// such rows failed so the user sees a terminal state instead of an
// eternal spinner. It never refunds: the reservation state of an
// interrupted job is unknown, so it is logged for operator review.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/clock"
	projectdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/project/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	Schedule string
	MaxAge   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Schedule == "" {
		c.Schedule = "*/5 * * * *"
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 30 * time.Minute
	}
	return c
}

type staleProject struct {
	ID        int64
	UserID    string
	UpdatedAt time.Time
}

// Sweeper periodically fails projects stuck in the generating status.
type Sweeper struct {
	cfg   Config
	db    *gorm.DB
	clock clock.Clock
	log   *zap.Logger
	cron  *cron.Cron
}

func NewSweeper(cfg Config, db *gorm.DB, clk clock.Clock, log *zap.Logger) *Sweeper {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Sweeper{
		cfg:   cfg.withDefaults(),
		db:    db,
		clock: clk,
		log:   log.Named("scheduler.sweeper"),
	}
}

// Start schedules the sweep. It returns an error only when the cron
// expression cannot be parsed.
func (s *Sweeper) Start() error {
	c := cron.New()
	_, err := c.AddFunc(s.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.SweepOnce(ctx); err != nil {
			s.log.Error("sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// SweepOnce fails every project that has sat in the generating status
// longer than MaxAge. It returns how many rows were swept.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.cfg.MaxAge)

	var stale []staleProject
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, user_id, updated_at
		 FROM projects
		 WHERE status = ? AND updated_at < ?
		 ORDER BY updated_at ASC
		 LIMIT 100`,
		projectdomain.StatusGenerating, cutoff,
	).Scan(&stale).Error
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, row := range stale {
		result := s.db.WithContext(ctx).Exec(
			`UPDATE projects
			 SET status = ?, error_message = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			projectdomain.StatusFailed, "generation interrupted", s.clock.Now(),
			row.ID, projectdomain.StatusGenerating,
		)
		if result.Error != nil {
			s.log.Error("failed to sweep stale project", zap.Int64("project_id", row.ID), zap.Error(result.Error))
			continue
		}
		if result.RowsAffected == 0 {
			continue
		}
		swept++
		s.log.Warn("swept stale generation",
			zap.Int64("project_id", row.ID),
			zap.String("user_id", row.UserID),
			zap.Time("last_update", row.UpdatedAt),
		)
	}
	return swept, nil
}
