package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),

		genID: p.GenID,
	}
}

func (s *Service) Record(ctx context.Context, record *usagedomain.Record) error {
	if record == nil || strings.TrimSpace(record.UserID) == "" {
		return usagedomain.ErrInvalidUser
	}
	if record.ID == 0 {
		record.ID = s.genID.Generate()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.log.Error("failed to record usage", zap.Error(err), zap.String("job_id", record.JobID))
		return usagedomain.ErrStoreUnavailable
	}
	return nil
}

func (s *Service) ListByJob(ctx context.Context, jobID string) ([]usagedomain.Record, error) {
	var records []usagedomain.Record
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, user_id, job_id, document_kind, provider, model, input_tokens, output_tokens, credits, created_at
		 FROM usage_records
		 WHERE job_id = ?
		 ORDER BY created_at ASC, id ASC`,
		jobID,
	).Scan(&records).Error
	if err != nil {
		return nil, usagedomain.ErrStoreUnavailable
	}
	return records, nil
}

func (s *Service) TotalsByUser(ctx context.Context, userID string) (*usagedomain.Totals, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, usagedomain.ErrInvalidUser
	}

	var totals usagedomain.Totals
	err := s.db.WithContext(ctx).Raw(
		`SELECT
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens,
			COALESCE(SUM(credits), 0) AS credits,
			COUNT(*) AS records
		 FROM usage_records
		 WHERE user_id = ?`,
		userID,
	).Scan(&totals).Error
	if err != nil {
		return nil, usagedomain.ErrStoreUnavailable
	}
	return &totals, nil
}
