package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	projectdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/project/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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

func NewService(p ServiceParam) projectdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("project.service"),

		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, userID, title string, options map[string]interface{}) (*projectdomain.Project, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, projectdomain.ErrInvalidUser
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, projectdomain.ErrInvalidTitle
	}

	now := time.Now().UTC()
	project := &projectdomain.Project{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Title:     title,
		Status:    projectdomain.StatusPending,
		Options:   datatypes.JSONMap(options),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		s.log.Error("failed to create project", zap.Error(err))
		return nil, projectdomain.ErrStoreUnavailable
	}
	return project, nil
}

func (s *Service) Get(ctx context.Context, userID string, id snowflake.ID) (*projectdomain.Project, error) {
	var project projectdomain.Project
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, user_id, title, status, error_message, credits_used, options, created_at, updated_at
		 FROM projects
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&project).Error
	if err != nil {
		return nil, projectdomain.ErrStoreUnavailable
	}
	if project.ID == 0 {
		return nil, projectdomain.ErrProjectNotFound
	}
	return &project, nil
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]projectdomain.Project, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var projects []projectdomain.Project
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, user_id, title, status, error_message, credits_used, options, created_at, updated_at
		 FROM projects
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	).Scan(&projects).Error
	if err != nil {
		return nil, projectdomain.ErrStoreUnavailable
	}
	return projects, nil
}

func (s *Service) SetStatus(ctx context.Context, id snowflake.ID, status projectdomain.Status, errorMessage string) error {
	result := s.db.WithContext(ctx).Exec(
		`UPDATE projects SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, errorMessage, time.Now().UTC(), id,
	)
	if result.Error != nil {
		return projectdomain.ErrStoreUnavailable
	}
	if result.RowsAffected == 0 {
		return projectdomain.ErrProjectNotFound
	}
	return nil
}

func (s *Service) RecordUsage(ctx context.Context, id snowflake.ID, creditsUsed int64) error {
	result := s.db.WithContext(ctx).Exec(
		`UPDATE projects SET credits_used = credits_used + ?, updated_at = ? WHERE id = ?`,
		creditsUsed, time.Now().UTC(), id,
	)
	if result.Error != nil {
		return projectdomain.ErrStoreUnavailable
	}
	if result.RowsAffected == 0 {
		return projectdomain.ErrProjectNotFound
	}
	return nil
}

func (s *Service) CreateVersion(ctx context.Context, version *projectdomain.Version) error {
	if version.ID == 0 {
		version.ID = s.genID.Generate()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(version).Error; err != nil {
		s.log.Error("failed to create project version", zap.Error(err))
		return projectdomain.ErrStoreUnavailable
	}
	return nil
}

func (s *Service) LatestVersion(ctx context.Context, projectID snowflake.ID) (*projectdomain.Version, error) {
	var version projectdomain.Version
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, project_id, worksheet_html, lesson_plan_html, answer_key_html, provider, model, mode, created_at
		 FROM project_versions
		 WHERE project_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		projectID,
	).Scan(&version).Error
	if err != nil {
		return nil, projectdomain.ErrStoreUnavailable
	}
	if version.ID == 0 {
		return nil, projectdomain.ErrVersionNotFound
	}
	return &version, nil
}
