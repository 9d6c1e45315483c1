package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrProjectNotFound  = errors.New("project_not_found")
	ErrVersionNotFound  = errors.New("version_not_found")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// Service manages project records and their generated versions.
type Service interface {
	Create(ctx context.Context, userID, title string, options map[string]interface{}) (*Project, error)
	Get(ctx context.Context, userID string, id snowflake.ID) (*Project, error)
	List(ctx context.Context, userID string, limit int) ([]Project, error)
	SetStatus(ctx context.Context, id snowflake.ID, status Status, errorMessage string) error
	RecordUsage(ctx context.Context, id snowflake.ID, creditsUsed int64) error
	CreateVersion(ctx context.Context, version *Version) error
	LatestVersion(ctx context.Context, projectID snowflake.ID) (*Version, error)
}
