package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// Service records and reports AI token usage.
type Service interface {
	Record(ctx context.Context, record *Record) error
	ListByJob(ctx context.Context, jobID string) ([]Record, error)
	TotalsByUser(ctx context.Context, userID string) (*Totals, error)
}
