package domain

import (
	"context"
	"errors"
)

var (
	ErrInsufficientCredits = errors.New("insufficient_credits")
	ErrInvalidRequest      = errors.New("invalid_generation_request")
	ErrNoDocuments         = errors.New("no_documents_requested")
)

// Service runs the generation pipeline.
type Service interface {
	// Run executes one pipeline run, pushing progress through sink as
	// it happens. On failure the full reservation is refunded before
	// the error is returned.
	Run(ctx context.Context, req Request, sink EventSink) (*Outcome, error)

	// EstimateCost quotes the credit cost for an option set using the
	// same formula Run uses at admission.
	EstimateCost(opts Options) Estimate
}
