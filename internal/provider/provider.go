package provider

import (
	"context"
	"errors"
)

// Config selects the backend and model for one generation call.
type Config struct {
	Provider  string
	Model     string
	MaxTokens int
}

// Result is the normalized output of a generation call.
type Result struct {
	Content      string
	InputTokens  int64
	OutputTokens int64
}

// Generator is the uniform call surface over AI backends. Any returned
// error is treated as a generation failure by the pipeline.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, cfg Config) (*Result, error)
}

var (
	ErrUnknownProvider = errors.New("unknown_provider")
	ErrEmptyResponse   = errors.New("empty_provider_response")
	ErrMissingAPIKey   = errors.New("missing_provider_api_key")
)
