package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/tracing"
	"go.uber.org/zap"
)

// OllamaClient calls a local Ollama-compatible runtime.
type OllamaClient struct {
	baseURL string
	log     *zap.Logger
	http    *http.Client
}

// NewOllamaClient builds a local-runtime generation client.
func NewOllamaClient(baseURL string, log *zap.Logger) *OllamaClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.Named("provider.ollama"),
		http:    tracing.WrapHTTPClient(&http.Client{Timeout: 10 * time.Minute}),
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int64  `json:"prompt_eval_count"`
	EvalCount       int64  `json:"eval_count"`
}

func (c *OllamaClient) GenerateContent(ctx context.Context, prompt string, cfg Config) (*Result, error) {
	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:  cfg.Model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama: HTTP %d", resp.StatusCode)
	}

	var parsed ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return nil, ErrEmptyResponse
	}

	return &Result{
		Content:      parsed.Response,
		InputTokens:  parsed.PromptEvalCount,
		OutputTokens: parsed.EvalCount,
	}, nil
}
