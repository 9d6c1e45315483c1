package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestCalculateCredits(t *testing.T) {
	cases := []struct {
		name   string
		input  int64
		output int64
		want   int64
	}{
		{name: "zero usage", input: 0, output: 0, want: 0},
		{name: "minimum one credit", input: 100, output: 50, want: 1},
		{name: "output heavy", input: 0, output: 3000, want: 3},
		{name: "mixed usage", input: 8000, output: 2000, want: 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalculateCredits(tc.input, tc.output); got != tc.want {
				t.Fatalf("CalculateCredits(%d, %d) = %d, want %d", tc.input, tc.output, got, tc.want)
			}
		})
	}
}

func TestAnthropicGenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "<h1>Fractions Worksheet</h1>"},
			},
			"usage": map[string]any{
				"input_tokens":  1200,
				"output_tokens": 800,
			},
		})
	}))
	defer server.Close()

	client := NewAnthropicClient(server.URL, "test-key", zap.NewNop())
	result, err := client.GenerateContent(context.Background(), "make a worksheet", Config{Model: "claude-3-5-haiku-latest"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Content != "<h1>Fractions Worksheet</h1>" {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if result.InputTokens != 1200 || result.OutputTokens != 800 {
		t.Fatalf("unexpected usage %+v", result)
	}
}

func TestAnthropicMissingKey(t *testing.T) {
	client := NewAnthropicClient("http://localhost", "", zap.NewNop())
	_, err := client.GenerateContent(context.Background(), "prompt", Config{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing api key error, got %v", err)
	}
}

func TestOllamaGenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response":          "Plain worksheet text",
			"prompt_eval_count": 300,
			"eval_count":        500,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, zap.NewNop())
	result, err := client.GenerateContent(context.Background(), "make a worksheet", Config{Model: "llama3.2"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Content != "Plain worksheet text" {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if result.InputTokens != 300 || result.OutputTokens != 500 {
		t.Fatalf("unexpected usage %+v", result)
	}
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()
	registry.Register("fake", generatorFunc(func(ctx context.Context, prompt string, cfg Config) (*Result, error) {
		return &Result{Content: "ok"}, nil
	}))

	result, err := registry.GenerateContent(context.Background(), "p", Config{Provider: "FAKE"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Content != "ok" {
		t.Fatalf("unexpected content %q", result.Content)
	}

	if _, err := registry.GenerateContent(context.Background(), "p", Config{Provider: "missing"}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

type generatorFunc func(ctx context.Context, prompt string, cfg Config) (*Result, error)

func (f generatorFunc) GenerateContent(ctx context.Context, prompt string, cfg Config) (*Result, error) {
	return f(ctx, prompt, cfg)
}
