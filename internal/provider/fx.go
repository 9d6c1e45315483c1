package provider

import (
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("provider",
	fx.Provide(func(cfg config.Config, log *zap.Logger) *Registry {
		registry := NewRegistry()
		registry.Register("anthropic", NewAnthropicClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, log))
		registry.Register("ollama", NewOllamaClient(cfg.OllamaURL, log))
		return registry
	}),
)
