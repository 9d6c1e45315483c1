package readiness

import (
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("readiness",
	fx.Provide(func(cfg config.Config, log *zap.Logger) *Manager {
		return NewManager(Config{
			BaseURL:        cfg.OllamaURL,
			PrimaryModel:   cfg.OllamaPrimaryModel,
			FallbackModels: cfg.FallbackModelList(),
			AutoInstall:    cfg.OllamaAutoInstall,
			ProbeTimeout:   cfg.OllamaProbeTimeout,
			InstallTimeout: cfg.OllamaInstallTimeout,
			WarmupTimeout:  cfg.OllamaWarmupTimeout,
		}, log)
	}),
)
