package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds process configuration loaded from the environment.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`

	DatabasePath string `envconfig:"DATABASE_PATH" default:"assistant.db"`

	// Hosted provider settings.
	AnthropicAPIKey  string `envconfig:"ANTHROPIC_API_KEY" default:""`
	AnthropicBaseURL string `envconfig:"ANTHROPIC_BASE_URL" default:"https://api.anthropic.com"`
	DefaultProvider  string `envconfig:"DEFAULT_PROVIDER" default:"anthropic"`
	DefaultModel     string `envconfig:"DEFAULT_MODEL" default:"claude-3-5-haiku-latest"`

	// Local runtime settings.
	OllamaURL            string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OllamaPrimaryModel   string        `envconfig:"OLLAMA_PRIMARY_MODEL" default:"llama3.2"`
	OllamaFallbackModels string        `envconfig:"OLLAMA_FALLBACK_MODELS" default:"llama3.2:1b,mistral,gemma2:2b"`
	OllamaAutoInstall    bool          `envconfig:"OLLAMA_AUTO_INSTALL" default:"true"`
	OllamaProbeTimeout   time.Duration `envconfig:"OLLAMA_PROBE_TIMEOUT" default:"3s"`
	OllamaInstallTimeout time.Duration `envconfig:"OLLAMA_INSTALL_TIMEOUT" default:"120s"`
	OllamaWarmupTimeout  time.Duration `envconfig:"OLLAMA_WARMUP_TIMEOUT" default:"180s"`

	// Credits.
	StarterCredits int64 `envconfig:"STARTER_CREDITS" default:"25"`

	// Stale-job sweep.
	SweepSchedule string        `envconfig:"SWEEP_SCHEDULE" default:"*/5 * * * *"`
	SweepMaxAge   time.Duration `envconfig:"SWEEP_MAX_AGE" default:"30m"`

	// Observability.
	ServiceName      string `envconfig:"SERVICE_NAME" default:"teachers-assistant"`
	TracingEnabled   bool   `envconfig:"TRACING_ENABLED" default:"false"`
	TracingEndpoint  string `envconfig:"TRACING_ENDPOINT" default:"localhost:4318"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"assistant"`
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("ASSISTANT", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// FallbackModelList splits the configured fallback models.
func (c Config) FallbackModelList() []string {
	parts := strings.Split(c.OllamaFallbackModels, ",")
	models := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			models = append(models, name)
		}
	}
	return models
}
