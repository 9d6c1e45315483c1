package readiness

import "time"

// Config controls probing, installation and overall warmup bounds.
type Config struct {
	BaseURL        string
	PrimaryModel   string
	FallbackModels []string
	AutoInstall    bool

	ProbeTimeout   time.Duration
	InstallTimeout time.Duration
	WarmupTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:11434",
		PrimaryModel:   "llama3.2",
		FallbackModels: []string{"llama3.2:1b", "mistral", "gemma2:2b"},
		AutoInstall:    true,
		ProbeTimeout:   3 * time.Second,
		InstallTimeout: 120 * time.Second,
		WarmupTimeout:  180 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.PrimaryModel == "" {
		c.PrimaryModel = defaults.PrimaryModel
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaults.ProbeTimeout
	}
	if c.InstallTimeout <= 0 {
		c.InstallTimeout = defaults.InstallTimeout
	}
	if c.WarmupTimeout <= 0 {
		c.WarmupTimeout = defaults.WarmupTimeout
	}
	return c
}

// candidates returns the preference-ordered, deduplicated model list.
func (c Config) candidates() []string {
	seen := make(map[string]struct{}, len(c.FallbackModels)+1)
	ordered := make([]string, 0, len(c.FallbackModels)+1)
	for _, name := range append([]string{c.PrimaryModel}, c.FallbackModels...) {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		ordered = append(ordered, name)
	}
	return ordered
}
