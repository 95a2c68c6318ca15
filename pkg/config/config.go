package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for optiflow-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (the provider API key) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// AllowedOrigin is the single origin permitted by the CORS middleware.
	AllowedOrigin string `yaml:"allowed_origin" env:"ALLOWED_ORIGIN" env-default:"http://localhost:5173"`

	// Upload limits for the tabular ingestor.
	Upload UploadConfig `yaml:"upload"`

	// LLM holds the completion provider configuration.
	LLM LLMConfig `yaml:"llm"`
}

// UploadConfig holds limits applied to uploaded tabular files.
type UploadConfig struct {
	// MaxSizeBytes is the largest accepted file size.
	MaxSizeBytes int64 `yaml:"max_size_bytes" env:"UPLOAD_MAX_SIZE_BYTES" env-default:"5242880"`
	// MaxPreviewRows bounds how many data rows are retained after parsing.
	MaxPreviewRows int `yaml:"max_preview_rows" env:"UPLOAD_MAX_PREVIEW_ROWS" env-default:"20"`
}

// LLMConfig holds the completion provider settings. The model identifier
// and sampling parameters are fixed server-side; callers of the chat proxy
// cannot override them.
type LLMConfig struct {
	// Provider selects the upstream adapter: "openai" or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	// BaseURL overrides the provider's default API endpoint (optional,
	// used for OpenAI-compatible local endpoints).
	BaseURL string `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	// Model is the fixed model identifier sent on every request.
	Model string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	// APIKey is the server-held provider credential. Absence is reported
	// per-request as a configuration error, not at startup.
	APIKey      string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.7"`
	MaxTokens   int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"1024"`
}

// IsConfigured returns true if a provider credential is present.
func (c *LLMConfig) IsConfigured() bool {
	return c.APIKey != ""
}

// Load reads configuration from config.yaml with environment variable
// overrides. When no config.yaml exists, configuration comes from the
// environment alone. The version parameter is injected at build time and
// set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Auto-derive BaseURL from Port if not explicitly set.
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("invalid llm provider: %q", c.LLM.Provider)
	}
	if c.Upload.MaxSizeBytes <= 0 {
		return fmt.Errorf("upload max_size_bytes must be positive")
	}
	if c.Upload.MaxPreviewRows <= 0 {
		return fmt.Errorf("upload max_preview_rows must be positive")
	}
	return nil
}
