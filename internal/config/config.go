// Package config loads runtime settings from defaults, a .env file, an
// optional YAML file and GHPA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/analysis"
	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
)

const (
	envPrefix     = "GHPA_"
	envConfigPath = "GHPA_CONFIG"
	envToken      = "GITHUB_TOKEN"
)

// Config is the process configuration
type Config struct {
	// GitHubToken is optional; without it GitHub allows 60 requests per hour.
	GitHubToken  string        `koanf:"github_token"`
	GitHubAPIURL string        `koanf:"github_api_url" validate:"required,url"`
	HTTPTimeout  time.Duration `koanf:"http_timeout" validate:"gt=0"`

	IncludeForks      bool `koanf:"include_forks"`
	CheckReadme       bool `koanf:"check_readme"`
	ReadmeConcurrency int  `koanf:"readme_concurrency" validate:"gte=1,lte=32"`
	MaxRepoPages      int  `koanf:"max_repo_pages" validate:"gte=1,lte=10"`

	Addr            string        `koanf:"addr" validate:"required"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	RateLimitPerMin int           `koanf:"rate_limit_per_min" validate:"gte=1"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`

	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	Scoring analysis.Policy `koanf:"scoring"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		GitHubAPIURL:      "https://api.github.com",
		HTTPTimeout:       10 * time.Second,
		IncludeForks:      false,
		CheckReadme:       false,
		ReadmeConcurrency: 4,
		MaxRepoPages:      5,
		Addr:              ":8080",
		RequestTimeout:    30 * time.Second,
		RateLimitPerMin:   60,
		LogLevel:          "info",
		Scoring:           analysis.DefaultPolicy(),
	}
}

// DefaultAllowedOrigins is used when no CORS origins are configured
func DefaultAllowedOrigins() []string {
	return []string{"http://localhost:8080", "http://127.0.0.1:8080"}
}

// Load builds a Config by layering, low to high:
//  1. defaults
//  2. .env in the working directory (never overrides the real environment)
//  3. YAML file at path, or at $GHPA_CONFIG when path is empty
//  4. GHPA_* environment variables; "__" separates nested keys
//  5. GITHUB_TOKEN when no token was configured
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read config file %s", path), err)
		}
	}

	// GHPA_SCORING__STRENGTH_THRESHOLD -> scoring.strength_threshold
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, apperrors.NewConfigurationError("failed to read environment", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, apperrors.NewConfigurationError("invalid configuration value", err)
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultAllowedOrigins()
	}

	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv(envToken)
	}
	cfg.GitHubToken = strings.TrimSpace(cfg.GitHubToken)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and the scoring policy
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return apperrors.NewConfigurationError("invalid configuration: "+strings.Join(fields, ", "), err)
		}
		return apperrors.NewConfigurationError("invalid configuration", err)
	}

	return c.Scoring.Validate()
}

// Redacted returns a copy safe to log
func (c *Config) Redacted() Config {
	out := *c
	if out.GitHubToken != "" {
		out.GitHubToken = "****"
	}
	return out
}
