// ABOUTME: Configuration loading and parsing for cyborg-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete cyborg-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Provider ProviderConfig `yaml:"provider"`
	Limits   LimitsConfig   `yaml:"limits"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// ProviderConfig holds completion provider configuration
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`

	RequestTimeout    time.Duration `yaml:"-"`
	RequestTimeoutRaw string        `yaml:"request_timeout"`
}

// LimitConfig describes one fixed-window rate limit
type LimitConfig struct {
	MaxRequests int `yaml:"max_requests"`

	Window    time.Duration `yaml:"-"`
	WindowRaw string        `yaml:"window"`
}

// LimitsConfig holds the per-category rate limit table.
// Categories is keyed by request category; Global is the shared ceiling
// applied after the per-identity check.
type LimitsConfig struct {
	Categories map[string]LimitConfig `yaml:"categories"`
	Global     LimitConfig            `yaml:"global"`

	SweepInterval    time.Duration `yaml:"-"`
	SweepIntervalRaw string        `yaml:"sweep_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment
// variable values. Unset variables are replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts raw duration strings into time.Duration fields
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Provider.RequestTimeoutRaw != "" {
		cfg.Provider.RequestTimeout, err = time.ParseDuration(cfg.Provider.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("provider.request_timeout: %w", err)
		}
	}

	if cfg.Limits.SweepIntervalRaw != "" {
		cfg.Limits.SweepInterval, err = time.ParseDuration(cfg.Limits.SweepIntervalRaw)
		if err != nil {
			return fmt.Errorf("limits.sweep_interval: %w", err)
		}
	}

	for name, limit := range cfg.Limits.Categories {
		if limit.WindowRaw == "" {
			continue
		}
		limit.Window, err = time.ParseDuration(limit.WindowRaw)
		if err != nil {
			return fmt.Errorf("limits.categories.%s.window: %w", name, err)
		}
		cfg.Limits.Categories[name] = limit
	}

	if cfg.Limits.Global.WindowRaw != "" {
		cfg.Limits.Global.Window, err = time.ParseDuration(cfg.Limits.Global.WindowRaw)
		if err != nil {
			return fmt.Errorf("limits.global.window: %w", err)
		}
	}

	return nil
}

// applyDefaults fills in defaults for optional fields
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = ":8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/cyborg.db"
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = "gpt-4o-mini"
	}
	if cfg.Provider.RequestTimeout == 0 {
		cfg.Provider.RequestTimeout = 60 * time.Second
	}
	if cfg.Limits.SweepInterval == 0 {
		cfg.Limits.SweepInterval = 60 * time.Second
	}
	if cfg.Limits.Categories == nil {
		cfg.Limits.Categories = make(map[string]LimitConfig)
	}
	if _, ok := cfg.Limits.Categories["chat"]; !ok {
		cfg.Limits.Categories["chat"] = LimitConfig{Window: time.Minute, MaxRequests: 20}
	}
	if cfg.Limits.Global.Window == 0 {
		cfg.Limits.Global = LimitConfig{Window: time.Minute, MaxRequests: 200}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that required fields are present and well-formed
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	for name, limit := range c.Limits.Categories {
		if limit.MaxRequests <= 0 {
			return fmt.Errorf("limits.categories.%s.max_requests must be positive", name)
		}
		if limit.Window <= 0 {
			return fmt.Errorf("limits.categories.%s.window must be positive", name)
		}
	}
	if c.Limits.Global.MaxRequests <= 0 {
		return fmt.Errorf("limits.global.max_requests must be positive")
	}
	return nil
}
