package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chatarchiver/pkg/logger"
)

// Config holds all configuration options for the chat archiver
type Config struct {
	// Remote API settings
	API APIConfig `yaml:"api" json:"api"`

	// Archive output settings
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Emoticon catalog settings
	Emoticons EmoticonsConfig `yaml:"emoticons" json:"emoticons"`

	// Rate limiting for message-list API calls
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry settings for emoticon asset downloads
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// APIConfig holds remote API settings
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Token     string        `yaml:"token" json:"token"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// ArchiveConfig holds archive directory settings
type ArchiveConfig struct {
	TargetDir string `yaml:"target_dir" json:"target_dir"`
	PageSize  int    `yaml:"page_size" json:"page_size"`
}

// EmoticonsConfig holds emoticon catalog settings
type EmoticonsConfig struct {
	CatalogURL   string `yaml:"catalog_url" json:"catalog_url"`
	AssetBaseURL string `yaml:"asset_base_url" json:"asset_base_url"`
	Dir          string `yaml:"dir" json:"dir"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://graph.microsoft.com/v1.0",
			UserAgent: "chatarchiver/1.0",
			Timeout:   30 * time.Second,
		},
		Archive: ArchiveConfig{
			TargetDir: "./archive",
			PageSize:  50,
		},
		Emoticons: EmoticonsConfig{
			CatalogURL:   "https://statics.teams.cdn.office.net/evergreen-assets/personal-expressions/v1/metadata",
			AssetBaseURL: "https://statics.teams.cdn.office.net/evergreen-assets/personal-expressions/v1/assets",
			Dir:          "./archive/emoticons",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// Load builds the effective configuration: defaults, then .env, then config
// file, then environment variables, then explicit flag overrides.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	// Best-effort: a missing .env file is not an error
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.applyFlags(flags)

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("CHATARCH_TOKEN"); token != "" {
		c.API.Token = token
	}
	if baseURL := os.Getenv("CHATARCH_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if userAgent := os.Getenv("CHATARCH_USER_AGENT"); userAgent != "" {
		c.API.UserAgent = userAgent
	}
	if targetDir := os.Getenv("CHATARCH_TARGET_DIR"); targetDir != "" {
		c.Archive.TargetDir = targetDir
	}
	if emoticonDir := os.Getenv("CHATARCH_EMOTICON_DIR"); emoticonDir != "" {
		c.Emoticons.Dir = emoticonDir
	}
	if rpm := os.Getenv("CHATARCH_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("CHATARCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// applyFlags applies command-line flag overrides
func (c *Config) applyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "token":
			c.API.Token = value.(string)
		case "target-dir":
			c.Archive.TargetDir = value.(string)
		case "emoticon-dir":
			c.Emoticons.Dir = value.(string)
		case "rate-limit":
			c.RateLimit.RequestsPerMinute = value.(int)
		case "log-level":
			c.Logging.Level = value.(string)
		}
	}
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".chatarchiver.yaml",
		".chatarchiver.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "chatarchiver", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "chatarchiver", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".chatarchiver.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.Token == "" {
		errs = append(errs, errors.New("bearer token is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}
	if c.Archive.TargetDir == "" {
		errs = append(errs, errors.New("archive target directory is required"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	return nil
}
