package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	MTP      MTPConfig
	Paths    PathsConfig
	Cache    CacheConfig
	PDF      PDFConfig
	Log      LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds the durable store location. URL accepts a plain
// SQLite file path, a sqlite:// URL, or a postgres:// DSN.
type DatabaseConfig struct {
	URL string
}

// MTPConfig holds upstream catalog service settings
type MTPConfig struct {
	Username   string
	Password   string
	ServiceURL string
	Timeout    time.Duration
}

// PathsConfig holds the filesystem roots for templates and generated output
type PathsConfig struct {
	TemplateDir string
	OutputDir   string
}

// CacheConfig holds refresh retry policy and staleness reporting
type CacheConfig struct {
	RetryAttempts int
	RetryBackoff  time.Duration
	StaleAfter    time.Duration
}

// PDFConfig holds HTML-to-PDF conversion settings
type PDFConfig struct {
	Timeout   time.Duration
	NoSandbox bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with NEWSLETTER_ prefix (e.g., NEWSLETTER_MTP_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/mtp-newsletter")
	v.AddConfigPath("/opt/mtp-newsletter")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("NEWSLETTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
		MTP: MTPConfig{
			Username:   v.GetString("mtp.username"),
			Password:   v.GetString("mtp.password"),
			ServiceURL: v.GetString("mtp.service_url"),
			Timeout:    v.GetDuration("mtp.timeout"),
		},
		Paths: PathsConfig{
			TemplateDir: v.GetString("paths.template_dir"),
			OutputDir:   v.GetString("paths.output_dir"),
		},
		Cache: CacheConfig{
			RetryAttempts: v.GetInt("cache.retry_attempts"),
			RetryBackoff:  v.GetDuration("cache.retry_backoff"),
			StaleAfter:    v.GetDuration("cache.stale_after"),
		},
		PDF: PDFConfig{
			Timeout:   v.GetDuration("pdf.timeout"),
			NoSandbox: v.GetBool("pdf.no_sandbox"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "mtp-newsletter"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = "/opt/mtp-newsletter/data/newsletter.db"
	}
	if cfg.MTP.Timeout == 0 {
		cfg.MTP.Timeout = 30 * time.Second
	}
	if cfg.Paths.TemplateDir == "" {
		cfg.Paths.TemplateDir = "/opt/mtp-newsletter/templates"
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = "/opt/mtp-newsletter/output"
	}
	if cfg.Cache.RetryAttempts == 0 {
		cfg.Cache.RetryAttempts = 3
	}
	if cfg.Cache.RetryBackoff == 0 {
		cfg.Cache.RetryBackoff = time.Second
	}
	if cfg.Cache.StaleAfter == 0 {
		cfg.Cache.StaleAfter = 24 * time.Hour
	}
	if cfg.PDF.Timeout == 0 {
		cfg.PDF.Timeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Cache.RetryAttempts <= 0 {
		return fmt.Errorf("cache.retry_attempts must be positive")
	}
	if c.Cache.RetryBackoff <= 0 {
		return fmt.Errorf("cache.retry_backoff must be positive")
	}
	if c.MTP.Timeout <= 0 {
		return fmt.Errorf("mtp.timeout must be positive")
	}
	return nil
}

// ValidateMTPCredentials checks that the upstream credentials required for a
// cache refresh are present. Not part of validate because commands that never
// touch the upstream must work without them.
func (c *Config) ValidateMTPCredentials() error {
	var missing []string
	if c.MTP.Username == "" {
		missing = append(missing, "NEWSLETTER_MTP_USERNAME")
	}
	if c.MTP.Password == "" {
		missing = append(missing, "NEWSLETTER_MTP_PASSWORD")
	}
	if c.MTP.ServiceURL == "" {
		missing = append(missing, "NEWSLETTER_MTP_SERVICE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required MTP API configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
