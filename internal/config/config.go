package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	do "github.com/samber/do/v2"
	"github.com/spf13/viper"
)

const (
	envPrefix = "GMM"
	appDir    = "gitlab-member-manager"
	dbFile    = "gitlab_member_manager.sqlite3"
)

var Package = do.Package(
	do.Lazy[*Config](NewConfig),
)

// CLIPackage provides the configuration of the interactive CLI.
// Its logger defaults to warnings so routine logs stay out of command output.
var CLIPackage = do.Package(
	do.Lazy[*Config](NewCLIConfig),
)

const cliLogLevel = "warn"

// Option adjusts the defaults applied before environment and config file are read.
type Option func(v *viper.Viper)

// WithDefaultLogLevel replaces the default log level. GMM_LOG_LEVEL and config.yaml still win.
func WithDefaultLogLevel(level string) Option {
	return func(v *viper.Viper) {
		v.SetDefault("log_level", level)
	}
}

// Config holds the application configuration.
type Config struct {
	DBPath           string
	ListenAddress    string
	BatchConcurrency int
	LogLevel         string
	LogFormat        string
	// SearchCacheTTL bounds how long project search pages are reused, 0 disables caching.
	SearchCacheTTL time.Duration

	// BaseURL and Token seed the connection profile when none is stored yet.
	BaseURL string
	Token   string
}

// NewConfig creates a new configuration (for DI).
func NewConfig(_ do.Injector) (*Config, error) {
	return New()
}

// NewCLIConfig creates the CLI configuration (for DI).
func NewCLIConfig(_ do.Injector) (*Config, error) {
	return New(WithDefaultLogLevel(cliLogLevel))
}

// New creates a new configuration from GMM_* environment variables and an optional
// config.yaml in the user config directory.
func New(opts ...Option) (*Config, error) {
	v := viper.New()

	baseDir, err := configDir()
	if err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("db_path", filepath.Join(baseDir, dbFile))
	v.SetDefault("listen_address", "127.0.0.1:8787")
	v.SetDefault("batch_concurrency", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("search_cache_ttl", "30s")
	v.SetDefault("base_url", "")
	v.SetDefault("token", "")

	for _, opt := range opts {
		opt(v)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(baseDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DBPath:           strings.TrimSpace(v.GetString("db_path")),
		ListenAddress:    strings.TrimSpace(v.GetString("listen_address")),
		BatchConcurrency: v.GetInt("batch_concurrency"),
		LogLevel:         strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:        strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		SearchCacheTTL:   v.GetDuration("search_cache_ttl"),
		BaseURL:          strings.TrimSpace(v.GetString("base_url")),
		Token:            strings.TrimSpace(v.GetString("token")),
	}

	if cfg.DBPath == "" {
		return nil, errors.New("GMM_DB_PATH must not be empty")
	}

	if cfg.SearchCacheTTL < 0 {
		return nil, fmt.Errorf("search cache TTL must not be negative, got %s", cfg.SearchCacheTTL)
	}

	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("unsupported log format %q, use console or json", cfg.LogFormat)
	}

	return cfg, nil
}

func configDir() (string, error) {
	if dir := os.Getenv(envPrefix + "_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}

	return filepath.Join(dir, appDir), nil
}
