package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(t *testing.T, dir string)
		expectError bool
		validate    func(*testing.T, string, *Config)
	}{
		{
			name:        "defaults",
			setupEnv:    func(_ *testing.T, _ string) {},
			expectError: false,
			validate: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, filepath.Join(dir, "gitlab_member_manager.sqlite3"), cfg.DBPath)
				assert.Equal(t, "127.0.0.1:8787", cfg.ListenAddress)
				assert.Equal(t, 4, cfg.BatchConcurrency)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "console", cfg.LogFormat)
				assert.Equal(t, 30*time.Second, cfg.SearchCacheTTL)
				assert.Empty(t, cfg.BaseURL)
				assert.Empty(t, cfg.Token)
			},
		},
		{
			name: "environment overrides",
			setupEnv: func(t *testing.T, _ string) {
				t.Setenv("GMM_DB_PATH", "/tmp/roster.sqlite3")
				t.Setenv("GMM_LISTEN_ADDRESS", ":9999")
				t.Setenv("GMM_BATCH_CONCURRENCY", "2")
				t.Setenv("GMM_LOG_LEVEL", "DEBUG")
				t.Setenv("GMM_LOG_FORMAT", "json")
				t.Setenv("GMM_BASE_URL", " https://gitlab.example.com ")
				t.Setenv("GMM_TOKEN", "glpat-123")
				t.Setenv("GMM_SEARCH_CACHE_TTL", "0s")
			},
			expectError: false,
			validate: func(t *testing.T, _ string, cfg *Config) {
				assert.Equal(t, "/tmp/roster.sqlite3", cfg.DBPath)
				assert.Equal(t, ":9999", cfg.ListenAddress)
				assert.Equal(t, 2, cfg.BatchConcurrency)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "json", cfg.LogFormat)
				assert.Equal(t, "https://gitlab.example.com", cfg.BaseURL)
				assert.Equal(t, "glpat-123", cfg.Token)
				assert.Zero(t, cfg.SearchCacheTTL)
			},
		},
		{
			name: "config file",
			setupEnv: func(t *testing.T, dir string) {
				content := "listen_address: 127.0.0.1:7000\nbatch_concurrency: 6\n"
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
			},
			expectError: false,
			validate: func(t *testing.T, _ string, cfg *Config) {
				assert.Equal(t, "127.0.0.1:7000", cfg.ListenAddress)
				assert.Equal(t, 6, cfg.BatchConcurrency)
			},
		},
		{
			name: "environment wins over config file",
			setupEnv: func(t *testing.T, dir string) {
				content := "listen_address: 127.0.0.1:7000\n"
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
				t.Setenv("GMM_LISTEN_ADDRESS", "127.0.0.1:7001")
			},
			expectError: false,
			validate: func(t *testing.T, _ string, cfg *Config) {
				assert.Equal(t, "127.0.0.1:7001", cfg.ListenAddress)
			},
		},
		{
			name: "invalid log format",
			setupEnv: func(t *testing.T, _ string) {
				t.Setenv("GMM_LOG_FORMAT", "xml")
			},
			expectError: true,
		},
		{
			name: "broken config file",
			setupEnv: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("listen_address: [unclosed"), 0o600))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("GMM_CONFIG_DIR", dir)
			for _, key := range []string{
				"GMM_DB_PATH", "GMM_LISTEN_ADDRESS", "GMM_BATCH_CONCURRENCY",
				"GMM_LOG_LEVEL", "GMM_LOG_FORMAT", "GMM_BASE_URL", "GMM_TOKEN", "GMM_SEARCH_CACHE_TTL",
			} {
				t.Setenv(key, "")
				require.NoError(t, os.Unsetenv(key))
			}

			tt.setupEnv(t, dir)

			cfg, err := New()

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				tt.validate(t, dir, cfg)
			}
		})
	}
}

func TestNew_DefaultLogLevelOption(t *testing.T) {
	tests := []struct {
		name     string
		envLevel string
		expected string
	}{
		{name: "option replaces default", expected: "warn"},
		{name: "environment wins over option", envLevel: "debug", expected: "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GMM_CONFIG_DIR", t.TempDir())
			t.Setenv("GMM_LOG_LEVEL", tt.envLevel)
			if tt.envLevel == "" {
				require.NoError(t, os.Unsetenv("GMM_LOG_LEVEL"))
			}

			cfg, err := New(WithDefaultLogLevel(cliLogLevel))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.LogLevel)
		})
	}
}
