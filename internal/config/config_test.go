package config

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithEnv(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for k, v := range env {
		t.Setenv(k, v)
	}
	return LoadConfig()
}

func TestLoadConfigRequiredFields(t *testing.T) {
	t.Run("missing app id", func(t *testing.T) {
		_, err := loadWithEnv(t, map[string]string{
			"GITHUB_WEBHOOK_SECRET": "s3cret",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GITHUB_APP_ID")
	})

	t.Run("missing webhook secret", func(t *testing.T) {
		_, err := loadWithEnv(t, map[string]string{
			"GITHUB_APP_ID": "1234",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GITHUB_WEBHOOK_SECRET")
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"GITHUB_APP_ID":         "1234",
		"GITHUB_WEBHOOK_SECRET": "s3cret",
	})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, "gemma3:latest", cfg.GeneratorModelName)
	assert.Equal(t, 5, cfg.MaxWorkers)
	assert.Equal(t, int64(1234), cfg.GitHubAppID)
	require.NotNil(t, cfg.Database)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadConfigGeminiModelFallback(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"GITHUB_APP_ID":         "1234",
		"GITHUB_WEBHOOK_SECRET": "s3cret",
		"LLM_PROVIDER":          "gemini",
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeneratorModelName)
}

func TestLoadConfigLogLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg, err := loadWithEnv(t, map[string]string{
				"GITHUB_APP_ID":         "1234",
				"GITHUB_WEBHOOK_SECRET": "s3cret",
				"LOG_LEVEL":             tt.level,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LogLevel)
		})
	}
}
