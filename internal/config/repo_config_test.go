package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoConfig(t *testing.T) {
	t.Run("empty data returns defaults and not-found", func(t *testing.T) {
		cfg, err := ParseRepoConfig(nil)
		assert.ErrorIs(t, err, ErrRepoConfigNotFound)
		require.NotNil(t, cfg)
		assert.Equal(t, 3, cfg.MinQuestions)
		assert.Empty(t, cfg.SkipPaths)
	})

	t.Run("valid overrides", func(t *testing.T) {
		data := []byte("skip_paths:\n  - generated.pb.go\n  - schema.sql\nmin_questions: 4\n")

		cfg, err := ParseRepoConfig(data)

		require.NoError(t, err)
		assert.Equal(t, []string{"generated.pb.go", "schema.sql"}, cfg.SkipPaths)
		assert.Equal(t, 4, cfg.MinQuestions)
	})

	t.Run("partial overrides keep defaults", func(t *testing.T) {
		cfg, err := ParseRepoConfig([]byte("skip_paths: [vendor.lock]\n"))

		require.NoError(t, err)
		assert.Equal(t, 3, cfg.MinQuestions)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseRepoConfig([]byte(":\t this is not yaml"))
		assert.ErrorIs(t, err, ErrRepoConfigParsing)
	})

	t.Run("out of range question count", func(t *testing.T) {
		_, err := ParseRepoConfig([]byte("min_questions: 9\n"))
		assert.ErrorIs(t, err, ErrRepoConfigParsing)
	})
}
