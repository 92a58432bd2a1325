package github

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/merge-warden/internal/core"
)

func TestNewTokenSourceMissingKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	_, err := NewTokenSource(12345, filepath.Join(t.TempDir(), "no-such-key.pem"), logger)

	require.Error(t, err)
	var credErr *core.CredentialError
	assert.ErrorAs(t, err, &credErr)
}

func TestNewTokenSourceMalformedKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	keyPath := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(keyPath, []byte("not a pem key"), 0o600))

	_, err := NewTokenSource(12345, keyPath, logger)

	require.Error(t, err)
	var credErr *core.CredentialError
	assert.ErrorAs(t, err, &credErr)
}
