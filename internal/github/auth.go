// Package github provides functionality for interacting with the GitHub API:
// installation credential caching, pull request data access, comments, and
// commit statuses.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/sevigo/merge-warden/internal/core"
)

// refreshMargin is how long before true expiry a cached token is considered
// stale. GitHub installation tokens live one hour; refreshing ten minutes
// early keeps outbound calls clear of the expiry edge.
const refreshMargin = 10 * time.Minute

// TokenSource mints scoped installation tokens and caches them per
// installation. Safe for concurrent use from multiple event handlers;
// concurrent misses for the same installation are collapsed into a single
// exchange, though correctness does not depend on exactly-once behaviour.
type TokenSource interface {
	Token(ctx context.Context, installationID int64) (string, error)
}

type appTokenSource struct {
	appClient *github.Client
	cache     *gocache.Cache
	group     singleflight.Group
	logger    *slog.Logger
}

// NewTokenSource builds a TokenSource from a GitHub App ID and a PEM private
// key on disk. The key signs short-lived app JWTs (the transport backdates
// the issued-at claim for clock skew and caps expiry at GitHub's ten-minute
// maximum) which are exchanged for installation tokens on demand.
func NewTokenSource(appID int64, privateKeyPath string, logger *slog.Logger) (TokenSource, error) {
	privateKey, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, &core.CredentialError{Err: fmt.Errorf("failed to read private key from %s: %w", privateKeyPath, err)}
	}

	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, appID, privateKey)
	if err != nil {
		return nil, &core.CredentialError{Err: fmt.Errorf("failed to create GitHub App transport: %w", err)}
	}

	return &appTokenSource{
		appClient: github.NewClient(&http.Client{Transport: appTransport}),
		cache:     gocache.New(gocache.NoExpiration, 5*time.Minute),
		logger:    logger,
	}, nil
}

// Token returns a cached installation token, exchanging a fresh app JWT when
// the cache misses or the cached token is within the refresh margin.
func (s *appTokenSource) Token(ctx context.Context, installationID int64) (string, error) {
	key := strconv.FormatInt(installationID, 10)

	if cached, ok := s.cache.Get(key); ok {
		return cached.(string), nil
	}

	token, err, _ := s.group.Do(key, func() (any, error) {
		return s.exchange(ctx, installationID, key)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (s *appTokenSource) exchange(ctx context.Context, installationID int64, key string) (string, error) {
	s.logger.Info("exchanging app JWT for installation token", "installation_id", installationID)

	token, _, err := s.appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return "", &core.CredentialError{Err: fmt.Errorf("failed to create installation token for installation %d: %w", installationID, err)}
	}
	if token.GetToken() == "" {
		return "", &core.CredentialError{Err: fmt.Errorf("received an empty installation token for installation %d", installationID)}
	}

	ttl := time.Until(token.GetExpiresAt().Time) - refreshMargin
	if ttl <= 0 {
		ttl = time.Minute
	}
	s.cache.Set(key, token.GetToken(), ttl)

	s.logger.Info("cached installation token",
		"installation_id", installationID,
		"expires_at", token.GetExpiresAt(),
		"cache_ttl", ttl.Round(time.Second))
	return token.GetToken(), nil
}
