package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/merge-warden/internal/core"
)

var (
	ErrRepoConfigNotFound = errors.New("repo config file not found")
	ErrRepoConfigParsing  = errors.New("repo config parsing failed")
)

// ParseRepoConfig parses the raw contents of a repository's .merge-warden.yml
// file. Nil or empty data means the repository carries no overrides and the
// defaults are returned along with ErrRepoConfigNotFound.
func ParseRepoConfig(data []byte) (*core.RepoConfig, error) {
	if len(data) == 0 {
		return core.DefaultRepoConfig(), ErrRepoConfigNotFound
	}

	cfg := core.DefaultRepoConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepoConfigParsing, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepoConfigParsing, err)
	}
	return cfg, nil
}
