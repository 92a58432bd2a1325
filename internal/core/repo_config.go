package core

import "fmt"

// RepoConfig holds optional per-repository overrides loaded from a
// .merge-warden.yml file in the repository root.
type RepoConfig struct {
	// SkipPaths lists additional file base names to exclude from the diff
	// transcript, on top of the built-in lockfile and binary denylists.
	SkipPaths []string `yaml:"skip_paths"`
	// MinQuestions raises the question count for small diffs. Must stay
	// within the 3-5 range enforced by the orchestrator.
	MinQuestions int `yaml:"min_questions"`
}

// DefaultRepoConfig returns the configuration used when a repository does not
// carry a .merge-warden.yml file.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		MinQuestions: 3,
	}
}

// Validate checks the overrides against the orchestrator's question bounds.
func (c *RepoConfig) Validate() error {
	if c.MinQuestions < 3 || c.MinQuestions > 5 {
		return fmt.Errorf("min_questions must be between 3 and 5, got %d", c.MinQuestions)
	}
	return nil
}
