package github

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/merge-warden/internal/core"
)

// ChangedFile holds the changed-file record for a single file in a pull
// request, as reported by the files API.
type ChangedFile struct {
	Filename  string
	Status    string
	Additions int
	Deletions int
	Patch     string
}

// Client defines the set of GitHub operations the review workflow needs:
// fetching the changed files of a pull request, posting comments, setting
// commit statuses, and reading the optional per-repo config file.
//
//go:generate mockgen -destination=../mocks/mock_github_client.go -package=mocks . Client,ClientFactory
type Client interface {
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error)
	SetCommitStatus(ctx context.Context, owner, repo, sha, state, description string) error
	GetRepoConfigFile(ctx context.Context, owner, repo string) ([]byte, error)
}

// ClientFactory creates a Client authorized for one specific installation.
type ClientFactory interface {
	ClientFor(ctx context.Context, installationID int64) (Client, error)
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewClientWithToken wraps the official go-github client authenticated with
// an installation (or personal access) token.
func NewClientWithToken(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &gitHubClient{client: github.NewClient(tc), logger: logger}
}

type tokenClientFactory struct {
	tokens TokenSource
	logger *slog.Logger
}

// NewClientFactory combines a TokenSource with the client wrapper so jobs can
// obtain an authorized client from nothing but an installation ID.
func NewClientFactory(tokens TokenSource, logger *slog.Logger) ClientFactory {
	return &tokenClientFactory{tokens: tokens, logger: logger}
}

func (f *tokenClientFactory) ClientFor(ctx context.Context, installationID int64) (Client, error) {
	token, err := f.tokens.Token(ctx, installationID)
	if err != nil {
		return nil, err
	}
	return NewClientWithToken(ctx, token, f.logger), nil
}

// ListChangedFiles retrieves the list of files modified in a pull request.
// It handles pagination automatically to ensure all files are fetched from
// the GitHub API, which returns a maximum of 100 files per page.
func (g *gitHubClient) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	var allFiles []ChangedFile
	opts := &github.ListOptions{PerPage: 100}

	for {
		files, resp, err := g.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			g.logger.Error("failed to list files for pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, &core.UpstreamAPIError{Op: "list changed files", Err: err}
		}

		for _, file := range files {
			allFiles = append(allFiles, ChangedFile{
				Filename:  file.GetFilename(),
				Status:    file.GetStatus(),
				Additions: file.GetAdditions(),
				Deletions: file.GetDeletions(),
				Patch:     file.GetPatch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

// CreateComment posts a new comment on a pull request and returns its ID so
// the caller can reference the posted comment later.
func (g *gitHubClient) CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
	comment := &github.IssueComment{Body: &body}
	created, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		g.logger.Error("failed to create comment", "owner", owner, "repo", repo, "pr", number, "error", err)
		return 0, &core.UpstreamAPIError{Op: "create comment", Err: err}
	}
	return created.GetID(), nil
}

// SetCommitStatus sets a commit status against a specific SHA. The state must
// be one of pending, success, failure, or error; the description is truncated
// to the API's 140-character limit.
func (g *gitHubClient) SetCommitStatus(ctx context.Context, owner, repo, sha, state, description string) error {
	status := &github.RepoStatus{
		State:       github.Ptr(state),
		Context:     github.Ptr(statusContext),
		Description: github.Ptr(truncateDescription(description)),
	}

	_, _, err := g.client.Repositories.CreateStatus(ctx, owner, repo, sha, status)
	if err != nil {
		g.logger.Error("failed to set commit status", "owner", owner, "repo", repo, "sha", sha, "state", state, "error", err)
		return &core.UpstreamAPIError{Op: "set commit status", Err: err}
	}
	return nil
}

// GetRepoConfigFile fetches the raw .merge-warden.yml from the repository
// root. A missing file is reported as a nil slice without error.
func (g *gitHubClient) GetRepoConfigFile(ctx context.Context, owner, repo string) ([]byte, error) {
	content, _, resp, err := g.client.Repositories.GetContents(ctx, owner, repo, repoConfigPath, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		g.logger.Error("failed to fetch repo config file", "owner", owner, "repo", repo, "error", err)
		return nil, &core.UpstreamAPIError{Op: "get repo config", Err: err}
	}
	if content == nil {
		return nil, nil
	}

	decoded, err := content.GetContent()
	if err != nil {
		return nil, &core.UpstreamAPIError{Op: "decode repo config", Err: err}
	}
	return []byte(decoded), nil
}
