package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/merge-warden/internal/config"
	"github.com/sevigo/merge-warden/internal/core"
	"github.com/sevigo/merge-warden/internal/diff"
	"github.com/sevigo/merge-warden/internal/github"
	"github.com/sevigo/merge-warden/internal/llm"
	"github.com/sevigo/merge-warden/internal/metrics"
	"github.com/sevigo/merge-warden/internal/storage"
)

// ReviewJob handles pull request opened/synchronize/reopened events: it
// extracts the diff, generates comprehension questions, posts them as a
// comment, and marks the head commit pending until the reviewer answers.
type ReviewJob struct {
	clients github.ClientFactory
	store   storage.Store
	llm     llm.Service
	metrics *metrics.Registry
	logger  *slog.Logger
}

// NewReviewJob creates the job that reacts to pull request lifecycle events.
func NewReviewJob(clients github.ClientFactory, store storage.Store, svc llm.Service, registry *metrics.Registry, logger *slog.Logger) core.Job {
	if clients == nil {
		panic("client factory cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if svc == nil {
		panic("llm service cannot be nil")
	}
	return &ReviewJob{clients: clients, store: store, llm: svc, metrics: registry, logger: logger}
}

// Run executes one review cycle for a pull request event.
func (j *ReviewJob) Run(ctx context.Context, event *core.Event) error {
	if event.Draft {
		j.logger.Info("skipping draft pull request", "pr", event.PRID())
		return nil
	}

	prID := event.PRID()
	j.logger.Info("starting review cycle", "pr", prID, "sha", event.HeadSHA)

	client, err := j.clients.ClientFor(ctx, event.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	files, err := client.ListChangedFiles(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch changed files: %w", err)
	}

	repoCfg := j.loadRepoConfig(ctx, client, event)
	transcript, fingerprint, isLarge := diff.Extract(toDiffFiles(files), repoCfg.SkipPaths)

	if transcript == diff.EmptyTranscript {
		j.logger.Info("no meaningful changes, skipping review", "pr", prID)
		if err := client.SetCommitStatus(ctx, event.RepoOwner, event.RepoName, event.HeadSHA, github.StatusSuccess, "No code changes to review"); err != nil {
			return err
		}
		return nil
	}

	existing, err := j.store.GetReview(ctx, prID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to look up review record: %w", err)
	}

	// Idempotency guard: redundant synchronize events and redelivered
	// webhooks carry the same diff fingerprint and must be no-ops.
	if existing != nil && existing.DiffHash == fingerprint {
		j.logger.Info("diff unchanged, skipping question regeneration", "pr", prID)
		return nil
	}

	questions := j.llm.GenerateQuestions(ctx, transcript, isLarge || repoCfg.MinQuestions > 3)
	if j.metrics != nil {
		j.metrics.RecordQuestionsGenerated(len(questions))
	}

	commentID, err := client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber, buildQuestionComment(questions, isLarge))
	if err != nil {
		return fmt.Errorf("failed to post question comment: %w", err)
	}

	if err := j.upsertRecord(ctx, existing, event, questions, fingerprint, commentID); err != nil {
		return err
	}

	if err := client.SetCommitStatus(ctx, event.RepoOwner, event.RepoName, event.HeadSHA, github.StatusPending, "Awaiting reviewer comprehension answers"); err != nil {
		return err
	}

	j.logger.Info("posted questions", "pr", prID, "count", len(questions))
	return nil
}

// upsertRecord resets an existing record to a fresh question set or creates a
// new one. A reset clears every answer-side field so a previously passed or
// failed review starts over.
func (j *ReviewJob) upsertRecord(ctx context.Context, existing *core.ReviewRecord, event *core.Event, questions []string, fingerprint string, commentID int64) error {
	if existing != nil {
		existing.PRSHA = event.HeadSHA
		existing.InstallationID = event.InstallationID
		existing.Questions = questions
		existing.DiffHash = fingerprint
		existing.Status = core.StatusPendingReview
		existing.ReviewerAnswers = nil
		existing.GradingResult = nil
		existing.ReviewerUsername = ""
		existing.ReviewedAt = nil
		existing.BotCommentID = commentID

		if err := j.store.UpdateReview(ctx, existing); err != nil {
			return fmt.Errorf("failed to reset review record: %w", err)
		}
		return nil
	}

	record := &core.ReviewRecord{
		PRID:           event.PRID(),
		PRSHA:          event.HeadSHA,
		InstallationID: event.InstallationID,
		Questions:      questions,
		DiffHash:       fingerprint,
		Status:         core.StatusPendingReview,
		BotCommentID:   commentID,
	}
	if err := j.store.CreateReview(ctx, record); err != nil {
		return fmt.Errorf("failed to create review record: %w", err)
	}
	return nil
}

// loadRepoConfig fetches optional per-repo overrides. Failures fall back to
// the defaults; a broken config file must not block the review.
func (j *ReviewJob) loadRepoConfig(ctx context.Context, client github.Client, event *core.Event) *core.RepoConfig {
	data, err := client.GetRepoConfigFile(ctx, event.RepoOwner, event.RepoName)
	if err != nil {
		j.logger.Warn("failed to fetch repo config, using defaults", "pr", event.PRID(), "error", err)
		return core.DefaultRepoConfig()
	}

	cfg, err := config.ParseRepoConfig(data)
	if err != nil {
		if !errors.Is(err, config.ErrRepoConfigNotFound) {
			j.logger.Warn("invalid repo config, using defaults", "pr", event.PRID(), "error", err)
		}
		return core.DefaultRepoConfig()
	}
	return cfg
}

// toDiffFiles converts API file records into the extractor's input type.
func toDiffFiles(files []github.ChangedFile) []diff.File {
	out := make([]diff.File, len(files))
	for i, f := range files {
		out[i] = diff.File{
			Filename:  f.Filename,
			Status:    f.Status,
			Additions: f.Additions,
			Deletions: f.Deletions,
			Patch:     f.Patch,
		}
	}
	return out
}
