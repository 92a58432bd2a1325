package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/merge-warden/internal/core"
	"github.com/sevigo/merge-warden/internal/diff"
	"github.com/sevigo/merge-warden/internal/github"
	"github.com/sevigo/merge-warden/internal/llm"
	"github.com/sevigo/merge-warden/internal/metrics"
	"github.com/sevigo/merge-warden/internal/storage"
)

// GradeJob handles issue comment events on tracked pull requests: it parses
// the reviewer's numbered answers, grades them against the current diff, and
// reflects the outcome as a feedback comment and commit status.
type GradeJob struct {
	clients github.ClientFactory
	store   storage.Store
	llm     llm.Service
	metrics *metrics.Registry
	logger  *slog.Logger
}

// NewGradeJob creates the job that reacts to issue comment events.
func NewGradeJob(clients github.ClientFactory, store storage.Store, svc llm.Service, registry *metrics.Registry, logger *slog.Logger) core.Job {
	if clients == nil {
		panic("client factory cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if svc == nil {
		panic("llm service cannot be nil")
	}
	return &GradeJob{clients: clients, store: store, llm: svc, metrics: registry, logger: logger}
}

// Run grades one reviewer comment against the stored question set.
func (j *GradeJob) Run(ctx context.Context, event *core.Event) error {
	if event.CommentAuthorIsBot {
		j.logger.Debug("ignoring bot comment", "pr", event.PRID(), "author", event.CommentAuthor)
		return nil
	}

	prID := event.PRID()

	record, err := j.store.GetReview(ctx, prID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			j.logger.Debug("no review record, ignoring comment", "pr", prID)
			return nil
		}
		return fmt.Errorf("failed to look up review record: %w", err)
	}

	if record.Status == core.StatusPassed {
		j.logger.Info("review already passed, ignoring comment", "pr", prID)
		return nil
	}

	answers := ParseNumberedAnswers(event.CommentBody)
	expected := len(record.Questions)
	j.logger.Info("parsed answers from comment", "pr", prID, "found", len(answers), "expected", expected)

	client, err := j.clients.ClientFor(ctx, event.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	if len(answers) < expected {
		// Incomplete answer sets re-prompt the reviewer; the record stays
		// untouched so a corrected reply can still be graded.
		_, err := client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber,
			buildInsufficientAnswersComment(len(answers), expected))
		if err != nil {
			return fmt.Errorf("failed to post answer-format reply: %w", err)
		}
		return nil
	}
	answers = answers[:expected]

	// Grading context is re-fetched rather than cached so answers are judged
	// against the diff as it stands now.
	files, err := client.ListChangedFiles(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch changed files for grading: %w", err)
	}
	transcript, _, _ := diff.Extract(toDiffFiles(files), nil)

	result := j.llm.GradeAnswers(ctx, transcript, record.Questions, answers)
	if j.metrics != nil {
		j.metrics.RecordReviewResult(result.OverallPass, len(answers))
	}

	// Re-load before persisting to narrow the window against a concurrent
	// synchronize event replacing the question set under us.
	record, err = j.store.GetReview(ctx, prID)
	if err != nil {
		return fmt.Errorf("failed to re-load review record: %w", err)
	}

	now := time.Now().UTC()
	record.ReviewerAnswers = answers
	record.GradingResult = &result
	record.ReviewerUsername = event.CommentAuthor
	record.ReviewedAt = &now
	if result.OverallPass {
		record.Status = core.StatusPassed
	} else {
		record.Status = core.StatusFailed
	}

	if err := j.store.UpdateReview(ctx, record); err != nil {
		return fmt.Errorf("failed to persist grading result: %w", err)
	}

	if _, err := client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber,
		buildFeedbackComment(event.CommentAuthor, result)); err != nil {
		return fmt.Errorf("failed to post feedback comment: %w", err)
	}

	state, description := github.StatusFailure, "Comprehension check failed, revised answers required"
	if result.OverallPass {
		state, description = github.StatusSuccess, "Reviewer comprehension verified"
	}
	if err := client.SetCommitStatus(ctx, event.RepoOwner, event.RepoName, record.PRSHA, state, description); err != nil {
		return err
	}

	j.logger.Info("graded review", "pr", prID, "pass", result.OverallPass, "reviewer", event.CommentAuthor)
	return nil
}
