// Package core defines the essential interfaces and data structures that form
// the backbone of the application. These components are designed to be
// abstract, allowing for flexible and decoupled implementations of the
// application's logic.
package core

import (
	"fmt"

	"github.com/google/go-github/v73/github"
)

// EventKind distinguishes the two webhook event categories the service handles.
type EventKind string

const (
	// EventPullRequest covers pull_request opened/synchronize/reopened actions.
	EventPullRequest EventKind = "pull_request"
	// EventComment covers issue_comment created actions on pull requests.
	EventComment EventKind = "issue_comment"
)

// Event represents a simplified, internal view of a GitHub webhook event.
// Fields past InstallationID are populated depending on Kind.
type Event struct {
	Kind EventKind

	RepoOwner    string
	RepoName     string
	RepoFullName string

	PRNumber       int
	InstallationID int64

	// pull_request events only
	HeadSHA string
	Draft   bool

	// issue_comment events only
	CommentAuthor      string
	CommentAuthorIsBot bool
	CommentBody        string
}

// PRID returns the composite identifier that keys a review record,
// in the form "owner/repo#number".
func (e *Event) PRID() string {
	return fmt.Sprintf("%s/%s#%d", e.RepoOwner, e.RepoName, e.PRNumber)
}

// qualifyingPRActions are the pull_request actions that trigger a review cycle.
var qualifyingPRActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// EventFromPullRequest transforms a raw GitHub PullRequestEvent into the
// application's internal Event representation. It acts as an anti-corruption
// layer, ensuring the incoming webhook payload is valid and contains all
// necessary data before it is processed by a job. Non-qualifying actions are
// rejected with an error so the caller can drop them quietly.
func EventFromPullRequest(event *github.PullRequestEvent) (*Event, error) {
	if !qualifyingPRActions[event.GetAction()] {
		return nil, fmt.Errorf("action %q does not trigger a review", event.GetAction())
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	pr := event.GetPullRequest()
	if pr == nil || pr.GetNumber() <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", pr.GetNumber())
	}
	if pr.GetHead() == nil || pr.GetHead().GetSHA() == "" {
		return nil, fmt.Errorf("pull request %d has no head SHA", pr.GetNumber())
	}

	if event.GetInstallation() == nil || event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	return &Event{
		Kind:           EventPullRequest,
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		PRNumber:       pr.GetNumber(),
		InstallationID: event.GetInstallation().GetID(),
		HeadSHA:        pr.GetHead().GetSHA(),
		Draft:          pr.GetDraft(),
	}, nil
}

// EventFromIssueComment transforms a raw GitHub IssueCommentEvent into the
// application's internal Event representation. Only newly created comments on
// pull requests qualify; everything else is rejected with an error.
func EventFromIssueComment(event *github.IssueCommentEvent) (*Event, error) {
	if event.GetAction() != "created" {
		return nil, fmt.Errorf("comment action %q is not handled", event.GetAction())
	}

	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("comment is not on a pull request")
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := event.GetIssue().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	comment := event.GetComment()
	if comment.GetUser() == nil || comment.GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("commenter information is missing from the event")
	}

	if event.GetInstallation() == nil || event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	return &Event{
		Kind:               EventComment,
		RepoOwner:          repo.GetOwner().GetLogin(),
		RepoName:           repo.GetName(),
		RepoFullName:       repo.GetFullName(),
		PRNumber:           prNumber,
		InstallationID:     event.GetInstallation().GetID(),
		CommentAuthor:      comment.GetUser().GetLogin(),
		CommentAuthorIsBot: comment.GetUser().GetType() == "Bot",
		CommentBody:        comment.GetBody(),
	}, nil
}
