package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/merge-warden/internal/config"
	"github.com/sevigo/merge-warden/internal/core"
)

const testSecret = "test-webhook-secret"

type fakeDispatcher struct {
	events []*core.Event
	err    error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, event *core.Event) error {
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *fakeDispatcher) Stop() {}

func signedRequest(t *testing.T, eventType string, payload []byte) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", eventType)

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(payload)
	req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))

	return req
}

func newHandler(dispatcher core.JobDispatcher) *WebhookHandler {
	cfg := &config.Config{GitHubWebhookSecret: testSecret}
	return NewWebhookHandler(cfg, dispatcher, slog.Default())
}

const pullRequestPayload = `{
	"action": "opened",
	"repository": {
		"name": "demo",
		"full_name": "sevigo/demo",
		"owner": {"login": "sevigo"}
	},
	"pull_request": {
		"number": 42,
		"draft": false,
		"head": {"sha": "abc123"}
	},
	"installation": {"id": 777}
}`

const issueCommentPayload = `{
	"action": "created",
	"repository": {
		"name": "demo",
		"full_name": "sevigo/demo",
		"owner": {"login": "sevigo"}
	},
	"issue": {
		"number": 42,
		"pull_request": {"url": "https://api.github.com/repos/sevigo/demo/pulls/42"}
	},
	"comment": {
		"body": "1. my answer",
		"user": {"login": "alice", "type": "User"}
	},
	"installation": {"id": 777}
}`

func TestWebhookHandler_RejectsBadSignature(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newHandler(dispatcher)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", bytes.NewReader([]byte(pullRequestPayload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "pull_request")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandler_DispatchesPullRequest(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "pull_request", []byte(pullRequestPayload)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.events, 1)
	event := dispatcher.events[0]
	assert.Equal(t, core.EventPullRequest, event.Kind)
	assert.Equal(t, "sevigo/demo#42", event.PRID())
	assert.Equal(t, "abc123", event.HeadSHA)
	assert.Equal(t, int64(777), event.InstallationID)
}

func TestWebhookHandler_DispatchesIssueComment(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "issue_comment", []byte(issueCommentPayload)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.events, 1)
	event := dispatcher.events[0]
	assert.Equal(t, core.EventComment, event.Kind)
	assert.Equal(t, "alice", event.CommentAuthor)
	assert.Equal(t, "1. my answer", event.CommentBody)
}

func TestWebhookHandler_IgnoresNonQualifyingAction(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newHandler(dispatcher)

	payload := []byte(`{
		"action": "closed",
		"repository": {"name": "demo", "full_name": "sevigo/demo", "owner": {"login": "sevigo"}},
		"pull_request": {"number": 42, "head": {"sha": "abc123"}},
		"installation": {"id": 777}
	}`)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "pull_request", payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandler_IgnoresUnhandledEventType(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "push", []byte(`{"ref": "refs/heads/main"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandler_QueueFullReturns500(t *testing.T) {
	dispatcher := &fakeDispatcher{err: assert.AnError}
	h := newHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "pull_request", []byte(pullRequestPayload)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
