package core

import "time"

// ReviewStatus tracks where a pull request sits in the comprehension workflow.
type ReviewStatus string

const (
	// StatusPendingReview means questions are posted and answers are awaited.
	StatusPendingReview ReviewStatus = "pending_review"
	// StatusPassed means the reviewer's answers were graded as sufficient.
	StatusPassed ReviewStatus = "passed"
	// StatusFailed means grading found gaps; a new answer attempt may follow.
	StatusFailed ReviewStatus = "failed"
)

// ReviewRecord is the persisted state of one pull request's comprehension
// check, keyed by the composite "owner/repo#number" identifier. A changed
// diff fingerprint resets the record to a fresh question set.
type ReviewRecord struct {
	ID               int64
	PRID             string
	PRSHA            string
	InstallationID   int64
	Questions        []string
	DiffHash         string
	ReviewerAnswers  []string
	GradingResult    *GradingResult
	Status           ReviewStatus
	ReviewerUsername string
	BotCommentID     int64
	CreatedAt        time.Time
	ReviewedAt       *time.Time
}

// AnswerGrade holds the per-question outcome of one grading call.
type AnswerGrade struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Grade    string `json:"grade"` // "PASS" or "FAIL"
	Feedback string `json:"feedback"`
}

// GradingResult is the structured outcome of grading a full answer set.
// It is folded into the review record rather than stored on its own.
type GradingResult struct {
	OverallPass bool          `json:"overall_pass"`
	Answers     []AnswerGrade `json:"answers"`
	Summary     string        `json:"summary"`
}
