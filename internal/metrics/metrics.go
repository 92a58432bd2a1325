// Package metrics tracks aggregate counters for the review workflow. The
// registry is an explicitly owned, injectable state object rather than a
// process-wide singleton, so tests and multi-tenant deployments can hold
// isolated instances. Counters reset on restart; they are in-memory only.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is the JSON-serializable view of the registry.
type Snapshot struct {
	TotalReviews            int        `json:"total_reviews"`
	Passed                  int        `json:"passed"`
	Failed                  int        `json:"failed"`
	PassRatePct             float64    `json:"pass_rate_pct"`
	TotalQuestionsGenerated int        `json:"total_questions_generated"`
	TotalAnswersGraded      int        `json:"total_answers_graded"`
	AvgQuestionsPerPR       float64    `json:"avg_questions_per_pr"`
	LastReviewAt            *time.Time `json:"last_review_at"`
}

// Registry accumulates review metrics. Safe for concurrent use.
type Registry struct {
	mu sync.Mutex

	totalReviews       int
	passed             int
	failed             int
	questionsGenerated int
	answersGraded      int
	questionBatches    int
	lastReviewAt       *time.Time
}

func NewRegistry() *Registry {
	return &Registry{}
}

// RecordQuestionsGenerated notes one generation call producing count questions.
func (r *Registry) RecordQuestionsGenerated(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questionsGenerated += count
	r.questionBatches++
}

// RecordReviewResult notes one completed grading pass.
func (r *Registry) RecordReviewResult(passed bool, numAnswers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalReviews++
	r.answersGraded += numAnswers
	now := time.Now().UTC()
	r.lastReviewAt = &now
	if passed {
		r.passed++
	} else {
		r.failed++
	}
}

// Snapshot returns a consistent copy of all counters.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		TotalReviews:            r.totalReviews,
		Passed:                  r.passed,
		Failed:                  r.failed,
		TotalQuestionsGenerated: r.questionsGenerated,
		TotalAnswersGraded:      r.answersGraded,
	}
	if r.totalReviews > 0 {
		s.PassRatePct = round1(float64(r.passed) / float64(r.totalReviews) * 100)
	}
	if r.questionBatches > 0 {
		s.AvgQuestionsPerPR = round1(float64(r.questionsGenerated) / float64(r.questionBatches))
	}
	if r.lastReviewAt != nil {
		at := *r.lastReviewAt
		s.LastReviewAt = &at
	}
	return s
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
