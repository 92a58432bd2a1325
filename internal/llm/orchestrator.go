package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sevigo/merge-warden/internal/core"
)

const (
	minQuestions = 3
	maxQuestions = 5

	// promptDiffLimit bounds the transcript prefix embedded in prompts.
	promptDiffLimit = 15000

	questionMaxTokens = 1024
	gradingMaxTokens  = 2048
)

// gradingFailureSummary is reported whenever grading cannot produce a valid
// result. A broken grading call must never silently report a pass.
const gradingFailureSummary = "Grading failed due to a system error. Please try again."

// Service exposes the two model-backed operations of the review workflow.
// Both operations recover from every provider or contract failure internally
// and never return an error to the caller.
type Service interface {
	GenerateQuestions(ctx context.Context, transcript string, isLarge bool) []string
	GradeAnswers(ctx context.Context, transcript string, questions, answers []string) core.GradingResult
}

// Orchestrator implements Service on top of a single Completer and the
// embedded prompt templates.
type Orchestrator struct {
	completer Completer
	prompts   *PromptManager
	provider  ModelProvider
	logger    *slog.Logger
}

func NewOrchestrator(completer Completer, prompts *PromptManager, provider ModelProvider, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		completer: completer,
		prompts:   prompts,
		provider:  provider,
		logger:    logger,
	}
}

type questionPromptData struct {
	NumQuestions int
	Diff         string
}

type gradingPromptData struct {
	Diff          string
	QuestionsJSON string
	AnswersJSON   string
}

// GenerateQuestions produces 3-5 comprehension questions for the transcript.
// Large diffs get the maximum count. On any completion or contract failure it
// falls back to a fixed generic question set.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, transcript string, isLarge bool) []string {
	numQuestions := minQuestions
	if isLarge {
		numQuestions = maxQuestions
	}

	prompt, err := o.prompts.Render(QuestionPrompt, o.provider, questionPromptData{
		NumQuestions: numQuestions,
		Diff:         boundedPrefix(transcript, promptDiffLimit),
	})
	if err != nil {
		o.logger.Error("failed to render question prompt", "error", err)
		return fallbackQuestions()
	}

	raw, err := o.completer.Complete(ctx, prompt, questionMaxTokens)
	if err != nil {
		o.logger.Error("question generation completion failed", "error", err)
		return fallbackQuestions()
	}

	var parsed struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &parsed); err != nil {
		o.logger.Error("question generation returned unparseable output", "error", err)
		return fallbackQuestions()
	}

	questions := parsed.Questions
	if len(questions) > maxQuestions {
		o.logger.Warn("model overshot question count, truncating", "got", len(questions), "max", maxQuestions)
		questions = questions[:maxQuestions]
	}
	if len(questions) < minQuestions {
		o.logger.Warn("model returned too few questions, using fallback", "got", len(questions), "min", minQuestions)
		return fallbackQuestions()
	}

	return questions
}

// GradeAnswers grades the positionally paired question and answer lists
// against the transcript. On any completion or contract failure it returns a
// fixed hard-fail result.
func (o *Orchestrator) GradeAnswers(ctx context.Context, transcript string, questions, answers []string) core.GradingResult {
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		o.logger.Error("failed to encode questions for grading", "error", err)
		return gradingFailure()
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		o.logger.Error("failed to encode answers for grading", "error", err)
		return gradingFailure()
	}

	prompt, err := o.prompts.Render(GradingPrompt, o.provider, gradingPromptData{
		Diff:          boundedPrefix(transcript, promptDiffLimit),
		QuestionsJSON: string(questionsJSON),
		AnswersJSON:   string(answersJSON),
	})
	if err != nil {
		o.logger.Error("failed to render grading prompt", "error", err)
		return gradingFailure()
	}

	raw, err := o.completer.Complete(ctx, prompt, gradingMaxTokens)
	if err != nil {
		o.logger.Error("grading completion failed", "error", err)
		return gradingFailure()
	}

	// Pointer and nil-slice fields distinguish an absent key from a zero
	// value. overall_pass, answers, and summary are all required; a response
	// missing any of them fails closed.
	var parsed struct {
		OverallPass *bool              `json:"overall_pass"`
		Answers     []core.AnswerGrade `json:"answers"`
		Summary     *string            `json:"summary"`
	}
	cleaned := stripJSONFence(raw)
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		o.logger.Error("grading returned unparseable output", "error", err, "raw", boundedPrefix(raw, 500))
		return gradingFailure()
	}
	if parsed.OverallPass == nil || parsed.Answers == nil || parsed.Summary == nil {
		o.logger.Error("grading returned an incomplete result shape", "raw", boundedPrefix(cleaned, 500))
		return gradingFailure()
	}

	return core.GradingResult{
		OverallPass: *parsed.OverallPass,
		Answers:     parsed.Answers,
		Summary:     *parsed.Summary,
	}
}

// fallbackQuestions is the fixed generic set used when generation fails.
func fallbackQuestions() []string {
	return []string{
		"What is the primary purpose of this change?",
		"Are there any edge cases that this change does not handle?",
		"How does this change interact with the existing codebase?",
	}
}

// gradingFailure is the fixed hard-fail result used when grading fails.
func gradingFailure() core.GradingResult {
	return core.GradingResult{
		OverallPass: false,
		Answers:     []core.AnswerGrade{},
		Summary:     gradingFailureSummary,
	}
}

// stripJSONFence removes a wrapping triple-backtick fence that some models
// add around their JSON output despite instructions.
func stripJSONFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return trimmed
	}
	inner := trimmed[idx+1:]
	if fence := strings.LastIndex(inner, "```"); fence >= 0 {
		inner = inner[:fence]
	}
	return strings.TrimSpace(inner)
}

// boundedPrefix returns at most limit bytes of s, cutting only on a rune
// boundary so the result stays valid UTF-8.
func boundedPrefix(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
