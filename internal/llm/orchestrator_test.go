package llm

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, _ int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func newTestOrchestrator(t *testing.T, completer Completer) *Orchestrator {
	t.Helper()
	pm, err := NewPromptManager()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewOrchestrator(completer, pm, DefaultProvider, logger)
}

func TestGenerateQuestions(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     []string
	}{
		{
			name:     "valid three questions",
			response: `{"questions": ["Why A?", "How B?", "What if C?"]}`,
			want:     []string{"Why A?", "How B?", "What if C?"},
		},
		{
			name:     "fenced output is stripped",
			response: "```json\n{\"questions\": [\"Why A?\", \"How B?\", \"What if C?\"]}\n```",
			want:     []string{"Why A?", "How B?", "What if C?"},
		},
		{
			name:     "overshoot truncated to five",
			response: `{"questions": ["1?", "2?", "3?", "4?", "5?", "6?", "7?"]}`,
			want:     []string{"1?", "2?", "3?", "4?", "5?"},
		},
		{
			name:     "too few questions falls back",
			response: `{"questions": ["only one?"]}`,
			want:     fallbackQuestions(),
		},
		{
			name:     "unparseable output falls back",
			response: "I would love to help but here is prose instead",
			want:     fallbackQuestions(),
		},
		{
			name:     "completion error falls back",
			response: "",
			err:      errors.New("provider unavailable"),
			want:     fallbackQuestions(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t, &stubCompleter{response: tt.response, err: tt.err})
			got := o.GenerateQuestions(context.Background(), "+ diff", false)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateQuestionsTargetCount(t *testing.T) {
	stub := &stubCompleter{response: `{"questions": ["1?", "2?", "3?"]}`}
	o := newTestOrchestrator(t, stub)

	o.GenerateQuestions(context.Background(), "+ small diff", false)
	o.GenerateQuestions(context.Background(), "+ big diff", true)

	require.Len(t, stub.prompts, 2)
	assert.Contains(t, stub.prompts[0], "generate 3 specific comprehension questions")
	assert.Contains(t, stub.prompts[1], "generate 5 specific comprehension questions")
}

func TestGenerateQuestionsBoundsTranscript(t *testing.T) {
	stub := &stubCompleter{response: `{"questions": ["1?", "2?", "3?"]}`}
	o := newTestOrchestrator(t, stub)

	o.GenerateQuestions(context.Background(), strings.Repeat("x", 40000), false)

	require.Len(t, stub.prompts, 1)
	assert.Less(t, len(stub.prompts[0]), 20000)
}

func TestGradeAnswers(t *testing.T) {
	questions := []string{"Why A?", "How B?"}
	answers := []string{"Because of X", "Via Y"}

	t.Run("valid grading result", func(t *testing.T) {
		o := newTestOrchestrator(t, &stubCompleter{
			response: `{"overall_pass": true, "answers": [{"question": "Why A?", "answer": "Because of X", "grade": "PASS", "feedback": "good"}], "summary": "solid"}`,
		})

		result := o.GradeAnswers(context.Background(), "+ diff", questions, answers)

		assert.True(t, result.OverallPass)
		require.Len(t, result.Answers, 1)
		assert.Equal(t, "PASS", result.Answers[0].Grade)
		assert.Equal(t, "solid", result.Summary)
	})

	t.Run("fenced grading result", func(t *testing.T) {
		o := newTestOrchestrator(t, &stubCompleter{
			response: "```\n{\"overall_pass\": false, \"answers\": [], \"summary\": \"gaps remain\"}\n```",
		})

		result := o.GradeAnswers(context.Background(), "+ diff", questions, answers)

		assert.False(t, result.OverallPass)
		assert.Equal(t, "gaps remain", result.Summary)
	})

	t.Run("malformed output never passes and never panics", func(t *testing.T) {
		o := newTestOrchestrator(t, &stubCompleter{response: "not json at all {"})

		result := o.GradeAnswers(context.Background(), "+ diff", questions, answers)

		assert.False(t, result.OverallPass)
		assert.Empty(t, result.Answers)
		assert.Equal(t, gradingFailureSummary, result.Summary)
	})

	t.Run("completion error yields hard fail", func(t *testing.T) {
		o := newTestOrchestrator(t, &stubCompleter{err: errors.New("timeout")})

		result := o.GradeAnswers(context.Background(), "+ diff", questions, answers)

		assert.False(t, result.OverallPass)
		assert.NotEmpty(t, result.Summary)
	})

	t.Run("empty object yields hard fail", func(t *testing.T) {
		o := newTestOrchestrator(t, &stubCompleter{response: "{}"})

		result := o.GradeAnswers(context.Background(), "+ diff", questions, answers)

		assert.False(t, result.OverallPass)
		assert.Equal(t, gradingFailureSummary, result.Summary)
	})

	t.Run("missing required key never passes", func(t *testing.T) {
		responses := map[string]string{
			"no answers":      `{"overall_pass": true, "summary": "looks good"}`,
			"no overall_pass": `{"answers": [], "summary": "looks good"}`,
			"no summary":      `{"overall_pass": true, "answers": []}`,
		}

		for name, response := range responses {
			t.Run(name, func(t *testing.T) {
				o := newTestOrchestrator(t, &stubCompleter{response: response})

				result := o.GradeAnswers(context.Background(), "+ diff", questions, answers)

				assert.False(t, result.OverallPass)
				assert.Empty(t, result.Answers)
				assert.Equal(t, gradingFailureSummary, result.Summary)
			})
		}
	})
}

func TestBoundedPrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"under limit unchanged", "hello", 10, "hello"},
		{"exact limit unchanged", "hello", 5, "hello"},
		{"ascii cut at limit", "hello", 3, "hel"},
		{"multi-byte rune not split", "abécd", 3, "ab"},
		{"cut lands on rune start", "abécd", 4, "abé"},
		{"four-byte rune not split", "a\U0001F600b", 3, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := boundedPrefix(tt.input, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestStripJSONFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
		{"fence without newline", "```", "```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripJSONFence(tt.input))
		})
	}
}
