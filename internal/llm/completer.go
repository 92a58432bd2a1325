// Package llm drives the two model-backed operations of the review workflow,
// question generation and answer grading, behind a single completion
// capability with strict output-contract validation and non-throwing
// fallbacks.
package llm

import (
	"context"
	"time"

	"github.com/sevigo/goframe/llms"
)

// Completer is the single text-completion capability the orchestrator depends
// on. One adapter exists per provider, selected at startup.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// completionTimeout bounds one completion call so a hung provider stalls only
// the event that issued it.
const completionTimeout = 90 * time.Second

type modelCompleter struct {
	model llms.Model
}

// NewCompleter adapts a goframe model to the Completer capability.
func NewCompleter(model llms.Model) Completer {
	return &modelCompleter{model: model}
}

func (c *modelCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	return llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithMaxTokens(maxTokens))
}
