package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"
	"github.com/spf13/cobra"

	"github.com/sevigo/merge-warden/internal/config"
	"github.com/sevigo/merge-warden/internal/diff"
	"github.com/sevigo/merge-warden/internal/llm"
)

var patchFile string

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Dry-runs comprehension question generation against a local patch file",
	Long: `Dry-runs comprehension question generation against a local patch file,
without touching GitHub or the database. Useful for tuning prompts and
inspecting what reviewers would be asked for a given change.

Examples:
  warden-cli questions --patch my-change.diff`,
	RunE: runQuestions,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	questionsCmd.Flags().StringVar(&patchFile, "patch", "", "Path to a unified diff file (required)")
	_ = questionsCmd.MarkFlagRequired("patch")
	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	patch, err := os.ReadFile(patchFile)
	if err != nil {
		return fmt.Errorf("failed to read patch file: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := slog.Default()

	transcript, _, isLarge := diff.Extract([]diff.File{{
		Filename: filepath.Base(patchFile),
		Status:   "modified",
		Patch:    string(patch),
	}}, nil)

	if transcript == diff.EmptyTranscript {
		warnColor.Println("The patch contains no meaningful code changes.")
		return nil
	}

	model, err := createLLM(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w\n\nTip: Check that the LLM service is running", err)
	}

	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		return fmt.Errorf("failed to initialize prompt manager: %w", err)
	}
	orchestrator := llm.NewOrchestrator(llm.NewCompleter(model), promptMgr, llm.ModelProvider(cfg.LLMProvider), logger)

	fmt.Printf("Generating questions with %s (%s)...\n\n", cfg.GeneratorModelName, cfg.LLMProvider)
	questions := orchestrator.GenerateQuestions(ctx, transcript, isLarge)

	color.New(color.FgCyan, color.Bold).Println("Comprehension questions:")
	for i, q := range questions {
		fmt.Printf("%d. %s\n", i+1, q)
	}
	return nil
}

// createLLM creates the appropriate LLM client based on the configured provider.
func createLLM(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set in environment for gemini provider")
		}
		return gemini.New(ctx,
			gemini.WithModel(cfg.GeneratorModelName),
			gemini.WithAPIKey(cfg.GeminiAPIKey),
		)

	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.OllamaHost),
			ollama.WithModel(cfg.GeneratorModelName),
			ollama.WithLogger(logger),
		)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
