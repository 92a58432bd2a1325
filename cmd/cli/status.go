package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/merge-warden/internal/config"
	"github.com/sevigo/merge-warden/internal/core"
	"github.com/sevigo/merge-warden/internal/db"
	"github.com/sevigo/merge-warden/internal/storage"
)

var outputJSON bool

// Color definitions
var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

var statusCmd = &cobra.Command{
	Use:   "status [owner/repo#number]",
	Short: "Shows the review state of a pull request tracked by Merge-Warden",
	Long: `Shows the review state of a pull request tracked by Merge-Warden.

Examples:
  warden-cli status sevigo/demo#42
  warden-cli status --json sevigo/demo#42`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		prID := args[0]

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		dbConn, cleanup, err := db.NewDatabase(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer cleanup()

		store := storage.NewStore(dbConn.DB)
		record, err := store.GetReview(ctx, prID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no review is tracked for %s", prID)
			}
			return fmt.Errorf("failed to retrieve review: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(record)
		}

		printRecord(record)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output review state as JSON")
	rootCmd.AddCommand(statusCmd)
}

func printRecord(record *core.ReviewRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "PR\t%s\n", record.PRID)
	fmt.Fprintf(w, "Head SHA\t%s\n", truncateSHA(record.PRSHA))
	fmt.Fprintf(w, "Status\t%s\n", record.Status)
	fmt.Fprintf(w, "Questions\t%d\n", len(record.Questions))
	if record.ReviewerUsername != "" {
		fmt.Fprintf(w, "Reviewer\t%s\n", record.ReviewerUsername)
	}
	if record.ReviewedAt != nil {
		fmt.Fprintf(w, "Reviewed at\t%s\n", record.ReviewedAt.Format(time.RFC822))
	}
	fmt.Fprintf(w, "Created at\t%s\n", record.CreatedAt.Format(time.RFC822))
	_ = w.Flush()

	fmt.Println()
	switch record.Status {
	case core.StatusPassed:
		successColor.Println("Comprehension check passed.")
	case core.StatusFailed:
		errorColor.Println("Comprehension check failed, awaiting revised answers.")
	default:
		warnColor.Println("Awaiting reviewer answers.")
	}

	if record.GradingResult != nil {
		dimColor.Printf("\nSummary: %s\n", record.GradingResult.Summary)
	}
}

func truncateSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
