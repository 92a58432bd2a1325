package jobs

import (
	"fmt"
	"strings"

	"github.com/sevigo/merge-warden/internal/core"
)

// buildQuestionComment renders the numbered question comment posted when a
// review cycle starts.
func buildQuestionComment(questions []string, isLarge bool) string {
	var sb strings.Builder

	sb.WriteString("## PR Comprehension Check\n\n")
	sb.WriteString("Please answer the following questions to verify your understanding of these changes:\n\n")

	if isLarge {
		sb.WriteString("> **Note:** This is a large PR. Questions focus on the most critical changes.\n\n")
	}

	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}

	sb.WriteString("\n---\n")
	fmt.Fprintf(&sb, "**How to respond:** Reply to this comment with your answers numbered 1–%d.\n\n", len(questions))
	sb.WriteString("Status: ⏳ Awaiting reviewer answers")

	return sb.String()
}

// buildInsufficientAnswersComment asks the reviewer to resubmit a complete
// numbered answer set.
func buildInsufficientAnswersComment(found, expected int) string {
	return fmt.Sprintf(
		"I found %d answer(s) but expected %d. Please reply with all answers in numbered format:\n```\n1. Your answer\n2. Your answer\n...\n```",
		found, expected)
}

// buildFeedbackComment renders the per-question grades and overall summary
// posted after grading.
func buildFeedbackComment(author string, result core.GradingResult) string {
	var sb strings.Builder

	if result.OverallPass {
		sb.WriteString("## ✅ Comprehension Check Passed\n\n")
		fmt.Fprintf(&sb, "@%s, your answers demonstrate solid understanding. The PR is now eligible for merging.\n\n", author)
	} else {
		sb.WriteString("## ❌ Comprehension Check Failed\n\n")
		fmt.Fprintf(&sb, "@%s, some answers indicate gaps in understanding. Please review the code more carefully and reply with revised answers.\n\n", author)
	}

	sb.WriteString("---\n\n")

	for _, item := range result.Answers {
		icon := "❌"
		if item.Grade == "PASS" {
			icon = "✅"
		}
		fmt.Fprintf(&sb, "**%s Q:** %s\n**A:** %s\n**Feedback:** %s\n\n", icon, item.Question, item.Answer, item.Feedback)
	}

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "**Summary:** %s", result.Summary)

	return sb.String()
}
