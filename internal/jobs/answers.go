// Package jobs defines the background tasks that drive the review workflow:
// question posting on pull request events and answer grading on comment
// events, executed by a worker-pool dispatcher.
package jobs

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// answerPattern matches numbered answer lines like "1. Because the cache ...".
var answerPattern = regexp.MustCompile(`(?m)^\s*(\d+)\.\s*(.+)`)

// ParseNumberedAnswers extracts an ordered list of numbered answers from
// free-form comment text. Lines are collected as (number, text) pairs and
// sorted ascending by number, keeping scan order for duplicates; the trimmed
// texts are returned in that order. Text with no numbered lines yields an
// empty slice.
func ParseNumberedAnswers(body string) []string {
	matches := answerPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	type numbered struct {
		num  int
		text string
	}
	entries := make([]numbered, 0, len(matches))
	for _, m := range matches {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		entries = append(entries, numbered{num: num, text: strings.TrimSpace(m[2])})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].num < entries[j].num
	})

	answers := make([]string, len(entries))
	for i, e := range entries {
		answers[i] = e.text
	}
	return answers
}
