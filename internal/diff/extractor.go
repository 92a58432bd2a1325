// Package diff converts the changed-file records of a pull request into a
// bounded, LLM-safe transcript plus a content fingerprint used for change
// detection. Extraction is a pure function of its input: identical file lists
// in identical order always yield identical transcripts and fingerprints.
package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// File is one changed-file record as reported by the pull request files API.
type File struct {
	Filename  string
	Status    string
	Additions int
	Deletions int
	Patch     string
}

// EmptyTranscript is the sentinel returned when no file survives filtering.
const EmptyTranscript = "(no meaningful code changes)"

const (
	// maxTotalLines caps the running patch-line total; crossing it marks the
	// result as large and halts further accumulation.
	maxTotalLines = 5000
	// maxFilePatchLines caps a single file's patch; longer patches are
	// truncated with a marker.
	maxFilePatchLines = 500
)

// skipNames are lockfile and ignore-file base names excluded from review.
var skipNames = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"Cargo.lock":        true,
	"poetry.lock":       true,
	"Pipfile.lock":      true,
	".gitignore":        true,
}

// skipExtensions are suffixes of minified, generated, or binary assets.
var skipExtensions = []string{".min.js", ".min.css", ".map", ".svg", ".png", ".jpg", ".ico"}

// Extract renders the surviving changed files into a transcript, computes its
// SHA-256 fingerprint, and reports whether the diff exceeds the size ceiling.
// extraSkip lists additional base names to exclude, typically from a
// repository's .merge-warden.yml.
func Extract(files []File, extraSkip []string) (transcript, fingerprint string, isLarge bool) {
	var parts []string
	totalLines := 0

	for _, f := range files {
		if shouldSkip(f.Filename, extraSkip) {
			continue
		}

		patch := f.Patch
		if patch == "" {
			continue
		}

		patchLines := strings.Count(patch, "\n") + 1
		totalLines += patchLines

		if totalLines > maxTotalLines {
			isLarge = true
			break
		}

		if patchLines > maxFilePatchLines {
			lines := strings.SplitN(patch, "\n", maxFilePatchLines+1)
			patch = strings.Join(lines[:maxFilePatchLines], "\n") + "\n... (truncated)"
		}

		parts = append(parts, fmt.Sprintf("### %s (%s: +%d/-%d)\n```diff\n%s\n```",
			f.Filename, f.Status, f.Additions, f.Deletions, patch))
	}

	transcript = EmptyTranscript
	if len(parts) > 0 {
		transcript = strings.Join(parts, "\n\n")
	}

	sum := sha256.Sum256([]byte(transcript))
	return transcript, hex.EncodeToString(sum[:]), isLarge
}

// shouldSkip reports whether a path matches the base-name or extension
// denylists, or any extra per-repo skip name.
func shouldSkip(filename string, extraSkip []string) bool {
	base := filename
	if idx := strings.LastIndex(filename, "/"); idx >= 0 {
		base = filename[idx+1:]
	}
	if skipNames[base] {
		return true
	}
	for _, name := range extraSkip {
		if base == name {
			return true
		}
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}
