package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// patchOfLines builds a patch body with exactly n lines.
func patchOfLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "+line"
	}
	return strings.Join(lines, "\n")
}

func TestExtractSkipsNonCodeFiles(t *testing.T) {
	tests := []struct {
		name  string
		files []File
	}{
		{
			name:  "no files",
			files: nil,
		},
		{
			name: "only lockfiles",
			files: []File{
				{Filename: "package-lock.json", Status: "modified", Patch: "+x"},
				{Filename: "frontend/yarn.lock", Status: "modified", Patch: "+y"},
				{Filename: "Cargo.lock", Status: "added", Patch: "+z"},
			},
		},
		{
			name: "only binary and minified assets",
			files: []File{
				{Filename: "dist/app.min.js", Status: "modified", Patch: "+m"},
				{Filename: "logo.svg", Status: "added", Patch: "+s"},
				{Filename: "icons/favicon.ico", Status: "added", Patch: "+i"},
			},
		},
		{
			name: "only empty patches",
			files: []File{
				{Filename: "vendored.tar", Status: "added"},
				{Filename: "renamed.go", Status: "renamed"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcript, fingerprint, isLarge := Extract(tt.files, nil)
			assert.Equal(t, EmptyTranscript, transcript)
			assert.False(t, isLarge)
			assert.Len(t, fingerprint, 64)
		})
	}
}

func TestExtractFormatsEntries(t *testing.T) {
	files := []File{
		{Filename: "internal/api/server.go", Status: "modified", Additions: 10, Deletions: 2, Patch: "@@ -1 +1 @@\n+hello"},
		{Filename: "README.md", Status: "added", Additions: 5, Deletions: 0, Patch: "+docs"},
	}

	transcript, fingerprint, isLarge := Extract(files, nil)

	assert.False(t, isLarge)
	assert.Len(t, fingerprint, 64)
	assert.Contains(t, transcript, "### internal/api/server.go (modified: +10/-2)")
	assert.Contains(t, transcript, "### README.md (added: +5/-0)")
	assert.Contains(t, transcript, "```diff\n@@ -1 +1 @@\n+hello\n```")

	entries := strings.Split(transcript, "\n\n")
	require.Len(t, entries, 2)
}

func TestExtractLargeDiffGate(t *testing.T) {
	t.Run("single oversized file crosses ceiling", func(t *testing.T) {
		files := []File{
			{Filename: "generated.go", Status: "modified", Patch: patchOfLines(5001)},
		}
		transcript, _, isLarge := Extract(files, nil)
		assert.True(t, isLarge)
		assert.Equal(t, EmptyTranscript, transcript)
	})

	t.Run("file crossing the ceiling is excluded, earlier files kept", func(t *testing.T) {
		files := []File{
			{Filename: "a.go", Status: "modified", Patch: patchOfLines(400)},
			{Filename: "b.go", Status: "modified", Patch: patchOfLines(4700)},
			{Filename: "c.go", Status: "modified", Patch: patchOfLines(10)},
		}
		transcript, _, isLarge := Extract(files, nil)
		assert.True(t, isLarge)
		assert.Contains(t, transcript, "### a.go")
		assert.NotContains(t, transcript, "### b.go")
		assert.NotContains(t, transcript, "### c.go")
	})

	t.Run("exactly at the ceiling is not large", func(t *testing.T) {
		files := []File{
			{Filename: "a.go", Status: "modified", Patch: patchOfLines(500)},
			{Filename: "b.go", Status: "modified", Patch: patchOfLines(4500)},
		}
		transcript, _, isLarge := Extract(files, nil)
		assert.False(t, isLarge)
		assert.Contains(t, transcript, "### a.go")
		assert.Contains(t, transcript, "### b.go")
	})
}

func TestExtractTruncatesLongFilePatches(t *testing.T) {
	files := []File{
		{Filename: "big.go", Status: "modified", Patch: patchOfLines(600)},
	}

	transcript, _, isLarge := Extract(files, nil)

	assert.False(t, isLarge)
	assert.Contains(t, transcript, "... (truncated)")
	// 500 retained patch lines plus the header, fences, and marker.
	assert.Less(t, strings.Count(transcript, "\n"), 510)
}

func TestExtractIsDeterministicAndOrderSensitive(t *testing.T) {
	files := []File{
		{Filename: "a.go", Status: "modified", Additions: 1, Patch: "+a"},
		{Filename: "b.go", Status: "modified", Additions: 1, Patch: "+b"},
	}
	reversed := []File{files[1], files[0]}

	t1, f1, _ := Extract(files, nil)
	t2, f2, _ := Extract(files, nil)
	t3, f3, _ := Extract(reversed, nil)

	assert.Equal(t, t1, t2)
	assert.Equal(t, f1, f2)
	assert.NotEqual(t, t1, t3)
	assert.NotEqual(t, f1, f3)
}

func TestExtractExtraSkipPaths(t *testing.T) {
	files := []File{
		{Filename: "schema/generated.sql", Status: "modified", Patch: "+sql"},
		{Filename: "main.go", Status: "modified", Patch: "+go"},
	}

	transcript, _, _ := Extract(files, []string{"generated.sql"})

	assert.NotContains(t, transcript, "generated.sql")
	assert.Contains(t, transcript, "### main.go")
}
