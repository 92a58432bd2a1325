package github

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateDescription(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
	}{
		{"short description unchanged", "Awaiting reviewer comprehension answers", 39},
		{"empty description", "", 0},
		{"exactly at the limit", strings.Repeat("a", 140), 140},
		{"over the limit is capped", strings.Repeat("b", 200), 140},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateDescription(tt.input)
			assert.Len(t, got, tt.wantLen)
			assert.True(t, strings.HasPrefix(tt.input, got))
		})
	}
}
