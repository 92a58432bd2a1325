package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumberedAnswers(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "answers sorted by number, not appearance",
			body: "2. second\n1. first\n3. third",
			want: []string{"first", "second", "third"},
		},
		{
			name: "no numbered lines",
			body: "I think this change looks fine overall.",
			want: nil,
		},
		{
			name: "empty body",
			body: "",
			want: nil,
		},
		{
			name: "leading whitespace and surrounding prose",
			body: "Here are my answers:\n\n  1. the cache avoids re-fetching\n\t2. it falls back to defaults\nThanks!",
			want: []string{"the cache avoids re-fetching", "it falls back to defaults"},
		},
		{
			name: "duplicate numbers retained in scan order",
			body: "1. first try\n2. middle\n1. second try",
			want: []string{"first try", "second try", "middle"},
		},
		{
			name: "text is trimmed",
			body: "1.    padded answer   ",
			want: []string{"padded answer"},
		},
		{
			name: "numbered list not at line start within sentence is ignored",
			body: "see point 1. above for details",
			want: nil,
		},
		{
			name: "large numbers sort numerically",
			body: "10. tenth\n2. second\n1. first",
			want: []string{"first", "second", "tenth"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumberedAnswers(tt.body))
		})
	}
}
