package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name   string
		ruleNL string
		want   []string
	}{
		{
			name:   "simple rule",
			ruleNL: "Invoke the agent when checkout fails",
			want:   []string{"checkout", "fails"},
		},
		{
			name:   "punctuation stripped",
			ruleNL: "trigger on payment-declined, refund!",
			want:   []string{"payment", "declined", "refund"},
		},
		{
			name:   "duplicates removed",
			ruleNL: "error error error page",
			want:   []string{"error", "page"},
		},
		{
			name:   "short tokens dropped",
			ruleNL: "if ui is ok go to cart",
			want:   []string{"cart"},
		},
		{
			name:   "empty rule",
			ruleNL: "",
			want:   nil,
		},
		{
			name:   "only stop words",
			ruleNL: "if then when the and",
			want:   nil,
		},
		{
			name:   "case normalized",
			ruleNL: "Checkout ERROR Detected",
			want:   []string{"checkout", "error", "detected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.ruleNL)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractKeywords_NoStopWordsOrShortTokens(t *testing.T) {
	got := ExtractKeywords("when the checkout and payment error is on at cart")

	seen := make(map[string]int)
	for _, keyword := range got {
		assert.Greater(t, len(keyword), 2, "keyword %q too short", keyword)
		_, isStop := stopWords[keyword]
		assert.False(t, isStop, "keyword %q is a stop word", keyword)
		seen[keyword]++
	}
	for keyword, count := range seen {
		assert.Equal(t, 1, count, "keyword %q duplicated", keyword)
	}
}
