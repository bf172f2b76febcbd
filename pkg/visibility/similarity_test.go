package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"workexe", "workexe", 0},
		{"workexe", "workexa", 1},
		{"kitten", "sitting", 3},
		{"güven", "guven", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, levenshtein([]rune(tt.a), []rune(tt.b)))
			assert.Equal(t, tt.want, levenshtein([]rune(tt.b), []rune(tt.a)))
		})
	}
}

func TestTokenRatio(t *testing.T) {
	assert.Equal(t, 1.0, tokenRatio("", ""))
	assert.Equal(t, 1.0, tokenRatio("workexe", "workexe"))
	assert.InDelta(t, 0.857, tokenRatio("workexe", "workexa"), 0.001)
	assert.InDelta(t, 0.7, tokenRatio("workexe", "workexe.co"), 0.001)
	assert.Equal(t, 0.0, tokenRatio("abc", "xyz"))
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"empty", "", "text", 0},
		{"substring", "workexe", "try workexe today", 100},
		{"text shorter than term", "try workexe today", "workexe", 0},
		{"single letter inside term", "workexe", "e", 0},
		{"one typo", "workexe", "try workexa today", 86},
		{"same length", "abcd", "abce", 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, partialRatio(tt.a, tt.b))
		})
	}

	assert.Less(t, partialRatio("workexe", "completely unrelated content"), 80)
}

func TestBestTokenRatio(t *testing.T) {
	tokens := tokenize("I use Workexa, daily.")
	assert.Equal(t, []string{"I", "use", "Workexa", "daily"}, tokens)
	assert.Equal(t, 1.0, bestTokenRatio("workexa", []string{"workexe", "workexa"}))
	assert.InDelta(t, 0.857, bestTokenRatio("workexa", []string{"use", "workexe"}), 0.001)
	assert.Equal(t, 0.0, bestTokenRatio("workexe", nil))
}
