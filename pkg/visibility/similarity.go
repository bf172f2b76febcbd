package visibility

import (
	"math"
	"strings"
)

// levenshtein returns the edit distance between a and b, counted in runes.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two rolling rows instead of the full matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// tokenRatio is the normalized edit similarity of a and b in [0,1].
func tokenRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// partialRatio scores, from 0 to 100, how well term matches its best-aligned
// window of equal length inside text. Text shorter than term scores 0.
func partialRatio(term, text string) int {
	if term == "" || text == "" {
		return 0
	}
	short, long := []rune(term), []rune(text)
	if len(short) > len(long) {
		return 0
	}
	if strings.Contains(text, term) {
		return 100
	}

	m := len(short)
	best := 0.0
	for start := 0; start+m <= len(long); start++ {
		ratio := 1.0 - float64(levenshtein(short, long[start:start+m]))/float64(m)
		if ratio > best {
			best = ratio
		}
	}
	return int(math.Round(best * 100))
}

// bestTokenRatio returns the highest tokenRatio between term and any token.
func bestTokenRatio(term string, tokens []string) float64 {
	best := 0.0
	for _, tok := range tokens {
		if r := tokenRatio(term, tok); r > best {
			best = r
			if best == 1.0 {
				break
			}
		}
	}
	return best
}
