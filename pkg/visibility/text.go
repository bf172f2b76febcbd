package visibility

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// folder lowercases text for matching. Composed (NFC) form is applied first
// so decomposed input like "ü" still matches "ü".
type folder struct {
	tag language.Tag
}

func newFolder(lang string) folder {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	return folder{tag: tag}
}

// Fold returns the normalized lowercase form of s. Outside Turkic tags "İ"
// lowers to "i" plus a combining dot; the dot is dropped so "BİRİNCİ" folds
// to "birinci" under any language.
func (f folder) Fold(s string) string {
	if s == "" {
		return s
	}
	// cases.Caser is stateful, so one is created per call.
	out := cases.Lower(f.tag).String(norm.NFC.String(s))
	return strings.ReplaceAll(out, "i\u0307", "i")
}

// tokenize splits on whitespace and trims punctuation at token edges. Inner
// punctuation is kept so "workexe.co" stays one token.
func tokenize(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// containsTerm reports whether term occurs in text with no letter or digit
// directly before or after it.
func containsTerm(text, term string) bool {
	return indexTerm(text, term, 0) >= 0
}

// indexTerm returns the byte offset of the first bounded occurrence of term
// at or after from, or -1.
func indexTerm(text, term string, from int) int {
	if term == "" {
		return -1
	}
	for from <= len(text) {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(term)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return -1
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// countTerms returns the number of non-overlapping occurrences of each term
// in text, summed.
func countTerms(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if t == "" {
			continue
		}
		n += strings.Count(text, t)
	}
	return n
}

// maskTerms blanks every occurrence of terms, keeping byte offsets stable.
func maskTerms(text string, terms []string) string {
	for _, t := range terms {
		if t == "" || !strings.Contains(text, t) {
			continue
		}
		text = strings.ReplaceAll(text, t, strings.Repeat(" ", len(t)))
	}
	return text
}

// uniqueStrings drops empty and repeated entries, keeping first-seen order.
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
