package visibility

import (
	"sort"
	"strings"
)

// SentimentClassifier votes on polarity by counting lexicon terms across the
// whole text. It only classifies texts in which the target is mentioned.
type SentimentClassifier struct {
	fold     folder
	detector *Detector
	positive []string
	negative []string
}

// NewSentimentClassifier builds a SentimentClassifier from cfg.
func NewSentimentClassifier(cfg Config) *SentimentClassifier {
	f := newFolder(cfg.Language)
	foldAll := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			out = append(out, f.Fold(strings.TrimSpace(s)))
		}
		out = uniqueStrings(out)
		// Longer phrases are masked before their substrings are counted.
		sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
		return out
	}
	return &SentimentClassifier{
		fold:     f,
		detector: NewDetector(cfg),
		positive: foldAll(cfg.PositiveWords),
		negative: foldAll(cfg.NegativeWords),
	}
}

// Classify returns the sentiment of text toward id.
func (c *SentimentClassifier) Classify(text string, id Identity) Sentiment {
	folded := c.fold.Fold(text)
	return c.classifyFolded(folded, c.detector.detectFolded(folded, id).Mentioned)
}

func (c *SentimentClassifier) classifyFolded(text string, mentioned bool) Sentiment {
	if !mentioned {
		return SentimentNeutral
	}

	// Negative phrases like "tavsiye etmem" contain positive terms, so they
	// are counted and then blanked out before positives are counted.
	neg := countTerms(text, c.negative)
	pos := countTerms(maskTerms(text, c.negative), c.positive)

	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	}
	return SentimentNeutral
}
