package visibility

import "strings"

// Scorer turns a signal set into a 0-100 visibility score. Each signal
// category contributes its weight at most once, plus a context bonus when a
// positive term appears alongside the company name.
type Scorer struct {
	fold     folder
	weights  Weights
	positive []string
}

// NewScorer builds a Scorer from cfg.
func NewScorer(cfg Config) *Scorer {
	f := newFolder(cfg.Language)
	positive := make([]string, 0, len(cfg.PositiveWords))
	for _, w := range cfg.PositiveWords {
		positive = append(positive, f.Fold(strings.TrimSpace(w)))
	}
	return &Scorer{fold: f, weights: cfg.Weights, positive: uniqueStrings(positive)}
}

// Score returns the visibility score for text given the signals detected in it.
func (s *Scorer) Score(text string, id Identity, signals Signals) int {
	return s.scoreFolded(s.fold.Fold(text), id, signals)
}

func (s *Scorer) scoreFolded(text string, id Identity, signals Signals) int {
	w := s.weights
	score := 0
	if signals.Has(SignalFullSource) {
		score += w.FullSource
	}
	if signals.Has(SignalDomain) {
		score += w.Domain
	}
	if signals.Has(SignalCompanyName) {
		score += w.CompanyName
	}
	if signals.Has(SignalShortName) {
		score += w.ShortName
	}
	// Aliases are alternative spellings and share the variant bonus.
	if signals.Has(SignalVariant) || signals.Has(SignalAlias) {
		score += w.Variant
	}
	if signals.Has(SignalFuzzy) {
		score += w.Fuzzy
	}
	if signals.Has(SignalNearMatch) {
		score += w.NearMatch
	}
	if s.hasPositiveContext(text, id) {
		score += w.Context
	}
	return clampScore(score)
}

func (s *Scorer) hasPositiveContext(text string, id Identity) bool {
	if id.CompanyName == "" || !strings.Contains(text, id.CompanyName) {
		return false
	}
	for _, p := range s.positive {
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func clampScore(n int) int {
	return max(0, min(100, n))
}
