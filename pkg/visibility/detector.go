package visibility

import "strings"

// Detector decides whether an Identity is mentioned in a text using three
// tiers: exact substrings, fuzzy partial similarity, and per-token near
// matches. Every tier contributes its own signals.
type Detector struct {
	fold           folder
	fuzzyThreshold int
	nearThreshold  float64
	minFuzzyLen    int
}

// NewDetector builds a Detector from cfg.
func NewDetector(cfg Config) *Detector {
	return &Detector{
		fold:           newFolder(cfg.Language),
		fuzzyThreshold: cfg.FuzzyThreshold,
		nearThreshold:  cfg.NearMatchThreshold,
		minFuzzyLen:    cfg.MinFuzzyLength,
	}
}

// Detect lowercases text and runs every tier against id.
func (d *Detector) Detect(text string, id Identity) Detection {
	return d.detectFolded(d.fold.Fold(text), id)
}

// detectFolded expects text already folded with the same folder.
func (d *Detector) detectFolded(text string, id Identity) Detection {
	var det Detection
	if text == "" {
		return det
	}

	exact := func(kind SignalKind, term string) {
		if term != "" && strings.Contains(text, term) {
			det.Signals.Add(Signal{Kind: kind, Term: term})
		}
	}
	exact(SignalFullSource, id.Source)
	exact(SignalDomain, id.Domain)
	exact(SignalCompanyName, id.CompanyName)
	exact(SignalShortName, id.ShortName)
	for _, v := range id.Variants {
		exact(SignalVariant, v)
	}
	for _, a := range id.Aliases {
		exact(SignalAlias, a)
	}

	candidates := d.fuzzyCandidates(id)

	for _, c := range candidates {
		if partialRatio(c, text) >= d.fuzzyThreshold {
			det.Signals.Add(Signal{Kind: SignalFuzzy, Term: c})
		}
	}

	tokens := tokenize(text)
	for _, c := range candidates {
		if bestTokenRatio(c, tokens) >= d.nearThreshold {
			det.Signals.Add(Signal{Kind: SignalNearMatch, Term: c})
		}
	}

	det.Mentioned = len(det.Signals) > 0
	return det
}

// fuzzyCandidates are the company name, short name, and aliases long enough
// for approximate matching.
func (d *Detector) fuzzyCandidates(id Identity) []string {
	all := append([]string{id.CompanyName, id.ShortName}, id.Aliases...)
	out := make([]string, 0, len(all))
	for _, c := range uniqueStrings(all) {
		if len([]rune(c)) >= d.minFuzzyLen {
			out = append(out, c)
		}
	}
	return out
}
