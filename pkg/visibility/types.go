// Package visibility scores how prominently a target brand appears in free
// text produced by generative systems. An Engine expands a target website or
// company name into an Identity, detects mentions through three matching
// tiers, and derives a 0-100 visibility score, rank bucket, and sentiment for
// each unit. Summarize folds a batch of results into a RunSummary.
//
// All operations are deterministic for a given Config and input.
package visibility

import (
	"encoding/json"
	"sort"
	"strings"
)

// Identity is the expanded set of surface forms that refer to one target.
// It is built once per run and shared by every unit evaluated for the target.
type Identity struct {
	Source      string   `json:"source" yaml:"source"`
	Domain      string   `json:"domain" yaml:"domain"`
	CompanyName string   `json:"company_name" yaml:"company_name"`
	ShortName   string   `json:"short_name" yaml:"short_name"`
	Variants    []string `json:"variants" yaml:"variants"`
	Aliases     []string `json:"aliases" yaml:"aliases"`
}

// EvaluationUnit is one piece of text to assess against a target.
type EvaluationUnit struct {
	Text        string `json:"text" yaml:"text"`
	Target      string `json:"target" yaml:"target"`
	SourceLabel string `json:"source_label,omitempty" yaml:"source_label,omitempty"`
	Timestamp   string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// SignalKind names the matching rule that produced a Signal.
type SignalKind string

const (
	SignalFullSource  SignalKind = "full_source"
	SignalDomain      SignalKind = "domain"
	SignalCompanyName SignalKind = "company_name"
	SignalShortName   SignalKind = "short_name"
	SignalVariant     SignalKind = "variant"
	SignalAlias       SignalKind = "alias"
	SignalFuzzy       SignalKind = "fuzzy"
	SignalNearMatch   SignalKind = "near_match"
	SignalExternal    SignalKind = "external"

	// SignalPositiveContext records that the context bonus applied.
	SignalPositiveContext SignalKind = "positive_context"
)

// Exact reports whether the kind comes from the exact substring tier.
func (k SignalKind) Exact() bool {
	switch k {
	case SignalFullSource, SignalDomain, SignalCompanyName, SignalShortName, SignalVariant, SignalAlias:
		return true
	}
	return false
}

// Signal is one matching rule that fired, with the surface form it matched.
type Signal struct {
	Kind SignalKind
	Term string
}

func (s Signal) String() string {
	if s.Term == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.Term
}

// MarshalText encodes the signal as "kind:term".
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes the "kind:term" form.
func (s *Signal) UnmarshalText(b []byte) error {
	kind, term, _ := strings.Cut(string(b), ":")
	s.Kind = SignalKind(kind)
	s.Term = term
	return nil
}

// Signals is the set of rules that fired for a unit, kept sorted and unique.
type Signals []Signal

// Add inserts s if it is not already present.
func (ss *Signals) Add(s Signal) {
	for _, existing := range *ss {
		if existing == s {
			return
		}
	}
	*ss = append(*ss, s)
	sort.Slice(*ss, func(i, j int) bool {
		a, b := (*ss)[i], (*ss)[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Term < b.Term
	})
}

// Has reports whether any signal of the given kind fired.
func (ss Signals) Has(kind SignalKind) bool {
	for _, s := range ss {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// Strings returns the "kind:term" form of each signal.
func (ss Signals) Strings() []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.String()
	}
	return out
}

// Detection is the outcome of running the three matching tiers over a text.
type Detection struct {
	Mentioned bool
	Signals   Signals
}

// RankBucket is the coarse position of a mention.
type RankBucket string

const (
	RankFirst     RankBucket = "1st"
	RankSecond    RankBucket = "2nd"
	RankThird     RankBucket = "3rd"
	RankTopN      RankBucket = "TopN"
	RankMentioned RankBucket = "Mentioned"
	RankNotRanked RankBucket = "NotRanked"
)

// Sentiment is the polarity of the text around a mention.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Confidence is the strongest matching tier that produced the mention.
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
	ConfidenceExternal Confidence = "external"
	ConfidenceNone     Confidence = "none"
)

// ConfidenceFor derives the tier from a signal set.
func ConfidenceFor(ss Signals) Confidence {
	var fuzzy, near, external bool
	for _, s := range ss {
		switch {
		case s.Kind.Exact():
			return ConfidenceHigh
		case s.Kind == SignalFuzzy:
			fuzzy = true
		case s.Kind == SignalNearMatch:
			near = true
		case s.Kind == SignalExternal:
			external = true
		}
	}
	switch {
	case fuzzy:
		return ConfidenceMedium
	case near:
		return ConfidenceLow
	case external:
		return ConfidenceExternal
	}
	return ConfidenceNone
}

// MentionResult is the per-unit verdict.
type MentionResult struct {
	Mentioned       bool       `json:"mentioned" yaml:"mentioned"`
	VisibilityScore int        `json:"visibility_score" yaml:"visibility_score"`
	Rank            RankBucket `json:"rank" yaml:"rank"`
	Sentiment       Sentiment  `json:"sentiment" yaml:"sentiment"`
	Confidence      Confidence `json:"confidence" yaml:"confidence"`
	Signals         Signals    `json:"signals" yaml:"signals"`
	SourceLabel     string     `json:"source_label,omitempty" yaml:"source_label,omitempty"`
	Timestamp       string     `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Error           string     `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCode       string     `json:"error_code,omitempty" yaml:"error_code,omitempty"`
}

// Failed reports whether the unit could not be evaluated.
func (r MentionResult) Failed() bool {
	return r.Error != ""
}

// SignalsJSON encodes the signal set for storage in a text column.
func (r MentionResult) SignalsJSON() string {
	if len(r.Signals) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(r.Signals)
	return string(b)
}

// ParseSignalsJSON is the inverse of SignalsJSON.
func ParseSignalsJSON(s string) (Signals, error) {
	if s == "" {
		return nil, nil
	}
	var ss Signals
	if err := json.Unmarshal([]byte(s), &ss); err != nil {
		return nil, err
	}
	return ss, nil
}

// ErrorResult is the error-bearing result recorded for a failed unit.
func ErrorResult(unit EvaluationUnit, code, message string) MentionResult {
	return MentionResult{
		Rank:        RankNotRanked,
		Sentiment:   SentimentNeutral,
		Confidence:  ConfidenceNone,
		SourceLabel: unit.SourceLabel,
		Timestamp:   unit.Timestamp,
		Error:       message,
		ErrorCode:   code,
	}
}

// SentimentBreakdown counts mentioned results per polarity.
type SentimentBreakdown struct {
	Positive int `json:"positive" yaml:"positive"`
	Negative int `json:"negative" yaml:"negative"`
	Neutral  int `json:"neutral" yaml:"neutral"`
}

// Recommendation is the advisory tier of a run.
type Recommendation string

const (
	RecommendationExcellent Recommendation = "Excellent"
	RecommendationGood      Recommendation = "Good"
	RecommendationModerate  Recommendation = "Moderate"
	RecommendationLow       Recommendation = "Low"
)

// Message is the advice shown alongside the tier.
func (r Recommendation) Message() string {
	switch r {
	case RecommendationExcellent:
		return "Excellent visibility: the brand is mentioned often and prominently."
	case RecommendationGood:
		return "Good visibility: content work can push it higher."
	case RecommendationModerate:
		return "Moderate visibility: SEO and content strategy need work."
	default:
		return "Low visibility: a broad digital marketing push is needed."
	}
}

// RunSummary aggregates the results of one batch.
type RunSummary struct {
	TotalUnits         int                `json:"total_units" yaml:"total_units"`
	SuccessfulUnits    int                `json:"successful_units" yaml:"successful_units"`
	MentionedCount     int                `json:"mentioned_count" yaml:"mentioned_count"`
	MentionRate        float64            `json:"mention_rate" yaml:"mention_rate"`
	AverageScore       float64            `json:"average_score" yaml:"average_score"`
	SentimentBreakdown SentimentBreakdown `json:"sentiment_breakdown" yaml:"sentiment_breakdown"`
	// BestIndex is the position of BestResult in the batch, -1 when absent.
	BestIndex      int            `json:"best_index" yaml:"best_index"`
	BestResult     *MentionResult `json:"best_result,omitempty" yaml:"best_result,omitempty"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
}
