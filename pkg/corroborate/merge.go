package corroborate

import (
	"fmt"

	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// MergePolicy decides how a model judgment changes a local result.
type MergePolicy string

const (
	// PolicyLocal ignores the judgment.
	PolicyLocal MergePolicy = "local"
	// PolicyPreferExternalPositive adopts the judgment only when the model
	// found a mention the local engine missed.
	PolicyPreferExternalPositive MergePolicy = "prefer-external-positive"
	// PolicyMax ORs the mention flags and keeps the higher score.
	PolicyMax MergePolicy = "max"
)

// ParseMergePolicy validates a policy name. Empty selects the default.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case "":
		return PolicyPreferExternalPositive, nil
	case PolicyLocal, PolicyPreferExternalPositive, PolicyMax:
		return MergePolicy(s), nil
	}
	return "", fmt.Errorf("unknown merge policy %q (want local, prefer-external-positive, or max)", s)
}

// Merge applies j to local under policy. Failed results and nil judgments
// are returned unchanged.
func Merge(local visibility.MentionResult, j *Judgment, policy MergePolicy) visibility.MentionResult {
	if j == nil || local.Failed() {
		return local
	}

	external := func(r visibility.MentionResult) visibility.MentionResult {
		signals := append(visibility.Signals(nil), r.Signals...)
		signals.Add(visibility.Signal{Kind: visibility.SignalExternal, Term: truncate(j.Context, 80)})
		r.Signals = signals
		return r
	}

	switch policy {
	case PolicyPreferExternalPositive:
		if j.Mentioned && !local.Mentioned {
			merged := external(local)
			merged.Mentioned = true
			merged.VisibilityScore = clamp(j.Score)
			merged.Rank = visibility.RankMentioned
			merged.Confidence = visibility.ConfidenceExternal
			return merged
		}
	case PolicyMax:
		if !j.Mentioned {
			return local
		}
		merged := external(local)
		if !local.Mentioned {
			merged.Mentioned = true
			merged.Rank = visibility.RankMentioned
			merged.Confidence = visibility.ConfidenceExternal
		}
		merged.VisibilityScore = max(local.VisibilityScore, clamp(j.Score))
		return merged
	}
	return local
}
