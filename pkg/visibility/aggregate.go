package visibility

import "math"

// Summarize folds a batch of results into a RunSummary. Failed results count
// toward TotalUnits only. An empty or nil batch yields a zero summary with a
// Low recommendation.
func Summarize(results []MentionResult) RunSummary {
	sum := RunSummary{
		TotalUnits: len(results),
		BestIndex:  -1,
	}

	scoreTotal := 0
	for i := range results {
		r := &results[i]
		if r.Mentioned {
			sum.MentionedCount++
			switch r.Sentiment {
			case SentimentPositive:
				sum.SentimentBreakdown.Positive++
			case SentimentNegative:
				sum.SentimentBreakdown.Negative++
			default:
				sum.SentimentBreakdown.Neutral++
			}
		}
		if r.Failed() {
			continue
		}
		sum.SuccessfulUnits++
		scoreTotal += r.VisibilityScore
		// Strictly greater keeps the first unit on ties.
		if sum.BestIndex < 0 || r.VisibilityScore > results[sum.BestIndex].VisibilityScore {
			sum.BestIndex = i
		}
	}

	if sum.SuccessfulUnits > 0 {
		sum.MentionRate = round1(100 * float64(sum.MentionedCount) / float64(sum.SuccessfulUnits))
		sum.AverageScore = round1(float64(scoreTotal) / float64(sum.SuccessfulUnits))
	}
	if sum.BestIndex >= 0 {
		best := results[sum.BestIndex]
		sum.BestResult = &best
	}
	sum.Recommendation = Recommend(sum.MentionRate, sum.AverageScore)
	return sum
}

// Recommend maps a mention rate and average score to a tier.
func Recommend(mentionRate, averageScore float64) Recommendation {
	switch {
	case mentionRate >= 80 && averageScore >= 70:
		return RecommendationExcellent
	case mentionRate >= 50 && averageScore >= 50:
		return RecommendationGood
	case mentionRate >= 20:
		return RecommendationModerate
	}
	return RecommendationLow
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
