package speech

// ConfidenceScorer estimates transcript quality on a 0-1 scale from the
// recognized word count. It is a function type so a provider-reported score
// can replace the heuristic without touching the stage's control flow.
type ConfidenceScorer func(wordCount int) float64

// WordCountScorer is the default heuristic: the provider does not return a
// native confidence in the response mode we use, so longer transcripts with
// more recognized words score closer to the upper bound.
func WordCountScorer(wordCount int) float64 {
	score := 0.7 + float64(wordCount)/1000.0*0.2
	if score > 0.95 {
		return 0.95
	}
	return score
}
