package service

// ScoreResult is the outcome of evaluating one submission
type ScoreResult struct {
	Passed     bool    `json:"passed"`
	Percentage float64 `json:"percentage"`
}

// PassThreshold is the share of the maximum score required to pass
const PassThreshold = 0.70

// EvaluateScore decides pass/fail and computes the percentage for a
// submission. Pure function: activities with no maximum score pass on any
// submission, and negative inputs are clamped to zero.
func EvaluateScore(score, maxScore int64) ScoreResult {
	if score < 0 {
		score = 0
	}
	if maxScore < 0 {
		maxScore = 0
	}

	var percentage float64
	if maxScore > 0 {
		percentage = float64(score) / float64(maxScore) * 100
	} else if score > 0 {
		percentage = 100
	}

	passed := float64(score) >= float64(maxScore)*PassThreshold
	return ScoreResult{Passed: passed, Percentage: percentage}
}
