package domain

// Quote is a non-binding premium estimate. It is never persisted on its own;
// it is carried forward verbatim as input to application submission.
type Quote struct {
	Age              int     `json:"age"`
	Gender           string  `json:"gender"`
	CoverageAmount   float64 `json:"coverageAmount"`
	DurationYears    int     `json:"durationYears"`
	Smoker           bool    `json:"smoker"`
	EstimatedPremium float64 `json:"estimatedPremium"`
}
