package domain

import "time"

// Policy is an insurance product offered to customers. Admin-managed; once a
// submitted application references it, edits and deletion are refused so that
// historical premiums stay reproducible.
type Policy struct {
	ID              string
	Title           string
	Description     string
	Category        string
	MinAge          int
	MaxAge          int
	CoverageMin     float64
	CoverageMax     float64
	DurationOptions []int
	BasePremiumRate float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PolicyPopularity pairs a policy with its application count.
type PolicyPopularity struct {
	Policy
	ApplicationCount int
}
