// Package quote estimates premiums from applicant inputs. The calculation is
// pure: the same inputs always yield the same premium, so the figure shown to
// the customer can be re-derived when the application is submitted.
package quote

import (
	"fmt"
	"math"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

// Pricing constants. These are a product placeholder, not actuarial output;
// the smoker surcharge applies multiplicatively after the additive terms.
const (
	basePremium      = 50.0
	ageFactor        = 2.0
	coverageUnit     = 1000.0
	coverageFactor   = 0.5
	durationFactor   = 10.0
	smokerMultiplier = 1.5
)

// Input bounds.
const (
	MinAge            = 18
	MinCoverageAmount = 10_000.0
	MinDurationYears  = 5
)

// Estimate returns the premium for the given applicant inputs, rounded
// half-up to two decimals. A bound violation returns a ValidationError naming
// the offending field.
func Estimate(age int, coverageAmount float64, durationYears int, smoker bool) (float64, error) {
	if age < MinAge {
		return 0, &domain.ValidationError{Field: "age", Message: fmt.Sprintf("must be at least %d", MinAge)}
	}
	if coverageAmount < MinCoverageAmount {
		return 0, &domain.ValidationError{Field: "coverageAmount", Message: fmt.Sprintf("must be at least %.0f", MinCoverageAmount)}
	}
	if durationYears < MinDurationYears {
		return 0, &domain.ValidationError{Field: "durationYears", Message: fmt.Sprintf("must be at least %d years", MinDurationYears)}
	}

	premium := basePremium
	premium += float64(age) * ageFactor
	premium += coverageAmount / coverageUnit * coverageFactor
	premium += float64(durationYears) * durationFactor
	if smoker {
		premium *= smokerMultiplier
	}
	return roundHalfUp(premium), nil
}

// EstimateQuote validates the inputs of q and returns a copy with
// EstimatedPremium filled in.
func EstimateQuote(q domain.Quote) (domain.Quote, error) {
	premium, err := Estimate(q.Age, q.CoverageAmount, q.DurationYears, q.Smoker)
	if err != nil {
		return domain.Quote{}, err
	}
	q.EstimatedPremium = premium
	return q, nil
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
