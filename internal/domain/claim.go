package domain

import "time"

// ClaimStatus is the state of a claim record. Rejection is not modeled; an
// approved claim is terminal.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "Pending"
	ClaimStatusApproved ClaimStatus = "Approved"
)

// Claim is a customer request for payout against an approved, paid
// application. Documents hold store URLs only, never raw bytes.
type Claim struct {
	ID            string
	ApplicationID string
	CustomerID    string
	Reason        string
	Documents     []string
	Status        ClaimStatus
	SubmittedAt   time.Time
	DecidedAt     *time.Time
}
