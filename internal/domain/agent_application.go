package domain

import "time"

// AgentApplicationStatus is the review state of a request to become an agent.
type AgentApplicationStatus string

const (
	AgentApplicationPending  AgentApplicationStatus = "Pending"
	AgentApplicationApproved AgentApplicationStatus = "Approved"
	AgentApplicationRejected AgentApplicationStatus = "Rejected"
)

// AgentApplication is a customer's request to be promoted to the agent role.
// Name and email are snapshotted at submission. At most one application may be
// pending per user; approval promotes the user, rejection records feedback.
type AgentApplication struct {
	ID          string
	UserID      string
	UserName    string
	UserEmail   string
	Experience  string
	Specialties []string
	Motivation  string
	Status      AgentApplicationStatus
	Feedback    string // required on rejection
	SubmittedAt time.Time
	DecidedAt   *time.Time
}
