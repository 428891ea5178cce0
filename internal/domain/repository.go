package domain

import (
	"context"
	"io"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	UpsertBySubject(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	ListByRole(ctx context.Context, role UserRole) ([]User, error)
	UpdateRole(ctx context.Context, id string, role UserRole) (*User, error)
}

// PolicyRepository handles persistence for insurance products. Update and
// Delete must refuse to touch a policy referenced by any application.
type PolicyRepository interface {
	Create(ctx context.Context, policy *Policy) error
	Update(ctx context.Context, policy *Policy) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Policy, error)
	List(ctx context.Context) ([]Policy, error)
	ListPopular(ctx context.Context, limit int) ([]PolicyPopularity, error)
}

// ApplicationRepository persists application records. The state-changing
// methods are conditioned on the expected composite state: when zero rows
// match, the implementation returns ConcurrentModificationError so callers
// can re-read and reapply.
type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Application, error)
	ListByAgent(ctx context.Context, agentID string) ([]Application, error)
	List(ctx context.Context) ([]Application, error)
	AssignAgent(ctx context.Context, id, agentID string, expect AppState) error
	SetDecision(ctx context.Context, id string, status ApplicationStatus, feedback string, expect AppState) error
	// ConfirmPayment flips paymentStatus to Paid and inserts the transaction
	// in one database transaction.
	ConfirmPayment(ctx context.Context, id string, txn *Transaction, expect AppState) error
}

// ClaimRepository persists claims. Create and Approve update the owning
// application's claim marker atomically with the claim row.
type ClaimRepository interface {
	Create(ctx context.Context, claim *Claim, expect AppState) error
	GetByID(ctx context.Context, id string) (*Claim, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Claim, error)
	List(ctx context.Context) ([]Claim, error)
	Approve(ctx context.Context, id string, decidedAt time.Time) error
}

// AgentApplicationRepository persists agent-role applications. Decide is
// conditioned on the record still being Pending; an approval also promotes
// the applicant's role, atomically with the status change.
type AgentApplicationRepository interface {
	Create(ctx context.Context, app *AgentApplication) error
	GetByID(ctx context.Context, id string) (*AgentApplication, error)
	ListByStatus(ctx context.Context, status AgentApplicationStatus) ([]AgentApplication, error)
	ListByUser(ctx context.Context, userID string) ([]AgentApplication, error)
	Decide(ctx context.Context, id string, status AgentApplicationStatus, feedback string, decidedAt time.Time) error
}

// TransactionRepository reads immutable payment records.
type TransactionRepository interface {
	List(ctx context.Context) ([]Transaction, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Transaction, error)
}

// DashboardRepository aggregates counters for the admin dashboard.
type DashboardRepository interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
}

// DashboardSummary is the admin dashboard payload.
type DashboardSummary struct {
	Users                int64
	PendingApplications  int64
	ApprovedApplications int64
	RejectedApplications int64
	PendingClaims        int64
	ApprovedClaims       int64
	PaidPremiumCents     int64
}

// DocumentStore persists uploaded claim attachments and returns a reference
// URL. Implementations are external I/O and must honor context cancellation.
type DocumentStore interface {
	Store(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}
