// Package lifecycle implements the application/claim state machine. The
// engine is stateless between calls: every transition reads the current
// record, checks the caller's capability and the state guard, then applies a
// single conditioned write through the repository. Two concurrent transitions
// on one application can never both succeed when only one
// precondition-satisfying path exists.
package lifecycle

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ronnie012/assured-life-server/internal/authz"
	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/quote"
)

// Engine validates and applies lifecycle transitions.
type Engine struct {
	apps      domain.ApplicationRepository
	claims    domain.ClaimRepository
	users     domain.UserRepository
	policies  domain.PolicyRepository
	agentApps domain.AgentApplicationRepository
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string
}

// NewEngine wires the engine to its repositories.
func NewEngine(apps domain.ApplicationRepository, claims domain.ClaimRepository, users domain.UserRepository, policies domain.PolicyRepository, agentApps domain.AgentApplicationRepository, logger zerolog.Logger) *Engine {
	return &Engine{
		apps:      apps,
		claims:    claims,
		users:     users,
		policies:  policies,
		agentApps: agentApps,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SubmitInput carries everything a customer provides when applying.
type SubmitInput struct {
	PolicyID         string
	Quote            domain.Quote
	PersonalData     domain.PersonalData
	NomineeData      domain.NomineeData
	HealthDisclosure domain.HealthDisclosure
}

// Submit creates an application in (Pending, Due, None). The quote is
// re-estimated server-side; a premium that does not match what the calculator
// produces for the same inputs is rejected.
func (e *Engine) Submit(ctx context.Context, caller domain.Identity, in SubmitInput) (*domain.Application, error) {
	if !authz.CanPerform(caller, domain.TransitionSubmit, nil) {
		return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: string(domain.TransitionSubmit)}
	}
	if err := validateSubmit(in); err != nil {
		return nil, err
	}

	policy, err := e.policies.GetByID(ctx, in.PolicyID)
	if err != nil {
		return nil, err
	}
	if in.Quote.Age < policy.MinAge || in.Quote.Age > policy.MaxAge {
		return nil, &domain.ValidationError{Field: "age", Message: fmt.Sprintf("policy covers ages %d-%d", policy.MinAge, policy.MaxAge)}
	}
	if in.Quote.CoverageAmount < policy.CoverageMin || in.Quote.CoverageAmount > policy.CoverageMax {
		return nil, &domain.ValidationError{Field: "coverageAmount", Message: fmt.Sprintf("policy covers %.0f-%.0f", policy.CoverageMin, policy.CoverageMax)}
	}
	if len(policy.DurationOptions) > 0 && !containsInt(policy.DurationOptions, in.Quote.DurationYears) {
		return nil, &domain.ValidationError{Field: "durationYears", Message: "duration not offered by policy"}
	}

	estimated, err := quote.EstimateQuote(in.Quote)
	if err != nil {
		return nil, err
	}
	if estimated.EstimatedPremium != in.Quote.EstimatedPremium {
		return nil, &domain.ValidationError{Field: "estimatedPremium", Message: "premium does not match quoted inputs"}
	}

	app := &domain.Application{
		ID:               e.newID(),
		CustomerID:       caller.UserID,
		PolicyID:         policy.ID,
		PersonalData:     in.PersonalData,
		NomineeData:      in.NomineeData,
		HealthDisclosure: in.HealthDisclosure,
		Quote:            estimated,
		Status:           domain.StatusPending,
		PaymentStatus:    domain.PaymentDue,
		ClaimMarker:      domain.ClaimNone,
		SubmittedAt:      e.now(),
		UpdatedAt:        e.now(),
	}
	if err := e.apps.Create(ctx, app); err != nil {
		return nil, err
	}
	e.logger.Info().Str("application_id", app.ID).Str("policy_id", policy.ID).Msg("application submitted")
	return app, nil
}

// AssignAgent sets the agent responsible for underwriting a pending
// application. Admin only.
func (e *Engine) AssignAgent(ctx context.Context, caller domain.Identity, appID, agentID string) (*domain.Application, error) {
	app, err := e.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !authz.CanPerform(caller, domain.TransitionAssignAgent, app) {
		return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: string(domain.TransitionAssignAgent)}
	}
	if app.Status != domain.StatusPending {
		return nil, invalidTransition(app, domain.TransitionAssignAgent)
	}

	agent, err := e.users.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Role != domain.RoleAgent {
		return nil, &domain.ValidationError{Field: "agentId", Message: "user is not an agent"}
	}

	if err := e.apps.AssignAgent(ctx, app.ID, agent.ID, app.State()); err != nil {
		return nil, err
	}
	app.AssignedAgentID = agent.ID
	e.logger.Info().Str("application_id", app.ID).Str("agent_id", agent.ID).Msg("agent assigned")
	return app, nil
}

// Decide records the underwriting decision. Admins may decide any pending
// application; agents only those assigned to them. Feedback is required for a
// rejection and is retained permanently.
func (e *Engine) Decide(ctx context.Context, caller domain.Identity, appID string, decision domain.ApplicationStatus, feedback string) (*domain.Application, error) {
	if decision != domain.StatusApproved && decision != domain.StatusRejected {
		return nil, &domain.ValidationError{Field: "status", Message: "decision must be Approved or Rejected"}
	}
	app, err := e.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !authz.CanPerform(caller, domain.TransitionDecide, app) {
		return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: string(domain.TransitionDecide)}
	}
	if app.Status != domain.StatusPending {
		return nil, invalidTransition(app, domain.TransitionDecide)
	}
	if decision == domain.StatusRejected && strings.TrimSpace(feedback) == "" {
		return nil, &domain.ValidationError{Field: "feedback", Message: "feedback is required when rejecting"}
	}

	if err := e.apps.SetDecision(ctx, app.ID, decision, feedback, app.State()); err != nil {
		return nil, err
	}
	app.Status = decision
	app.Feedback = feedback
	e.logger.Info().Str("application_id", app.ID).Str("decision", string(decision)).Str("decided_by", caller.UserID).Msg("application decided")
	return app, nil
}

// PaymentConfirmation is the webhook payload from the payment gateway.
type PaymentConfirmation struct {
	ApplicationID        string
	GatewayTransactionID string
	AmountCents          int64
	Currency             string
	Status               string
}

// ConfirmPayment flips an approved application from Due to Paid and records
// the transaction. The gateway delivers at least once: a retry after the
// state has advanced fails with InvalidTransitionError instead of silently
// succeeding, so a duplicate webhook can never double-count a payment.
func (e *Engine) ConfirmPayment(ctx context.Context, in PaymentConfirmation) (*domain.Transaction, error) {
	if in.GatewayTransactionID == "" {
		return nil, &domain.ValidationError{Field: "transactionId", Message: "required"}
	}
	if !strings.EqualFold(in.Status, "succeeded") {
		return nil, &domain.ValidationError{Field: "status", Message: "only succeeded payments are recorded"}
	}
	app, err := e.apps.GetByID(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.StatusApproved || app.PaymentStatus != domain.PaymentDue {
		return nil, invalidTransition(app, domain.TransitionConfirmPayment)
	}
	if expected := premiumCents(app.Quote.EstimatedPremium); in.AmountCents != expected {
		return nil, &domain.ValidationError{Field: "amount", Message: fmt.Sprintf("expected %d cents", expected)}
	}

	currency := in.Currency
	if currency == "" {
		currency = "usd"
	}
	txn := &domain.Transaction{
		ID:                   e.newID(),
		ApplicationID:        app.ID,
		CustomerID:           app.CustomerID,
		AmountCents:          in.AmountCents,
		Currency:             currency,
		GatewayTransactionID: in.GatewayTransactionID,
		Status:               "succeeded",
		CreatedAt:            e.now(),
	}
	if err := e.apps.ConfirmPayment(ctx, app.ID, txn, app.State()); err != nil {
		return nil, err
	}
	e.logger.Info().Str("application_id", app.ID).Str("gateway_transaction_id", in.GatewayTransactionID).Int64("amount_cents", in.AmountCents).Msg("payment confirmed")
	return txn, nil
}

// ClaimInput carries a claim filing. Documents are store URLs; the transport
// layer uploads the raw files before calling FileClaim.
type ClaimInput struct {
	ApplicationID string
	Reason        string
	Documents     []string
}

// FileClaim creates a Pending claim against an approved, paid application.
// At most one claim may be pending per application; re-filing is allowed once
// a prior claim has been approved.
func (e *Engine) FileClaim(ctx context.Context, caller domain.Identity, in ClaimInput) (*domain.Claim, error) {
	app, err := e.apps.GetByID(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !authz.CanPerform(caller, domain.TransitionFileClaim, app) {
		return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: string(domain.TransitionFileClaim)}
	}
	if app.Status != domain.StatusApproved || app.PaymentStatus != domain.PaymentPaid || app.ClaimMarker == domain.ClaimPending {
		return nil, invalidTransition(app, domain.TransitionFileClaim)
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, &domain.ValidationError{Field: "reason", Message: "required"}
	}

	claim := &domain.Claim{
		ID:            e.newID(),
		ApplicationID: app.ID,
		CustomerID:    caller.UserID,
		Reason:        in.Reason,
		Documents:     in.Documents,
		Status:        domain.ClaimStatusPending,
		SubmittedAt:   e.now(),
	}
	if err := e.claims.Create(ctx, claim, app.State()); err != nil {
		return nil, err
	}
	e.logger.Info().Str("claim_id", claim.ID).Str("application_id", app.ID).Msg("claim filed")
	return claim, nil
}

// DecideClaim approves a pending claim and marks the owning application's
// claim state Approved. Agent or admin only.
func (e *Engine) DecideClaim(ctx context.Context, caller domain.Identity, claimID string) (*domain.Claim, error) {
	claim, err := e.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	app, err := e.apps.GetByID(ctx, claim.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !authz.CanPerform(caller, domain.TransitionDecideClaim, app) {
		return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: string(domain.TransitionDecideClaim)}
	}
	if claim.Status != domain.ClaimStatusPending {
		return nil, &domain.InvalidTransitionError{
			Entity:    "claim",
			ID:        claim.ID,
			From:      string(claim.Status),
			Attempted: string(domain.TransitionDecideClaim),
		}
	}

	decidedAt := e.now()
	if err := e.claims.Approve(ctx, claim.ID, decidedAt); err != nil {
		return nil, err
	}
	claim.Status = domain.ClaimStatusApproved
	claim.DecidedAt = &decidedAt
	e.logger.Info().Str("claim_id", claim.ID).Str("decided_by", caller.UserID).Msg("claim approved")
	return claim, nil
}

// AgentApplicationInput carries a customer's request to become an agent.
type AgentApplicationInput struct {
	Experience  string
	Specialties []string
	Motivation  string
}

// ApplyForAgent files an agent-role application for the caller. Customers
// only, and at most one application may be pending per user.
func (e *Engine) ApplyForAgent(ctx context.Context, caller domain.Identity, in AgentApplicationInput) (*domain.AgentApplication, error) {
	if caller.Role != domain.RoleCustomer {
		return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: "apply for agent role"}
	}
	switch {
	case strings.TrimSpace(in.Experience) == "":
		return nil, &domain.ValidationError{Field: "experience", Message: "required"}
	case len(in.Specialties) == 0:
		return nil, &domain.ValidationError{Field: "specialties", Message: "at least one specialty required"}
	case strings.TrimSpace(in.Motivation) == "":
		return nil, &domain.ValidationError{Field: "motivation", Message: "required"}
	}

	existing, err := e.agentApps.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Status == domain.AgentApplicationPending {
			return nil, &domain.InvalidTransitionError{
				Entity:    "agentApplication",
				ID:        existing[i].ID,
				From:      string(domain.AgentApplicationPending),
				Attempted: "apply",
			}
		}
	}

	user, err := e.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	app := &domain.AgentApplication{
		ID:          e.newID(),
		UserID:      user.ID,
		UserName:    user.Name,
		UserEmail:   user.Email,
		Experience:  in.Experience,
		Specialties: in.Specialties,
		Motivation:  in.Motivation,
		Status:      domain.AgentApplicationPending,
		SubmittedAt: e.now(),
	}
	if err := e.agentApps.Create(ctx, app); err != nil {
		return nil, err
	}
	e.logger.Info().Str("agent_application_id", app.ID).Str("user_id", user.ID).Msg("agent application submitted")
	return app, nil
}

// DecideAgentApplication approves or rejects a pending agent application.
// Admin only. Approval promotes the applicant to the agent role atomically
// with the status change; rejection requires feedback.
func (e *Engine) DecideAgentApplication(ctx context.Context, caller domain.Identity, appID string, decision domain.AgentApplicationStatus, feedback string) (*domain.AgentApplication, error) {
	if caller.Role != domain.RoleAdmin {
		return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: "decide agent application"}
	}
	if decision != domain.AgentApplicationApproved && decision != domain.AgentApplicationRejected {
		return nil, &domain.ValidationError{Field: "status", Message: "decision must be Approved or Rejected"}
	}
	app, err := e.agentApps.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.AgentApplicationPending {
		return nil, &domain.InvalidTransitionError{
			Entity:    "agentApplication",
			ID:        app.ID,
			From:      string(app.Status),
			Attempted: "decide",
		}
	}
	if decision == domain.AgentApplicationRejected && strings.TrimSpace(feedback) == "" {
		return nil, &domain.ValidationError{Field: "feedback", Message: "feedback is required when rejecting"}
	}

	decidedAt := e.now()
	if err := e.agentApps.Decide(ctx, app.ID, decision, feedback, decidedAt); err != nil {
		return nil, err
	}
	app.Status = decision
	app.Feedback = feedback
	app.DecidedAt = &decidedAt
	e.logger.Info().Str("agent_application_id", app.ID).Str("decision", string(decision)).Str("decided_by", caller.UserID).Msg("agent application decided")
	return app, nil
}

// ListAgentApplications returns agent applications visible to the caller:
// customers their own, admins those in the given status (Pending when empty).
func (e *Engine) ListAgentApplications(ctx context.Context, caller domain.Identity, status domain.AgentApplicationStatus) ([]domain.AgentApplication, error) {
	switch caller.Role {
	case domain.RoleCustomer:
		return e.agentApps.ListByUser(ctx, caller.UserID)
	case domain.RoleAdmin:
		if status == "" {
			status = domain.AgentApplicationPending
		}
		return e.agentApps.ListByStatus(ctx, status)
	}
	return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: "list agent applications"}
}

// GetApplication returns an application visible to the caller.
func (e *Engine) GetApplication(ctx context.Context, caller domain.Identity, appID string) (*domain.Application, error) {
	app, err := e.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !authz.CanView(caller, app) {
		return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: "view application"}
	}
	return app, nil
}

/// ListApplications returns the applications the caller may see: customers
// their own, agents their assignments, admins everything.
func (e *Engine) ListApplications(ctx context.Context, caller domain.Identity) ([]domain.Application, error) {
	switch caller.Role {
	case domain.RoleCustomer:
		return e.apps.ListByCustomer(ctx, caller.UserID)
	case domain.RoleAgent:
		return e.apps.ListByAgent(ctx, caller.UserID)
	case domain.RoleAdmin:
		return e.apps.List(ctx)
	}
	return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: "list applications"}
}

// ListClaims returns the claims visible to the caller.
func (e *Engine) ListClaims(ctx context.Context, caller domain.Identity) ([]domain.Claim, error) {
	switch caller.Role {
	case domain.RoleCustomer:
		return e.claims.ListByCustomer(ctx, caller.UserID)
	case domain.RoleAgent, domain.RoleAdmin:
		return e.claims.List(ctx)
	}
	return nil, &domain.ForbiddenError{UserID: caller.UserID, Action: "list claims"}
}

func validateSubmit(in SubmitInput) error {
	switch {
	case in.PolicyID == "":
		return &domain.ValidationError{Field: "policyId", Message: "required"}
	case strings.TrimSpace(in.PersonalData.FullName) == "":
		return &domain.ValidationError{Field: "personalData.fullName", Message: "required"}
	case strings.TrimSpace(in.PersonalData.Email) == "":
		return &domain.ValidationError{Field: "personalData.email", Message: "required"}
	case strings.TrimSpace(in.PersonalData.NidSsn) == "":
		return &domain.ValidationError{Field: "personalData.nidSsn", Message: "required"}
	case strings.TrimSpace(in.NomineeData.NomineeName) == "":
		return &domain.ValidationError{Field: "nomineeData.nomineeName", Message: "required"}
	case strings.TrimSpace(in.NomineeData.NomineeRelationship) == "":
		return &domain.ValidationError{Field: "nomineeData.nomineeRelationship", Message: "required"}
	}
	return nil
}

func invalidTransition(app *domain.Application, t domain.Transition) error {
	return &domain.InvalidTransitionError{
		Entity:    "application",
		ID:        app.ID,
		From:      fmt.Sprintf("%s/%s/%s", app.Status, app.PaymentStatus, app.ClaimMarker),
		Attempted: string(t),
	}
}

func premiumCents(premium float64) int64 {
	return int64(math.Round(premium * 100))
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}
