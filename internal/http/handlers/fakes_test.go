package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/infra/identity"
	"github.com/ronnie012/assured-life-server/internal/lifecycle"
	"github.com/ronnie012/assured-life-server/internal/middleware"
)

var errNotStubbed = errors.New("not stubbed")

type fakeLifecycle struct {
	submit           func(domain.Identity, lifecycle.SubmitInput) (*domain.Application, error)
	assignAgent      func(domain.Identity, string, string) (*domain.Application, error)
	decide           func(domain.Identity, string, domain.ApplicationStatus, string) (*domain.Application, error)
	confirmPayment   func(lifecycle.PaymentConfirmation) (*domain.Transaction, error)
	fileClaim        func(domain.Identity, lifecycle.ClaimInput) (*domain.Claim, error)
	decideClaim      func(domain.Identity, string) (*domain.Claim, error)
	getApplication   func(domain.Identity, string) (*domain.Application, error)
	listApplications func(domain.Identity) ([]domain.Application, error)
	listClaims       func(domain.Identity) ([]domain.Claim, error)

	applyForAgent          func(domain.Identity, lifecycle.AgentApplicationInput) (*domain.AgentApplication, error)
	decideAgentApplication func(domain.Identity, string, domain.AgentApplicationStatus, string) (*domain.AgentApplication, error)
	listAgentApplications  func(domain.Identity, domain.AgentApplicationStatus) ([]domain.AgentApplication, error)
}

func (f *fakeLifecycle) Submit(_ context.Context, caller domain.Identity, in lifecycle.SubmitInput) (*domain.Application, error) {
	if f.submit == nil {
		return nil, errNotStubbed
	}
	return f.submit(caller, in)
}

func (f *fakeLifecycle) AssignAgent(_ context.Context, caller domain.Identity, appID, agentID string) (*domain.Application, error) {
	if f.assignAgent == nil {
		return nil, errNotStubbed
	}
	return f.assignAgent(caller, appID, agentID)
}

func (f *fakeLifecycle) Decide(_ context.Context, caller domain.Identity, appID string, decision domain.ApplicationStatus, feedback string) (*domain.Application, error) {
	if f.decide == nil {
		return nil, errNotStubbed
	}
	return f.decide(caller, appID, decision, feedback)
}

func (f *fakeLifecycle) ConfirmPayment(_ context.Context, in lifecycle.PaymentConfirmation) (*domain.Transaction, error) {
	if f.confirmPayment == nil {
		return nil, errNotStubbed
	}
	return f.confirmPayment(in)
}

func (f *fakeLifecycle) FileClaim(_ context.Context, caller domain.Identity, in lifecycle.ClaimInput) (*domain.Claim, error) {
	if f.fileClaim == nil {
		return nil, errNotStubbed
	}
	return f.fileClaim(caller, in)
}

func (f *fakeLifecycle) DecideClaim(_ context.Context, caller domain.Identity, claimID string) (*domain.Claim, error) {
	if f.decideClaim == nil {
		return nil, errNotStubbed
	}
	return f.decideClaim(caller, claimID)
}

func (f *fakeLifecycle) GetApplication(_ context.Context, caller domain.Identity, appID string) (*domain.Application, error) {
	if f.getApplication == nil {
		return nil, errNotStubbed
	}
	return f.getApplication(caller, appID)
}

func (f *fakeLifecycle) ListApplications(_ context.Context, caller domain.Identity) ([]domain.Application, error) {
	if f.listApplications == nil {
		return nil, errNotStubbed
	}
	return f.listApplications(caller)
}

func (f *fakeLifecycle) ListClaims(_ context.Context, caller domain.Identity) ([]domain.Claim, error) {
	if f.listClaims == nil {
		return nil, errNotStubbed
	}
	return f.listClaims(caller)
}

func (f *fakeLifecycle) ApplyForAgent(_ context.Context, caller domain.Identity, in lifecycle.AgentApplicationInput) (*domain.AgentApplication, error) {
	if f.applyForAgent == nil {
		return nil, errNotStubbed
	}
	return f.applyForAgent(caller, in)
}

func (f *fakeLifecycle) DecideAgentApplication(_ context.Context, caller domain.Identity, appID string, decision domain.AgentApplicationStatus, feedback string) (*domain.AgentApplication, error) {
	if f.decideAgentApplication == nil {
		return nil, errNotStubbed
	}
	return f.decideAgentApplication(caller, appID, decision, feedback)
}

func (f *fakeLifecycle) ListAgentApplications(_ context.Context, caller domain.Identity, status domain.AgentApplicationStatus) ([]domain.AgentApplication, error) {
	if f.listAgentApplications == nil {
		return nil, errNotStubbed
	}
	return f.listAgentApplications(caller, status)
}

type fakeVerifier struct {
	claims *identity.Claims
	err    error
}

func (f *fakeVerifier) VerifyIDToken(context.Context, string) (*identity.Claims, error) {
	return f.claims, f.err
}

type fakeUsers struct {
	upsert     func(*domain.User) (*domain.User, error)
	getByID    func(string) (*domain.User, error)
	list       func() ([]domain.User, error)
	listByRole func(domain.UserRole) ([]domain.User, error)
	updateRole func(string, domain.UserRole) (*domain.User, error)
}

func (f *fakeUsers) UpsertBySubject(_ context.Context, u *domain.User) (*domain.User, error) {
	if f.upsert == nil {
		return nil, errNotStubbed
	}
	return f.upsert(u)
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if f.getByID == nil {
		return nil, errNotStubbed
	}
	return f.getByID(id)
}

func (f *fakeUsers) List(context.Context) ([]domain.User, error) {
	if f.list == nil {
		return nil, errNotStubbed
	}
	return f.list()
}

func (f *fakeUsers) ListByRole(_ context.Context, role domain.UserRole) ([]domain.User, error) {
	if f.listByRole == nil {
		return nil, errNotStubbed
	}
	return f.listByRole(role)
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, role domain.UserRole) (*domain.User, error) {
	if f.updateRole == nil {
		return nil, errNotStubbed
	}
	return f.updateRole(id, role)
}

type fakeDocs struct {
	urls []string
	err  error
}

func (f *fakeDocs) Store(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.Copy(io.Discard, r)
	url := "https://docs.example.com/" + name
	f.urls = append(f.urls, url)
	return url, nil
}

func contextWithCustomer(r *http.Request) context.Context {
	return middleware.ContextWithIdentity(r.Context(), domain.Identity{UserID: "customer-1", Role: domain.RoleCustomer})
}

func newTestApp() *App {
	return &App{
		Logger:        zerolog.Nop(),
		JWTSecret:     "handler-test-secret",
		WebhookSecret: "webhook-test-secret",
	}
}

func sampleApplication() *domain.Application {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Application{
		ID:            "app-1",
		CustomerID:    "customer-1",
		PolicyID:      "policy-1",
		Quote:         domain.Quote{Age: 30, CoverageAmount: 100000, DurationYears: 20, EstimatedPremium: 360.00},
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentDue,
		ClaimMarker:   domain.ClaimNone,
		SubmittedAt:   now,
		UpdatedAt:     now,
	}
}
