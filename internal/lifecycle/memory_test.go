package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

// memStore backs the repository fakes used by the engine tests. The
// conditioned writes mirror the production semantics: a write whose expected
// state no longer matches returns ConcurrentModificationError.
type memStore struct {
	mu       sync.Mutex
	apps      map[string]*domain.Application
	claims    map[string]*domain.Claim
	users     map[string]*domain.User
	policies  map[string]*domain.Policy
	agentApps map[string]*domain.AgentApplication
	txns      []domain.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		apps:      map[string]*domain.Application{},
		claims:    map[string]*domain.Claim{},
		users:     map[string]*domain.User{},
		policies:  map[string]*domain.Policy{},
		agentApps: map[string]*domain.AgentApplication{},
	}
}

type memApps struct {
	s *memStore
	// beforeWrite runs between the engine's read and its conditioned write,
	// letting tests interleave a competing mutation.
	beforeWrite func(*domain.Application)
}

func (m *memApps) Create(_ context.Context, app *domain.Application) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *app
	m.s.apps[app.ID] = &cp
	return nil
}

func (m *memApps) GetByID(_ context.Context, id string) (*domain.Application, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	app, ok := m.s.apps[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "application", ID: id}
	}
	cp := *app
	return &cp, nil
}

func (m *memApps) ListByCustomer(_ context.Context, customerID string) ([]domain.Application, error) {
	return m.list(func(a *domain.Application) bool { return a.CustomerID == customerID })
}

func (m *memApps) ListByAgent(_ context.Context, agentID string) ([]domain.Application, error) {
	return m.list(func(a *domain.Application) bool { return a.AssignedAgentID == agentID })
}

func (m *memApps) List(_ context.Context) ([]domain.Application, error) {
	return m.list(func(*domain.Application) bool { return true })
}

func (m *memApps) list(keep func(*domain.Application) bool) ([]domain.Application, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.Application
	for _, a := range m.s.apps {
		if keep(a) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memApps) AssignAgent(_ context.Context, id, agentID string, expect domain.AppState) error {
	return m.conditioned(id, expect, func(a *domain.Application) {
		a.AssignedAgentID = agentID
	})
}

func (m *memApps) SetDecision(_ context.Context, id string, status domain.ApplicationStatus, feedback string, expect domain.AppState) error {
	return m.conditioned(id, expect, func(a *domain.Application) {
		a.Status = status
		a.Feedback = feedback
	})
}

func (m *memApps) ConfirmPayment(_ context.Context, id string, txn *domain.Transaction, expect domain.AppState) error {
	err := m.conditioned(id, expect, func(a *domain.Application) {
		a.PaymentStatus = domain.PaymentPaid
	})
	if err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.txns = append(m.s.txns, *txn)
	return nil
}

func (m *memApps) conditioned(id string, expect domain.AppState, mutate func(*domain.Application)) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	app, ok := m.s.apps[id]
	if !ok {
		return &domain.NotFoundError{Entity: "application", ID: id}
	}
	if m.beforeWrite != nil {
		m.beforeWrite(app)
	}
	if app.State() != expect {
		return &domain.ConcurrentModificationError{Entity: "application", ID: id}
	}
	mutate(app)
	return nil
}

type memClaims struct{ s *memStore }

func (m *memClaims) Create(_ context.Context, claim *domain.Claim, expect domain.AppState) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	app, ok := m.s.apps[claim.ApplicationID]
	if !ok {
		return &domain.NotFoundError{Entity: "application", ID: claim.ApplicationID}
	}
	if app.State() != expect {
		return &domain.ConcurrentModificationError{Entity: "application", ID: claim.ApplicationID}
	}
	app.ClaimMarker = domain.ClaimPending
	cp := *claim
	m.s.claims[claim.ID] = &cp
	return nil
}

func (m *memClaims) GetByID(_ context.Context, id string) (*domain.Claim, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	claim, ok := m.s.claims[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "claim", ID: id}
	}
	cp := *claim
	return &cp, nil
}

func (m *memClaims) ListByCustomer(_ context.Context, customerID string) ([]domain.Claim, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.Claim
	for _, c := range m.s.claims {
		if c.CustomerID == customerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memClaims) List(_ context.Context) ([]domain.Claim, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.Claim
	for _, c := range m.s.claims {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memClaims) Approve(_ context.Context, id string, decidedAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	claim, ok := m.s.claims[id]
	if !ok {
		return &domain.NotFoundError{Entity: "claim", ID: id}
	}
	if claim.Status != domain.ClaimStatusPending {
		return &domain.ConcurrentModificationError{Entity: "claim", ID: id}
	}
	claim.Status = domain.ClaimStatusApproved
	claim.DecidedAt = &decidedAt
	if app, ok := m.s.apps[claim.ApplicationID]; ok {
		app.ClaimMarker = domain.ClaimApproved
	}
	return nil
}

type memUsers struct{ s *memStore }

func (m *memUsers) UpsertBySubject(_ context.Context, user *domain.User) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *user
	m.s.users[user.ID] = &cp
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "user", ID: id}
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(_ context.Context) ([]domain.User, error) { return nil, nil }

func (m *memUsers) ListByRole(_ context.Context, _ domain.UserRole) ([]domain.User, error) {
	return nil, nil
}

func (m *memUsers) UpdateRole(_ context.Context, id string, role domain.UserRole) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "user", ID: id}
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

type memPolicies struct{ s *memStore }

func (m *memPolicies) Create(_ context.Context, policy *domain.Policy) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *policy
	m.s.policies[policy.ID] = &cp
	return nil
}

func (m *memPolicies) Update(_ context.Context, _ *domain.Policy) error { return nil }

func (m *memPolicies) Delete(_ context.Context, _ string) error { return nil }

func (m *memPolicies) GetByID(_ context.Context, id string) (*domain.Policy, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.policies[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "policy", ID: id}
	}
	cp := *p
	return &cp, nil
}

func (m *memPolicies) List(_ context.Context) ([]domain.Policy, error) { return nil, nil }

func (m *memPolicies) ListPopular(_ context.Context, _ int) ([]domain.PolicyPopularity, error) {
	return nil, nil
}

type memAgentApps struct{ s *memStore }

func (m *memAgentApps) Create(_ context.Context, app *domain.AgentApplication) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.agentApps {
		if existing.UserID == app.UserID && existing.Status == domain.AgentApplicationPending {
			return &domain.ConcurrentModificationError{Entity: "agentApplication", ID: existing.ID}
		}
	}
	cp := *app
	m.s.agentApps[app.ID] = &cp
	return nil
}

func (m *memAgentApps) GetByID(_ context.Context, id string) (*domain.AgentApplication, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	app, ok := m.s.agentApps[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "agentApplication", ID: id}
	}
	cp := *app
	return &cp, nil
}

func (m *memAgentApps) ListByStatus(_ context.Context, status domain.AgentApplicationStatus) ([]domain.AgentApplication, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.AgentApplication
	for _, app := range m.s.agentApps {
		if app.Status == status {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (m *memAgentApps) ListByUser(_ context.Context, userID string) ([]domain.AgentApplication, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.AgentApplication
	for _, app := range m.s.agentApps {
		if app.UserID == userID {
			out = append(out, *app)
		}
	}
	return out, nil
}

// Decide mirrors the production transaction: the status flip and the role
// promotion happen under one lock.
func (m *memAgentApps) Decide(_ context.Context, id string, status domain.AgentApplicationStatus, feedback string, decidedAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	app, ok := m.s.agentApps[id]
	if !ok {
		return &domain.NotFoundError{Entity: "agentApplication", ID: id}
	}
	if app.Status != domain.AgentApplicationPending {
		return &domain.ConcurrentModificationError{Entity: "agentApplication", ID: id}
	}
	app.Status = status
	app.Feedback = feedback
	app.DecidedAt = &decidedAt
	if status == domain.AgentApplicationApproved {
		user, ok := m.s.users[app.UserID]
		if !ok {
			return &domain.NotFoundError{Entity: "user", ID: app.UserID}
		}
		user.Role = domain.RoleAgent
	}
	return nil
}
