package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/infra/identity"
	"github.com/ronnie012/assured-life-server/internal/lifecycle"
	"github.com/ronnie012/assured-life-server/internal/middleware"
)

// IdentityVerifier validates identity-provider ID tokens.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*identity.Claims, error)
}

// Lifecycle is the state-machine surface the handlers drive.
type Lifecycle interface {
	Submit(ctx context.Context, caller domain.Identity, in lifecycle.SubmitInput) (*domain.Application, error)
	AssignAgent(ctx context.Context, caller domain.Identity, appID, agentID string) (*domain.Application, error)
	Decide(ctx context.Context, caller domain.Identity, appID string, decision domain.ApplicationStatus, feedback string) (*domain.Application, error)
	ConfirmPayment(ctx context.Context, in lifecycle.PaymentConfirmation) (*domain.Transaction, error)
	FileClaim(ctx context.Context, caller domain.Identity, in lifecycle.ClaimInput) (*domain.Claim, error)
	DecideClaim(ctx context.Context, caller domain.Identity, claimID string) (*domain.Claim, error)
	GetApplication(ctx context.Context, caller domain.Identity, appID string) (*domain.Application, error)
	ListApplications(ctx context.Context, caller domain.Identity) ([]domain.Application, error)
	ListClaims(ctx context.Context, caller domain.Identity) ([]domain.Claim, error)
	ApplyForAgent(ctx context.Context, caller domain.Identity, in lifecycle.AgentApplicationInput) (*domain.AgentApplication, error)
	DecideAgentApplication(ctx context.Context, caller domain.Identity, appID string, decision domain.AgentApplicationStatus, feedback string) (*domain.AgentApplication, error)
	ListAgentApplications(ctx context.Context, caller domain.Identity, status domain.AgentApplicationStatus) ([]domain.AgentApplication, error)
}

// App holds handler dependencies.
type App struct {
	Logger        zerolog.Logger
	JWTSecret     string
	WebhookSecret string

	Verifier     IdentityVerifier
	Lifecycle    Lifecycle
	Users        domain.UserRepository
	Policies     domain.PolicyRepository
	Transactions domain.TransactionRepository
	Dashboard    domain.DashboardRepository
	Documents    domain.DocumentStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{"error": map[string]string{"code": errCode, "message": message}})
}

// domainError maps core error types onto HTTP responses. Anything unmapped is
// an internal error and gets logged.
func (a *App) domainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		forbidden  *domain.ForbiddenError
		notFound   *domain.NotFoundError
		transition *domain.InvalidTransitionError
		concurrent *domain.ConcurrentModificationError
		dependency *domain.DependencyUnavailableError
	)
	switch {
	case errors.As(err, &validation):
		a.error(w, http.StatusBadRequest, "bad_request", validation.Error())
	case errors.As(err, &forbidden):
		a.error(w, http.StatusForbidden, "forbidden", forbidden.Error())
	case errors.As(err, &notFound):
		a.error(w, http.StatusNotFound, "not_found", notFound.Error())
	case errors.As(err, &transition):
		a.error(w, http.StatusConflict, "invalid_transition", transition.Error())
	case errors.As(err, &concurrent):
		a.error(w, http.StatusConflict, "conflict", concurrent.Error())
	case errors.As(err, &dependency):
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("dependency unavailable")
		a.error(w, http.StatusServiceUnavailable, "unavailable", "a dependency is unavailable")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentIdentity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return domain.Identity{}, false
	}
	return id, true
}

func (a *App) requireRole(w http.ResponseWriter, r *http.Request, roles ...domain.UserRole) (domain.Identity, bool) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return domain.Identity{}, false
	}
	for _, role := range roles {
		if id.Role == role {
			return id, true
		}
	}
	a.error(w, http.StatusForbidden, "forbidden", "insufficient role")
	return domain.Identity{}, false
}
