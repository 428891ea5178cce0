package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/middleware"
)

const tokenTTL = 24 * time.Hour

type verifyRequest struct {
	IDToken string `json:"idToken"`
}

type verifyResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role), CreatedAt: u.CreatedAt}
}

// AuthVerify exchanges a provider ID token for a session token. First sign-in
// creates the account as a customer; later sign-ins refresh email and name but
// never the role.
func (a *App) AuthVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.IDToken == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "idToken required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	claims, err := a.Verifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("id token verify failed")
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid id token")
		return
	}
	if !claims.EmailVerified {
		a.error(w, http.StatusUnauthorized, "unauthorized", "email not verified")
		return
	}

	user, err := a.Users.UpsertBySubject(r.Context(), &domain.User{
		ID:      uuid.NewString(),
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Role:    domain.RoleCustomer,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}

	token, err := middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:      user.ID,
		Email:    user.Email,
		Role:     string(user.Role),
		Exp:      time.Now().Add(tokenTTL).Unix(),
		Issuer:   "assured-life",
		Audience: "assured-life-clients",
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign session token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}

	a.json(w, http.StatusOK, verifyResponse{Token: token, User: toUserDTO(user)})
}

// Me returns the authenticated user's profile.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	user, err := a.Users.GetByID(r.Context(), id.UserID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(user))
}
