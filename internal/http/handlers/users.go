package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

// ListUsers returns every account. Admin only.
func (a *App) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	users, err := a.Users.List(r.Context())
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]userDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	a.json(w, http.StatusOK, out)
}

// ListAgents returns accounts holding the agent role. Admin only; used when
// assigning an application.
func (a *App) ListAgents(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	agents, err := a.Users.ListByRole(r.Context(), domain.RoleAgent)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]userDTO, 0, len(agents))
	for i := range agents {
		out = append(out, toUserDTO(&agents[i]))
	}
	a.json(w, http.StatusOK, out)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole promotes or demotes an account. Admin only; admins cannot
// change their own role, so the system always retains at least one admin.
func (a *App) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.requireRole(w, r, domain.RoleAdmin)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	role := domain.UserRole(req.Role)
	if !role.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown role")
		return
	}
	targetID := chi.URLParam(r, "id")
	if targetID == caller.UserID {
		a.error(w, http.StatusBadRequest, "bad_request", "cannot change own role")
		return
	}
	user, err := a.Users.UpdateRole(r.Context(), targetID, role)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(user))
}
