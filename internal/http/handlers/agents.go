package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/lifecycle"
)

type agentApplicationDTO struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	UserName    string     `json:"userName"`
	UserEmail   string     `json:"userEmail"`
	Experience  string     `json:"experience"`
	Specialties []string   `json:"specialties"`
	Motivation  string     `json:"motivation"`
	Status      string     `json:"status"`
	Feedback    string     `json:"feedback,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
}

func toAgentApplicationDTO(a *domain.AgentApplication) agentApplicationDTO {
	return agentApplicationDTO{
		ID:          a.ID,
		UserID:      a.UserID,
		UserName:    a.UserName,
		UserEmail:   a.UserEmail,
		Experience:  a.Experience,
		Specialties: a.Specialties,
		Motivation:  a.Motivation,
		Status:      string(a.Status),
		Feedback:    a.Feedback,
		SubmittedAt: a.SubmittedAt,
		DecidedAt:   a.DecidedAt,
	}
}

type agentApplicationRequest struct {
	Experience  string   `json:"experience"`
	Specialties []string `json:"specialties"`
	Motivation  string   `json:"motivation"`
}

// ApplyForAgent files an agent-role application for the authenticated
// customer.
func (a *App) ApplyForAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	var req agentApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	app, err := a.Lifecycle.ApplyForAgent(r.Context(), id, lifecycle.AgentApplicationInput{
		Experience:  req.Experience,
		Specialties: req.Specialties,
		Motivation:  req.Motivation,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toAgentApplicationDTO(app))
}

// ListAgentApplications returns agent applications: customers their own,
// admins those in the requested status (pending by default).
func (a *App) ListAgentApplications(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	apps, err := a.Lifecycle.ListAgentApplications(r.Context(), id, domain.AgentApplicationStatus(r.URL.Query().Get("status")))
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]agentApplicationDTO, 0, len(apps))
	for i := range apps {
		out = append(out, toAgentApplicationDTO(&apps[i]))
	}
	a.json(w, http.StatusOK, out)
}

// ApproveAgentApplication approves a pending agent application, promoting the
// applicant to the agent role.
func (a *App) ApproveAgentApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	app, err := a.Lifecycle.DecideAgentApplication(r.Context(), id, chi.URLParam(r, "id"), domain.AgentApplicationApproved, "")
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toAgentApplicationDTO(app))
}

type rejectAgentApplicationRequest struct {
	Feedback string `json:"feedback"`
}

// RejectAgentApplication rejects a pending agent application with feedback.
func (a *App) RejectAgentApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	var req rejectAgentApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	app, err := a.Lifecycle.DecideAgentApplication(r.Context(), id, chi.URLParam(r, "id"), domain.AgentApplicationRejected, req.Feedback)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toAgentApplicationDTO(app))
}
