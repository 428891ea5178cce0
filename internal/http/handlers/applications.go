package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/lifecycle"
)

type applicationDTO struct {
	ID               string                  `json:"id"`
	CustomerID       string                  `json:"customerId"`
	PolicyID         string                  `json:"policyId"`
	PersonalData     domain.PersonalData     `json:"personalData"`
	NomineeData      domain.NomineeData      `json:"nomineeData"`
	HealthDisclosure domain.HealthDisclosure `json:"healthDisclosure"`
	Quote            domain.Quote            `json:"quote"`
	Status           string                  `json:"status"`
	PaymentStatus    string                  `json:"paymentStatus"`
	ClaimStatus      string                  `json:"claimStatus"`
	AssignedAgentID  string                  `json:"assignedAgentId,omitempty"`
	Feedback         string                  `json:"feedback,omitempty"`
	SubmittedAt      time.Time               `json:"submittedAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

func toApplicationDTO(app *domain.Application) applicationDTO {
	return applicationDTO{
		ID:               app.ID,
		CustomerID:       app.CustomerID,
		PolicyID:         app.PolicyID,
		PersonalData:     app.PersonalData,
		NomineeData:      app.NomineeData,
		HealthDisclosure: app.HealthDisclosure,
		Quote:            app.Quote,
		Status:           string(app.Status),
		PaymentStatus:    string(app.PaymentStatus),
		ClaimStatus:      string(app.ClaimMarker),
		AssignedAgentID:  app.AssignedAgentID,
		Feedback:         app.Feedback,
		SubmittedAt:      app.SubmittedAt,
		UpdatedAt:        app.UpdatedAt,
	}
}

func toApplicationDTOs(apps []domain.Application) []applicationDTO {
	out := make([]applicationDTO, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationDTO(&apps[i]))
	}
	return out
}

type submitApplicationRequest struct {
	PolicyID         string                  `json:"policyId"`
	Quote            domain.Quote            `json:"quote"`
	PersonalData     domain.PersonalData     `json:"personalData"`
	NomineeData      domain.NomineeData      `json:"nomineeData"`
	HealthDisclosure domain.HealthDisclosure `json:"healthDisclosure"`
}

// SubmitApplication files a new application for the authenticated customer.
func (a *App) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	var req submitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	app, err := a.Lifecycle.Submit(r.Context(), id, lifecycle.SubmitInput{
		PolicyID:         req.PolicyID,
		Quote:            req.Quote,
		PersonalData:     req.PersonalData,
		NomineeData:      req.NomineeData,
		HealthDisclosure: req.HealthDisclosure,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toApplicationDTO(app))
}

// ListApplications returns what the caller may see: customers their own
// applications, agents their assignments, admins everything.
func (a *App) ListApplications(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	apps, err := a.Lifecycle.ListApplications(r.Context(), id)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toApplicationDTOs(apps))
}

// GetApplication returns one application, subject to visibility rules.
func (a *App) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	app, err := a.Lifecycle.GetApplication(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toApplicationDTO(app))
}

type assignAgentRequest struct {
	AgentID string `json:"agentId"`
}

// AssignAgent sets the underwriting agent for a pending application.
func (a *App) AssignAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	var req assignAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.AgentID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "agentId required")
		return
	}
	app, err := a.Lifecycle.AssignAgent(r.Context(), id, chi.URLParam(r, "id"), req.AgentID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toApplicationDTO(app))
}

type decideApplicationRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// DecideApplication records the underwriting decision.
func (a *App) DecideApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	var req decideApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	app, err := a.Lifecycle.Decide(r.Context(), id, chi.URLParam(r, "id"), domain.ApplicationStatus(req.Status), req.Feedback)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toApplicationDTO(app))
}
