package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

type policyDTO struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	MinAge           int       `json:"minAge"`
	MaxAge           int       `json:"maxAge"`
	CoverageMin      float64   `json:"coverageMin"`
	CoverageMax      float64   `json:"coverageMax"`
	DurationOptions  []int     `json:"durationOptions"`
	BasePremiumRate  float64   `json:"basePremiumRate"`
	ApplicationCount int       `json:"applicationCount,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toPolicyDTO(p *domain.Policy) policyDTO {
	return policyDTO{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Category:        p.Category,
		MinAge:          p.MinAge,
		MaxAge:          p.MaxAge,
		CoverageMin:     p.CoverageMin,
		CoverageMax:     p.CoverageMax,
		DurationOptions: p.DurationOptions,
		BasePremiumRate: p.BasePremiumRate,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type policyRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	MinAge          int     `json:"minAge"`
	MaxAge          int     `json:"maxAge"`
	CoverageMin     float64 `json:"coverageMin"`
	CoverageMax     float64 `json:"coverageMax"`
	DurationOptions []int   `json:"durationOptions"`
	BasePremiumRate float64 `json:"basePremiumRate"`
}

func (req *policyRequest) validate() *domain.ValidationError {
	switch {
	case req.Title == "":
		return &domain.ValidationError{Field: "title", Message: "required"}
	case req.MinAge <= 0 || req.MaxAge < req.MinAge:
		return &domain.ValidationError{Field: "maxAge", Message: "age range invalid"}
	case req.CoverageMin <= 0 || req.CoverageMax < req.CoverageMin:
		return &domain.ValidationError{Field: "coverageMax", Message: "coverage range invalid"}
	case len(req.DurationOptions) == 0:
		return &domain.ValidationError{Field: "durationOptions", Message: "at least one duration required"}
	}
	return nil
}

// ListPolicies returns the product catalog. Public.
func (a *App) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := a.Policies.List(r.Context())
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]policyDTO, 0, len(policies))
	for i := range policies {
		out = append(out, toPolicyDTO(&policies[i]))
	}
	a.json(w, http.StatusOK, out)
}

// GetPolicy returns one policy. Public.
func (a *App) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := a.Policies.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toPolicyDTO(policy))
}

// ListPopularPolicies returns the most-applied-for policies. Public.
func (a *App) ListPopularPolicies(w http.ResponseWriter, r *http.Request) {
	limit := 6
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	popular, err := a.Policies.ListPopular(r.Context(), limit)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]policyDTO, 0, len(popular))
	for i := range popular {
		dto := toPolicyDTO(&popular[i].Policy)
		dto.ApplicationCount = popular[i].ApplicationCount
		out = append(out, dto)
	}
	a.json(w, http.StatusOK, out)
}

// CreatePolicy adds a product. Admin only.
func (a *App) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if verr := req.validate(); verr != nil {
		a.domainError(w, r, verr)
		return
	}
	policy := &domain.Policy{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		MinAge:          req.MinAge,
		MaxAge:          req.MaxAge,
		CoverageMin:     req.CoverageMin,
		CoverageMax:     req.CoverageMax,
		DurationOptions: req.DurationOptions,
		BasePremiumRate: req.BasePremiumRate,
	}
	if err := a.Policies.Create(r.Context(), policy); err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toPolicyDTO(policy))
}

// UpdatePolicy edits a product. Admin only; refused once any application
// references the policy.
func (a *App) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if verr := req.validate(); verr != nil {
		a.domainError(w, r, verr)
		return
	}
	policy := &domain.Policy{
		ID:              chi.URLParam(r, "id"),
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		MinAge:          req.MinAge,
		MaxAge:          req.MaxAge,
		CoverageMin:     req.CoverageMin,
		CoverageMax:     req.CoverageMax,
		DurationOptions: req.DurationOptions,
		BasePremiumRate: req.BasePremiumRate,
	}
	if err := a.Policies.Update(r.Context(), policy); err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toPolicyDTO(policy))
}

// DeletePolicy removes a product. Admin only; refused once any application
// references the policy.
func (a *App) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	if err := a.Policies.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.domainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
