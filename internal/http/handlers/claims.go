package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/lifecycle"
)

const maxClaimUpload = 32 << 20

type claimDTO struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"applicationId"`
	CustomerID    string     `json:"customerId"`
	Reason        string     `json:"reason"`
	Documents     []string   `json:"documents"`
	Status        string     `json:"status"`
	SubmittedAt   time.Time  `json:"submittedAt"`
	DecidedAt     *time.Time `json:"decidedAt,omitempty"`
}

func toClaimDTO(c *domain.Claim) claimDTO {
	return claimDTO{
		ID:            c.ID,
		ApplicationID: c.ApplicationID,
		CustomerID:    c.CustomerID,
		Reason:        c.Reason,
		Documents:     c.Documents,
		Status:        string(c.Status),
		SubmittedAt:   c.SubmittedAt,
		DecidedAt:     c.DecidedAt,
	}
}

// FileClaim accepts a multipart claim: reason plus zero or more document
// files. Documents are uploaded to the store first; only their URLs reach the
// core. An upload failure aborts the filing before any state changes.
func (a *App) FileClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxClaimUpload); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	applicationID := r.FormValue("applicationId")
	reason := r.FormValue("reason")

	var documents []string
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["documents"] {
			file, err := header.Open()
			if err != nil {
				a.error(w, http.StatusBadRequest, "bad_request", "unreadable document")
				return
			}
			url, err := a.Documents.Store(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
			file.Close()
			if err != nil {
				a.domainError(w, r, err)
				return
			}
			documents = append(documents, url)
		}
	}

	claim, err := a.Lifecycle.FileClaim(r.Context(), id, lifecycle.ClaimInput{
		ApplicationID: applicationID,
		Reason:        reason,
		Documents:     documents,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toClaimDTO(claim))
}

// ListClaims returns the claims visible to the caller.
func (a *App) ListClaims(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	claims, err := a.Lifecycle.ListClaims(r.Context(), id)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]claimDTO, 0, len(claims))
	for i := range claims {
		out = append(out, toClaimDTO(&claims[i]))
	}
	a.json(w, http.StatusOK, out)
}

// DecideClaim approves a pending claim.
func (a *App) DecideClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(w, r)
	if !ok {
		return
	}
	claim, err := a.Lifecycle.DecideClaim(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toClaimDTO(claim))
}
