package handlers

import (
	"net/http"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

type dashboardDTO struct {
	Users                int64 `json:"users"`
	PendingApplications  int64 `json:"pendingApplications"`
	ApprovedApplications int64 `json:"approvedApplications"`
	RejectedApplications int64 `json:"rejectedApplications"`
	PendingClaims        int64 `json:"pendingClaims"`
	ApprovedClaims       int64 `json:"approvedClaims"`
	PaidPremiumCents     int64 `json:"paidPremium"`
}

// DashboardSummary returns platform counters. Admin only.
func (a *App) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	summary, err := a.Dashboard.Summary(r.Context())
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, dashboardDTO{
		Users:                summary.Users,
		PendingApplications:  summary.PendingApplications,
		ApprovedApplications: summary.ApprovedApplications,
		RejectedApplications: summary.RejectedApplications,
		PendingClaims:        summary.PendingClaims,
		ApprovedClaims:       summary.ApprovedClaims,
		PaidPremiumCents:     summary.PaidPremiumCents,
	})
}
