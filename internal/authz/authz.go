// Package authz maps an authenticated identity and role to the transitions it
// may invoke on a given application. It is a pure check with no storage;
// every call site turns a denial into an explicit ForbiddenError rather than
// a silent no-op.
package authz

import "github.com/ronnie012/assured-life-server/internal/domain"

// CanPerform reports whether the identity may invoke the transition on the
// application. app may be nil for submit, which creates the record.
func CanPerform(id domain.Identity, t domain.Transition, app *domain.Application) bool {
	switch t {
	case domain.TransitionSubmit:
		return id.Role == domain.RoleCustomer
	case domain.TransitionAssignAgent:
		return id.Role == domain.RoleAdmin
	case domain.TransitionDecide:
		if id.Role == domain.RoleAdmin {
			return true
		}
		return id.Role == domain.RoleAgent && app != nil && app.AssignedAgentID == id.UserID
	case domain.TransitionFileClaim:
		return id.Role == domain.RoleCustomer && app != nil && app.CustomerID == id.UserID
	case domain.TransitionDecideClaim:
		return id.Role == domain.RoleAgent || id.Role == domain.RoleAdmin
	case domain.TransitionConfirmPayment:
		// Payment confirmation arrives from the gateway webhook, which the
		// transport layer authenticates with a shared secret.
		return false
	}
	return false
}

// CanView reports whether the identity may read the application: its owner,
// its assigned agent, or any admin.
func CanView(id domain.Identity, app *domain.Application) bool {
	if app == nil {
		return false
	}
	switch id.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAgent:
		return app.AssignedAgentID == id.UserID
	case domain.RoleCustomer:
		return app.CustomerID == id.UserID
	}
	return false
}
