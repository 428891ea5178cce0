package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAgent    UserRole = "agent"
	RoleAdmin    UserRole = "admin"
)

// Valid reports whether the role is one of the supported values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User represents an account created on first identity-provider sign-in.
// Users are never deleted; only their role changes, and only by admin action.
type User struct {
	ID        string
	Subject   string // identity-provider subject
	Email     string
	Name      string
	Role      UserRole
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is the authenticated caller passed into every core operation.
// It replaces any ambient auth context: operations never read global state.
type Identity struct {
	UserID string
	Email  string
	Role   UserRole
}
