package domain

import "time"

// ApplicationStatus is the underwriting decision state.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "Pending"
	StatusApproved ApplicationStatus = "Approved"
	StatusRejected ApplicationStatus = "Rejected"
)

// PaymentStatus tracks premium payment. Meaningful only once the application
// is approved.
type PaymentStatus string

const (
	PaymentDue  PaymentStatus = "Due"
	PaymentPaid PaymentStatus = "Paid"
)

// ClaimMarker mirrors the state of the application's claim, if any.
type ClaimMarker string

const (
	ClaimNone     ClaimMarker = "None"
	ClaimPending  ClaimMarker = "Pending"
	ClaimApproved ClaimMarker = "Approved"
)

// AppState is the composite state key every conditioned write is guarded on.
type AppState struct {
	Status        ApplicationStatus
	PaymentStatus PaymentStatus
	ClaimMarker   ClaimMarker
}

// PersonalData is the applicant snapshot copied at submission time.
type PersonalData struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	NidSsn   string `json:"nidSsn"`
	Phone    string `json:"phone"`
}

// NomineeData names the beneficiary.
type NomineeData struct {
	NomineeName         string `json:"nomineeName"`
	NomineeRelationship string `json:"nomineeRelationship"`
}

// HealthDisclosure is the applicant's self-reported health snapshot.
type HealthDisclosure struct {
	MedicalConditions []string `json:"medicalConditions"`
	Allergies         []string `json:"allergies"`
	Medications       []string `json:"medications"`
}

// Application is the audit record of a customer's request to purchase a
// policy. The personal, nominee, health and quote snapshots are copied at
// submission and never track later profile edits. Rows are never deleted.
type Application struct {
	ID               string
	CustomerID       string
	PolicyID         string
	PersonalData     PersonalData
	NomineeData      NomineeData
	HealthDisclosure HealthDisclosure
	Quote            Quote
	Status           ApplicationStatus
	PaymentStatus    PaymentStatus
	ClaimMarker      ClaimMarker
	AssignedAgentID  string // empty until an admin assigns an agent
	Feedback         string // required on rejection, retained permanently
	SubmittedAt      time.Time
	UpdatedAt        time.Time
}

// State returns the composite state key of the application.
func (a *Application) State() AppState {
	return AppState{Status: a.Status, PaymentStatus: a.PaymentStatus, ClaimMarker: a.ClaimMarker}
}
