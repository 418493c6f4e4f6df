package model

import "time"

// Blood request statuses.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestCompleted = "completed"
)

// Request unit bounds per single request.
const (
	MinRequestUnits = 1
	MaxRequestUnits = 10
)

// BloodRequest represents a hospital's request for blood units.
type BloodRequest struct {
	ID              int64     `json:"id"`
	RequesterName   string    `json:"requester_name"`
	BloodGroup      string    `json:"blood_group"`
	Units           int       `json:"units"`
	HospitalName    string    `json:"hospital_name"`
	HospitalAddress string    `json:"hospital_address"`
	ContactNumber   string    `json:"contact_number"`
	Email           string    `json:"email"`
	Status          string    `json:"status"`
	BankID          *int64    `json:"bank_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`

	// Joined field (not always populated).
	BankName string `json:"bank_name,omitempty"`
}

// ValidRequestTransition reports whether a request may move from one status
// to another. Transitions are forward-only: a matched request never reverts
// to pending, and rejected/completed are terminal.
func ValidRequestTransition(from, to string) bool {
	switch from {
	case RequestPending:
		return to == RequestApproved || to == RequestRejected
	case RequestApproved:
		return to == RequestCompleted
	default:
		return false
	}
}
