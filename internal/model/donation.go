package model

import "time"

// Donation is an immutable record of a single donation event. Rows are
// append-only: once written they are never updated or deleted.
type Donation struct {
	ID         int64     `json:"id"`
	DonorID    int64     `json:"donor_id"`
	BankID     int64     `json:"bank_id"`
	BloodGroup string    `json:"blood_group"`
	Units      int       `json:"units"`
	DonatedAt  time.Time `json:"donated_at"`

	// Joined fields (not always populated).
	DonorName string `json:"donor_name,omitempty"`
	BankName  string `json:"bank_name,omitempty"`
}
