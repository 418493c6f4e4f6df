package model

import "time"

// BloodBank represents a facility that stocks blood units.
type BloodBank struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	ContactNumber string     `json:"contact_number"`
	Email         string     `json:"email"`
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`

	// TotalUnits is the sum over the bank's inventory entries. Derived,
	// only populated by listing queries.
	TotalUnits int `json:"total_units"`
}

// Inventory represents the stocked units of one blood group at one bank.
type Inventory struct {
	BankID     int64     `json:"bank_id"`
	BloodGroup string    `json:"blood_group"`
	Units      int       `json:"units"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Joined field (not always populated).
	BankName string `json:"bank_name,omitempty"`
}
