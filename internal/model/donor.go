package model

import "time"

// DonationInterval is the minimum time a donor must wait between donations.
const DonationInterval = 90 * 24 * time.Hour

// Donor age bounds.
const (
	MinDonorAge = 18
	MaxDonorAge = 65
)

// Donor represents a registered blood donor.
type Donor struct {
	ID           int64      `json:"id"`
	UserID       *int64     `json:"user_id,omitempty"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phone_number"`
	Age          int        `json:"age"`
	BloodType    string     `json:"blood_type"`
	LastDonation *time.Time `json:"last_donation,omitempty"`
	PhotoMime    string     `json:"photo_mime,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// CanDonate reports whether the donor may donate at the given time: either
// they have never donated, or their last donation is at least 90 days past.
func (d *Donor) CanDonate(now time.Time) bool {
	if d.LastDonation == nil {
		return true
	}
	return !now.Before(d.LastDonation.Add(DonationInterval))
}

// DaysUntilEligible returns how many days remain until the donor may donate
// again, rounded up. Returns 0 if the donor is already eligible.
func (d *Donor) DaysUntilEligible(now time.Time) int {
	if d.CanDonate(now) {
		return 0
	}
	remaining := d.LastDonation.Add(DonationInterval).Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// ValidDonorAge reports whether age is within the accepted donor range.
func ValidDonorAge(age int) bool {
	return age >= MinDonorAge && age <= MaxDonorAge
}
