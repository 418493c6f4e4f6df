package model

import "time"

// User represents an authentication user (separate from donor profiles).
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleDonor = "donor"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 3,
		RoleStaff: 2,
		RoleDonor: 1,
	}
	return levels[role] >= levels[minimum]
}
