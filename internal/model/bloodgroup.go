package model

// BloodGroups is the closed set of recognized ABO/Rh blood groups.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}

// ValidBloodGroup reports whether group is one of the 8 recognized groups.
func ValidBloodGroup(group string) bool {
	for _, g := range BloodGroups {
		if g == group {
			return true
		}
	}
	return false
}
