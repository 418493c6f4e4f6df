package model

import "fmt"

// InvalidBloodGroupError is returned when a blood group is not one of the
// 8 recognized ABO/Rh groups. Rejected before any store mutation.
type InvalidBloodGroupError struct {
	Group string
}

func (e *InvalidBloodGroupError) Error() string {
	return fmt.Sprintf("invalid blood group %q", e.Group)
}

// InvalidUnitsError is returned when a unit count is out of bounds: outside
// [1,10] for a request, or not positive for a donation or ledger mutation.
type InvalidUnitsError struct {
	Units int
	Min   int
	Max   int // 0 means no upper bound
}

func (e *InvalidUnitsError) Error() string {
	if e.Max > 0 {
		return fmt.Sprintf("units must be between %d and %d, got %d", e.Min, e.Max, e.Units)
	}
	return fmt.Sprintf("units must be at least %d, got %d", e.Min, e.Units)
}

// NotEligibleError is returned when a donor's last donation was fewer than
// 90 days ago. DaysRemaining is how long until the donor may donate again.
type NotEligibleError struct {
	DaysRemaining int
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("donor not eligible for %d more day(s)", e.DaysRemaining)
}

// InsufficientUnitsError is returned when a ledger decrement exceeds the
// available stock for a (bank, blood group) pair. The ledger is unchanged.
type InsufficientUnitsError struct {
	Requested int
	Available int
}

func (e *InsufficientUnitsError) Error() string {
	return fmt.Sprintf("insufficient units: requested %d, available %d", e.Requested, e.Available)
}

// RequestUnfulfillableError is returned when a request could not be matched
// even after one retry because concurrent callers consumed the stock. The
// request is persisted as pending, not dropped.
type RequestUnfulfillableError struct {
	Group string
	Units int
}

func (e *RequestUnfulfillableError) Error() string {
	return fmt.Sprintf("no bank could fulfill %d unit(s) of %s", e.Units, e.Group)
}

// RequestStateError is returned for an invalid blood request state
// transition, such as approving a request that already has a bank assigned.
type RequestStateError struct {
	Status string
	Reason string
}

func (e *RequestStateError) Error() string {
	return fmt.Sprintf("request in state %q: %s", e.Status, e.Reason)
}
