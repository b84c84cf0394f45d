package contribution

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGroupNotFound is returned when the group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrContributionNotFound is returned when the contribution does not exist.
	ErrContributionNotFound = errors.New("contribution not found")
	// ErrNotActiveMember is returned when the user has no active membership
	// in the group.
	ErrNotActiveMember = errors.New("user is not an active member of this group")
	// ErrAmountMismatch is returned when the amount differs from the group's
	// fixed contribution amount. Partial contributions do not exist.
	ErrAmountMismatch = errors.New("amount must equal the group contribution amount")
	// ErrAlreadyProcessed is returned on attempts to transition a
	// contribution that is no longer in a mutable state.
	ErrAlreadyProcessed = errors.New("contribution was already processed")
	// ErrNoEligibleMembers is returned when a bulk creation excludes every
	// active member.
	ErrNoEligibleMembers = errors.New("no eligible members to create contributions for")
)
