package distribution

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGroupNotFound is returned when the group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrDistributionNotFound is returned when the distribution does not exist.
	ErrDistributionNotFound = errors.New("distribution not found")
	// ErrNotActiveMember is returned when the recipient has no active
	// membership in the group.
	ErrNotActiveMember = errors.New("recipient is not an active member of this group")
	// ErrExceedsMaximum is returned when the amount exceeds the theoretical
	// one-cycle pool: contribution amount times active member count.
	ErrExceedsMaximum = errors.New("amount exceeds the maximum possible pool for one cycle")
	// ErrAlreadyProcessed is returned on attempts to re-run a terminal
	// transition on a non-pending distribution.
	ErrAlreadyProcessed = errors.New("distribution was already processed")
	// ErrNoActiveMembers is returned when the group has no active members.
	ErrNoActiveMembers = errors.New("no active members found in group")
)
