package position

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGroupNotFound is returned when the group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrRandNil is returned when no random source was injected for a random
	// assignment.
	ErrRandNil = errors.New("random source is nil")
	// ErrNoActiveMembers is returned when the group has no active members to
	// assign positions to.
	ErrNoActiveMembers = errors.New("no active members found in group")
	// ErrInvalidAssignment is returned when a manual assignment violates
	// uniqueness, positivity or membership constraints. No partial writes are
	// performed.
	ErrInvalidAssignment = errors.New("invalid position assignment")
	// ErrNotActiveMember is returned when a referenced user has no active
	// membership in the group.
	ErrNotActiveMember = errors.New("user is not an active member of this group")
	// ErrNoPosition is returned when a swap references a member without an
	// assigned payment position.
	ErrNoPosition = errors.New("member has no assigned payment position")
)
