package membership

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGroupNotFound is returned when the group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrAlreadyMember is returned when the user already has a non-removed
	// membership in the group.
	ErrAlreadyMember = errors.New("user is already a member of this group")
	// ErrGroupFull is returned when the active member count has reached the
	// group's member cap.
	ErrGroupFull = errors.New("group has reached its maximum number of members")
	// ErrPositionTaken is returned when a supplied payment position collides
	// with another member's position.
	ErrPositionTaken = errors.New("payment position is already taken")
	// ErrNotActiveMember is returned when the user has no active membership
	// in the group.
	ErrNotActiveMember = errors.New("user is not an active member of this group")
	// ErrLastAdmin is returned on attempts to remove or demote the sole
	// remaining active admin of a group.
	ErrLastAdmin = errors.New("group must retain at least one active admin")
	// ErrInvalidRole is returned for roles other than admin or member.
	ErrInvalidRole = errors.New("role must be admin or member")
	// ErrInvalidPosition is returned when a supplied payment position is not
	// a positive integer.
	ErrInvalidPosition = errors.New("payment position must be a positive integer")
)
