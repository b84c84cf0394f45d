package group

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGroupNotFound is returned when a group is not found.
	ErrGroupNotFound = errors.New("group not found")
	// ErrInvalidAmount is returned when the contribution amount is not positive.
	ErrInvalidAmount = errors.New("contribution amount must be positive")
	// ErrInvalidFrequency is returned when the frequency is neither weekly nor monthly.
	ErrInvalidFrequency = errors.New("frequency must be weekly or monthly")
	// ErrInvalidMaxMembers is returned when the member cap is out of bounds.
	ErrInvalidMaxMembers = errors.New("max members must be between 5 and 10")
	// ErrSettingsLocked is returned when amount or member cap changes are
	// attempted after payment positions have been allocated.
	ErrSettingsLocked = errors.New("group settings are locked once payment positions are allocated")
)
