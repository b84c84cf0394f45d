package models

import "time"

// GroupFrequency represents the contribution cadence of a group.
type GroupFrequency string

const (
	// FrequencyWeekly indicates one contribution cycle per week.
	FrequencyWeekly GroupFrequency = "weekly"
	// FrequencyMonthly indicates one contribution cycle per month.
	FrequencyMonthly GroupFrequency = "monthly"
)

// GroupStatus represents the lifecycle state of a group.
type GroupStatus string

const (
	// GroupStatusActive indicates the group is running contribution cycles.
	GroupStatusActive GroupStatus = "active"
	// GroupStatusCompleted indicates the group finished its planned duration.
	GroupStatusCompleted GroupStatus = "completed"
	// GroupStatusCancelled indicates the group was cancelled before completion.
	GroupStatusCancelled GroupStatus = "cancelled"
)

const (
	// MinGroupMembers is the smallest allowed member cap for a group.
	MinGroupMembers = 5
	// MaxGroupMembers is the largest allowed member cap for a group.
	MaxGroupMembers = 10
)

// Group represents an Ajo rotating savings group.
// Every member contributes ContributionAmount each cycle, and one member per
// cycle receives the pooled payout in payment position order.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey"`
	// Name is the display name of the group.
	Name string `gorm:"size:100;not null"`
	// Description provides a human-readable explanation of the group's purpose.
	Description string `gorm:"size:255"`
	// ContributionAmount is the fixed amount every member contributes per cycle.
	// Immutable once any member has been allocated a payment position.
	ContributionAmount float64 `gorm:"type:decimal(12,2);not null"`
	// Frequency is the contribution cadence (weekly or monthly).
	Frequency GroupFrequency `gorm:"type:varchar(20);not null"`
	// StartDate is when the first contribution cycle begins.
	StartDate *time.Time
	// DurationMonths is the planned lifetime of the group in months.
	DurationMonths int
	// MaxMembers caps the number of active members (MinGroupMembers..MaxGroupMembers).
	// Immutable once any member has been allocated a payment position.
	MaxMembers int `gorm:"not null"`
	// Status is the lifecycle state of the group.
	Status GroupStatus `gorm:"type:varchar(20);not null;default:'active'"`
	// InvitationCode is the shareable code used to join the group.
	InvitationCode string `gorm:"size:16;uniqueIndex"`
	// CreatedBy is the ID of the user who created the group.
	CreatedBy uint64
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Group model.
func (Group) TableName() string {
	return "ajo_groups"
}
