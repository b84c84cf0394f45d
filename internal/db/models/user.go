package models

import "time"

// User represents a platform user who can join Ajo groups.
// Authentication and session handling live in an external collaborator;
// this model only carries the identity fields the rotation core needs.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is active.
	Active bool
	// FullName is the user's display name as shown in schedules and reports.
	FullName string `gorm:"size:100;not null"`
	// Email is the user's email address.
	Email string `gorm:"size:255;not null"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}
