package models

import "time"

// MemberRole represents a member's role within a group.
type MemberRole string

const (
	// RoleAdmin indicates the member administers the group.
	RoleAdmin MemberRole = "admin"
	// RoleMember indicates a regular contributing member.
	RoleMember MemberRole = "member"
)

// MemberStatus represents the lifecycle state of a membership.
type MemberStatus string

const (
	// MemberStatusActive indicates the member participates in the rotation.
	MemberStatusActive MemberStatus = "active"
	// MemberStatusPending indicates an invitation that has not been accepted yet.
	MemberStatusPending MemberStatus = "pending"
	// MemberStatusSuspended indicates the member is temporarily excluded.
	MemberStatusSuspended MemberStatus = "suspended"
	// MemberStatusRemoved indicates the member left or was removed.
	// Removed rows are never hard-deleted so distribution history stays auditable.
	MemberStatusRemoved MemberStatus = "removed"
)

// Membership represents one user's membership in one group.
// Among active memberships of a group, PaymentPosition values are unique and,
// when fully assigned, form the payout order 1..N.
type Membership struct {
	// ID is the unique identifier for the membership.
	ID uint `gorm:"primaryKey"`
	// GroupID is the ID of the group in this membership.
	GroupID uint `gorm:"not null;index:idx_group_user"`
	// UserID is the ID of the user in this membership.
	UserID uint64 `gorm:"not null;index:idx_group_user"`
	// Role is the member's role within the group (admin or member).
	Role MemberRole `gorm:"type:varchar(20);not null;default:'member'"`
	// Status is the lifecycle state of the membership.
	Status MemberStatus `gorm:"type:varchar(20);not null;default:'active'"`
	// PaymentPosition is the member's rank in the payout queue; nil if unassigned.
	PaymentPosition *int
	// JoinDate is when the user joined the group.
	JoinDate time.Time `gorm:"not null"`
	// User is the associated user (loaded via foreign key).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Group is the associated group (loaded via foreign key).
	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the membership was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Membership model.
func (Membership) TableName() string {
	return "group_members"
}
