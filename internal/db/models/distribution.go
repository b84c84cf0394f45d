package models

import "time"

// DistributionStatus represents the lifecycle state of a distribution.
type DistributionStatus string

const (
	// DistributionPending indicates the payout was initiated but not settled.
	DistributionPending DistributionStatus = "pending"
	// DistributionCompleted indicates the payout settled. Terminal.
	DistributionCompleted DistributionStatus = "completed"
	// DistributionFailed indicates the payout failed. Terminal.
	DistributionFailed DistributionStatus = "failed"
)

// Distribution represents one cycle payout of the pooled contributions to a
// single recipient. Amount never exceeds contribution_amount multiplied by the
// active member count. Removing a member does not alter historical rows.
type Distribution struct {
	// ID is the unique identifier for the distribution.
	ID uint64 `gorm:"primaryKey"`
	// GroupID is the ID of the group the payout belongs to.
	GroupID uint `gorm:"not null;index"`
	// RecipientID is the ID of the user receiving the payout.
	RecipientID uint64 `gorm:"not null;index"`
	// Amount is the payout amount.
	Amount float64 `gorm:"type:decimal(12,2);not null"`
	// DistributionDate is the date of the payout.
	DistributionDate time.Time `gorm:"not null"`
	// TransactionRef is the external settlement reference.
	TransactionRef string `gorm:"size:100"`
	// Status is the lifecycle state; transitions pending->completed or
	// pending->failed exactly once.
	Status DistributionStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	// Notes carries free-form audit notes; failure reasons are appended here
	// rather than overwriting earlier entries.
	Notes string `gorm:"size:1000"`
	// CreatedAt is the timestamp when the distribution was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the distribution was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Distribution model.
func (Distribution) TableName() string {
	return "distributions"
}
