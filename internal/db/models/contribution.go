package models

import "time"

// ContributionStatus represents the lifecycle state of a contribution.
type ContributionStatus string

const (
	// ContributionPending indicates the contribution is due but unpaid.
	ContributionPending ContributionStatus = "pending"
	// ContributionPaid indicates the contribution was paid. Terminal.
	ContributionPaid ContributionStatus = "paid"
	// ContributionOverdue indicates the due date passed while pending.
	ContributionOverdue ContributionStatus = "overdue"
	// ContributionCancelled indicates the obligation was cancelled. Terminal.
	ContributionCancelled ContributionStatus = "cancelled"
)

// Contribution represents one member's payment obligation for one due date.
// Amount always equals the group's contribution amount at creation time;
// partial contributions do not exist.
type Contribution struct {
	// ID is the unique identifier for the contribution.
	ID uint64 `gorm:"primaryKey"`
	// GroupID is the ID of the owning group.
	GroupID uint `gorm:"not null;index"`
	// UserID is the ID of the contributing member.
	UserID uint64 `gorm:"not null;index"`
	// Amount is the contribution amount.
	Amount float64 `gorm:"type:decimal(12,2);not null"`
	// DueDate is when the contribution is due.
	DueDate time.Time `gorm:"not null;index"`
	// PaidDate is when the contribution was paid; nil while unpaid.
	PaidDate *time.Time
	// PaymentMethod optionally records how the contribution was paid.
	PaymentMethod string `gorm:"size:50"`
	// TransactionRef is the external payment reference, stored verbatim.
	TransactionRef string `gorm:"size:100"`
	// Status is the lifecycle state of the contribution.
	Status ContributionStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	// CreatedAt is the timestamp when the contribution was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the contribution was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Contribution model.
func (Contribution) TableName() string {
	return "contributions"
}
