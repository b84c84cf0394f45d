// Package distribution is the distribution engine: it selects the next payout
// recipient from the payment position order, reconciles the distributable
// amount against the contribution ledger and drives each distribution through
// its pending -> completed/failed lifecycle.
package distribution

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajo-platform/ajo-admin/internal/clock"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
)

// Recipient identifies the next member in line for the pooled payout.
// NewCycle is set when every active member has already received a completed
// distribution and the rotation wraps back to position one.
type Recipient struct {
	UserID          uint64
	FullName        string
	PaymentPosition *int
	NewCycle        bool
}

// AmountReport is the advisory calculation of what one cycle can pay out.
// AvailableForDistribution is the paid sum in the period; it creates nothing.
type AmountReport struct {
	GroupID                  uint
	PeriodStart              time.Time
	PeriodEnd                time.Time
	TotalContributions       int64
	PaidContributions        int64
	AvailableForDistribution float64
	ExpectedTotal            float64
	ContributionRate         float64
	ActiveMembers            int64
}

// Row is one distribution joined with recipient identity.
type Row struct {
	DistributionID   uint64
	RecipientID      uint64
	FullName         string
	Email            string
	Amount           float64
	DistributionDate time.Time
	TransactionRef   string
	Status           models.DistributionStatus
	Notes            string
	PaymentPosition  *int
}

// Summary aggregates a group's distributions by status.
type Summary struct {
	GroupID                uint
	TotalDistributions     int64
	CompletedDistributions int64
	PendingDistributions   int64
	FailedDistributions    int64
	TotalDistributed       float64
	TotalPending           float64
}

// NextRecipient returns the active member with the lowest payment position
// who has no completed distribution yet. When the rotation has gone full
// circle it returns the first member again with NewCycle set; cycles repeat
// indefinitely rather than terminating the group.
func NextRecipient(db *gorm.DB, groupID uint) (*Recipient, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	type memberRow struct {
		UserID          uint64
		FullName        string
		PaymentPosition *int
	}

	var members []memberRow
	err := db.Table("group_members gm").
		Select("gm.user_id, u.full_name, gm.payment_position").
		Joins("JOIN users u ON u.id = gm.user_id").
		Where("gm.group_id = ? AND gm.status = ?", groupID, models.MemberStatusActive).
		Order("gm.payment_position IS NULL").
		Order("gm.payment_position").
		Scan(&members).Error
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		return nil, ErrNoActiveMembers
	}

	var paidOut []uint64
	err = db.Model(&models.Distribution{}).
		Distinct("recipient_id").
		Where("group_id = ? AND status = ?", groupID, models.DistributionCompleted).
		Pluck("recipient_id", &paidOut).Error
	if err != nil {
		return nil, err
	}

	received := make(map[uint64]struct{}, len(paidOut))
	for _, id := range paidOut {
		received[id] = struct{}{}
	}

	for _, m := range members {
		if _, done := received[m.UserID]; !done {
			return &Recipient{
				UserID:          m.UserID,
				FullName:        m.FullName,
				PaymentPosition: m.PaymentPosition,
			}, nil
		}
	}

	first := members[0]

	return &Recipient{
		UserID:          first.UserID,
		FullName:        first.FullName,
		PaymentPosition: first.PaymentPosition,
		NewCycle:        true,
	}, nil
}

// CalculateAmount reports what the ledger collected for the period and how
// that compares to the expected full pool. The period defaults to the current
// calendar month through today. Advisory only; no distribution is created.
func CalculateAmount(db *gorm.DB, clk clock.Clock, groupID uint, periodStart, periodEnd *time.Time) (*AmountReport, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	now := clk.Now()

	start := clock.StartOfMonth(now)
	if periodStart != nil {
		start = *periodStart
	}

	// due dates are stored at midnight, so an inclusive compare against the
	// start of today covers the period through today without reaching into
	// tomorrow
	end := clock.StartOfDay(now)
	if periodEnd != nil {
		end = *periodEnd
	}

	var g models.Group
	if err := db.First(&g, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	activeMembers, err := activeMemberCount(db, groupID)
	if err != nil {
		return nil, err
	}

	type contribAgg struct {
		Total     int64
		Paid      int64
		Collected float64
	}

	var agg contribAgg
	err = db.Model(&models.Contribution{}).
		Select("COUNT(*) AS total, "+
			"COUNT(CASE WHEN status = ? THEN 1 END) AS paid, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS collected",
			models.ContributionPaid, models.ContributionPaid).
		Where("group_id = ? AND due_date >= ? AND due_date <= ?", groupID, start, end).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	report := &AmountReport{
		GroupID:                  groupID,
		PeriodStart:              start,
		PeriodEnd:                end,
		TotalContributions:       agg.Total,
		PaidContributions:        agg.Paid,
		AvailableForDistribution: agg.Collected,
		ExpectedTotal:            g.ContributionAmount * float64(activeMembers),
		ActiveMembers:            activeMembers,
	}

	if activeMembers > 0 {
		report.ContributionRate = float64(agg.Paid) / float64(activeMembers) * 100
	}

	return report, nil
}

// Create initiates a pending distribution to an active member. The amount may
// not exceed the theoretical one-cycle pool (contribution amount times active
// member count). The distribution date defaults to today.
func Create(db *gorm.DB, clk clock.Clock, groupID uint, recipientID uint64, amount float64, date *time.Time, notes string) (*models.Distribution, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	when := clock.StartOfDay(clk.Now())
	if date != nil {
		when = *date
	}

	var d *models.Distribution

	err := db.Transaction(func(tx *gorm.DB) error {
		var g models.Group
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		var active int64
		if err := tx.Model(&models.Membership{}).
			Where("group_id = ? AND user_id = ? AND status = ?", groupID, recipientID, models.MemberStatusActive).
			Count(&active).Error; err != nil {
			return err
		}

		if active == 0 {
			return ErrNotActiveMember
		}

		memberCount, err := activeMemberCount(tx, groupID)
		if err != nil {
			return err
		}

		if amount > g.ContributionAmount*float64(memberCount) {
			return ErrExceedsMaximum
		}

		d = &models.Distribution{
			GroupID:          groupID,
			RecipientID:      recipientID,
			Amount:           amount,
			DistributionDate: when,
			Status:           models.DistributionPending,
			Notes:            notes,
		}

		return tx.Create(d).Error
	})
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Complete marks a pending distribution as completed. The transition is
// compare-and-set on the pending status: of two racing terminal transitions
// exactly one succeeds and the other gets ErrAlreadyProcessed.
func Complete(db *gorm.DB, id uint64, transactionRef string) (*models.Distribution, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	result := db.Model(&models.Distribution{}).
		Where("id = ? AND status = ?", id, models.DistributionPending).
		Updates(map[string]interface{}{
			"status":          models.DistributionCompleted,
			"transaction_ref": transactionRef,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, notPendingError(db, id)
	}

	return get(db, id)
}

// Fail marks a pending distribution as failed. The reason is appended to the
// notes field instead of overwriting it, so repeated failures leave a trail.
func Fail(db *gorm.DB, id uint64, reason string) (*models.Distribution, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if reason == "" {
		reason = "Unspecified"
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var d models.Distribution
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", id, models.DistributionPending).
			First(&d).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notPendingError(tx, id)
			}
			return err
		}

		notes := "FAILURE: " + reason
		if d.Notes != "" {
			notes = d.Notes + " | FAILURE: " + reason
		}

		result := tx.Model(&models.Distribution{}).
			Where("id = ? AND status = ?", id, models.DistributionPending).
			Updates(map[string]interface{}{
				"status": models.DistributionFailed,
				"notes":  notes,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return notPendingError(tx, id)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return get(db, id)
}

// ForGroup lists a group's distributions joined with recipient identity,
// optionally filtered by status, most recent first.
func ForGroup(db *gorm.DB, groupID uint, status *models.DistributionStatus) ([]Row, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Table("distributions d").
		Select("d.id AS distribution_id, d.recipient_id, u.full_name, u.email, d.amount, d.distribution_date, d.transaction_ref, d.status, d.notes, gm.payment_position").
		Joins("JOIN users u ON u.id = d.recipient_id").
		Joins("LEFT JOIN group_members gm ON gm.group_id = d.group_id AND gm.user_id = d.recipient_id").
		Where("d.group_id = ?", groupID)

	if status != nil {
		q = q.Where("d.status = ?", *status)
	}

	var rows []Row
	result := q.Order("d.distribution_date DESC, d.created_at DESC").Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// ForUser lists distributions received by a user, optionally restricted to
// one group, most recent first.
func ForUser(db *gorm.DB, userID uint64, groupID *uint) ([]models.Distribution, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Where("recipient_id = ?", userID)
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	}

	var rows []models.Distribution
	result := q.Order("distribution_date DESC, created_at DESC").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// History returns the most recent limit distributions of a group.
func History(db *gorm.DB, groupID uint, limit int) ([]Row, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if limit <= 0 {
		limit = 50
	}

	var rows []Row
	result := db.Table("distributions d").
		Select("d.id AS distribution_id, d.recipient_id, u.full_name, u.email, d.amount, d.distribution_date, d.transaction_ref, d.status, d.notes, gm.payment_position").
		Joins("JOIN users u ON u.id = d.recipient_id").
		Joins("LEFT JOIN group_members gm ON gm.group_id = d.group_id AND gm.user_id = d.recipient_id").
		Where("d.group_id = ?", groupID).
		Order("d.distribution_date DESC, d.created_at DESC").
		Limit(limit).
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// Summarize aggregates a group's distributions by status.
func Summarize(db *gorm.DB, groupID uint) (*Summary, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	type statusAgg struct {
		Status models.DistributionStatus
		Count  int64
		Total  float64
	}

	var aggs []statusAgg
	err := db.Model(&models.Distribution{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("group_id = ?", groupID).
		Group("status").
		Scan(&aggs).Error
	if err != nil {
		return nil, err
	}

	s := &Summary{GroupID: groupID}

	for _, agg := range aggs {
		s.TotalDistributions += agg.Count

		switch agg.Status {
		case models.DistributionCompleted:
			s.CompletedDistributions = agg.Count
			s.TotalDistributed = agg.Total
		case models.DistributionPending:
			s.PendingDistributions = agg.Count
			s.TotalPending = agg.Total
		case models.DistributionFailed:
			s.FailedDistributions = agg.Count
		}
	}

	return s, nil
}

func get(db *gorm.DB, id uint64) (*models.Distribution, error) {
	var d models.Distribution
	result := db.First(&d, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDistributionNotFound
		}
		return nil, result.Error
	}

	return &d, nil
}

// notPendingError distinguishes a missing distribution from one already in a
// terminal state.
func notPendingError(db *gorm.DB, id uint64) error {
	if _, err := get(db, id); err != nil {
		return err
	}

	return ErrAlreadyProcessed
}

func activeMemberCount(tx *gorm.DB, groupID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Membership{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
		Count(&count).Error

	return count, err
}
