// Package contribution is the contribution ledger: it records each member's
// due and paid contributions per cycle and drives their status transitions.
// Paid and cancelled rows are immutable; the overdue transition is an
// explicit, externally triggered sweep and never a side effect of a read.
package contribution

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajo-platform/ajo-admin/internal/clock"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
)

// Row is one contribution joined with the contributing member's identity.
type Row struct {
	ContributionID uint64
	UserID         uint64
	FullName       string
	Email          string
	Amount         float64
	DueDate        time.Time
	PaidDate       *time.Time
	PaymentMethod  string
	TransactionRef string
	Status         models.ContributionStatus
}

// OverdueRow is one overdue listing entry with how far past due it is.
type OverdueRow struct {
	ContributionID uint64
	GroupID        uint
	GroupName      string
	UserID         uint64
	FullName       string
	Amount         float64
	DueDate        time.Time
	DaysOverdue    int
}

// Activity is one line of a group's recent ledger activity.
type Activity struct {
	ContributionID uint64
	FullName       string
	Amount         float64
	Status         models.ContributionStatus
	DueDate        time.Time
	PaidDate       *time.Time
}

// Summary aggregates a group's ledger by status.
type Summary struct {
	GroupID              uint
	TotalContributions   int64
	PaidContributions    int64
	PendingContributions int64
	OverdueContributions int64
	TotalPaid            float64
	TotalPending         float64
	TotalOverdue         float64
	RecentActivity       []Activity
}

// Record creates a pending contribution for an active member. The amount must
// equal the group's fixed contribution amount.
func Record(db *gorm.DB, groupID uint, userID uint64, amount float64, dueDate time.Time, paymentMethod string) (*models.Contribution, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var c *models.Contribution

	err := db.Transaction(func(tx *gorm.DB) error {
		g, err := activeMemberGroup(tx, groupID, userID)
		if err != nil {
			return err
		}

		if amount != g.ContributionAmount {
			return ErrAmountMismatch
		}

		c = &models.Contribution{
			GroupID:       groupID,
			UserID:        userID,
			Amount:        amount,
			DueDate:       dueDate,
			PaymentMethod: paymentMethod,
			Status:        models.ContributionPending,
		}

		return tx.Create(c).Error
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// MarkPaid marks a pending contribution as paid, storing the transaction
// reference verbatim. The transition is compare-and-set on the pending
// status, so racing callers get exactly one success and ErrAlreadyProcessed
// for the rest. The paid date defaults to now.
func MarkPaid(db *gorm.DB, clk clock.Clock, id uint64, transactionRef string, paidDate *time.Time) (*models.Contribution, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	when := clk.Now()
	if paidDate != nil {
		when = *paidDate
	}

	result := db.Model(&models.Contribution{}).
		Where("id = ? AND status = ?", id, models.ContributionPending).
		Updates(map[string]interface{}{
			"status":          models.ContributionPaid,
			"paid_date":       when,
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

// Cancel cancels a pending or overdue contribution. Paid and cancelled rows
// are immutable.
func Cancel(db *gorm.DB, id uint64, reason string) (*models.Contribution, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	result := db.Model(&models.Contribution{}).
		Where("id = ? AND status IN ?", id, []models.ContributionStatus{
			models.ContributionPending,
			models.ContributionOverdue,
		}).
		Update("status", models.ContributionCancelled)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, notPendingError(db, id)
	}

	if reason != "" {
		log.Info().Uint64("contribution_id", id).Str("reason", reason).Msg("contribution cancelled")
	}

	return get(db, id)
}

// SweepOverdue flips every pending contribution whose due date has passed to
// overdue and returns the affected IDs. Running the sweep again leaves
// already-overdue rows untouched.
func SweepOverdue(db *gorm.DB, clk clock.Clock) ([]uint64, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	cutoff := clock.StartOfDay(clk.Now())

	var ids []uint64

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Contribution{}).
			Where("status = ? AND due_date < ?", models.ContributionPending, cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}

		return tx.Model(&models.Contribution{}).
			Where("id IN ?", ids).
			Update("status", models.ContributionOverdue).Error
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// BulkCreateForCycle creates one pending contribution per active member for
// the given due date, optionally excluding some users (a cycle's designated
// recipient is commonly excluded).
func BulkCreateForCycle(db *gorm.DB, groupID uint, dueDate time.Time, excludeUsers []uint64) ([]models.Contribution, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var created []models.Contribution

	err := db.Transaction(func(tx *gorm.DB) error {
		var g models.Group
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		var memberIDs []uint64
		if err := tx.Model(&models.Membership{}).
			Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
			Order("user_id").
			Pluck("user_id", &memberIDs).Error; err != nil {
			return err
		}

		excluded := make(map[uint64]struct{}, len(excludeUsers))
		for _, id := range excludeUsers {
			excluded[id] = struct{}{}
		}

		for _, userID := range memberIDs {
			if _, skip := excluded[userID]; skip {
				continue
			}

			created = append(created, models.Contribution{
				GroupID: groupID,
				UserID:  userID,
				Amount:  g.ContributionAmount,
				DueDate: dueDate,
				Status:  models.ContributionPending,
			})
		}

		if len(created) == 0 {
			return ErrNoEligibleMembers
		}

		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// ForUser lists a user's contributions, optionally restricted to one group,
// most recent due date first.
func ForUser(db *gorm.DB, userID uint64, groupID *uint) ([]models.Contribution, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Where("user_id = ?", userID)
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	}

	var rows []models.Contribution
	result := q.Order("due_date DESC, created_at DESC").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// ForGroup lists a group's contributions joined with member identity,
// optionally filtered by status.
func ForGroup(db *gorm.DB, groupID uint, status *models.ContributionStatus) ([]Row, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Table("contributions c").
		Select("c.id AS contribution_id, c.user_id, u.full_name, u.email, c.amount, c.due_date, c.paid_date, c.payment_method, c.transaction_ref, c.status").
		Joins("JOIN users u ON u.id = c.user_id").
		Where("c.group_id = ?", groupID)

	if status != nil {
		q = q.Where("c.status = ?", *status)
	}

	var rows []Row
	result := q.Order("c.due_date DESC, u.full_name").Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// ListOverdue lists pending contributions at least minDays past due across
// all groups, oldest first.
func ListOverdue(db *gorm.DB, clk clock.Clock, minDays int) ([]OverdueRow, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	today := clock.StartOfDay(clk.Now())
	cutoff := today.AddDate(0, 0, -minDays)

	var rows []OverdueRow
	result := db.Table("contributions c").
		Select("c.id AS contribution_id, c.group_id, g.name AS group_name, c.user_id, u.full_name, c.amount, c.due_date").
		Joins("JOIN ajo_groups g ON g.id = c.group_id").
		Joins("JOIN users u ON u.id = c.user_id").
		Where("c.status IN ? AND c.due_date < ?", []models.ContributionStatus{
			models.ContributionPending,
			models.ContributionOverdue,
		}, cutoff).
		Order("c.due_date ASC, g.name, u.full_name").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	for i := range rows {
		rows[i].DaysOverdue = int(today.Sub(clock.StartOfDay(rows[i].DueDate)).Hours() / 24)
	}

	return rows, nil
}

// Summarize aggregates a group's ledger by status and returns the most recent
// activity.
func Summarize(db *gorm.DB, groupID uint) (*Summary, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	type statusAgg struct {
		Status models.ContributionStatus
		Count  int64
		Total  float64
	}

	var aggs []statusAgg
	err := db.Model(&models.Contribution{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("group_id = ?", groupID).
		Group("status").
		Scan(&aggs).Error
	if err != nil {
		return nil, err
	}

	s := &Summary{GroupID: groupID, RecentActivity: []Activity{}}

	for _, agg := range aggs {
		s.TotalContributions += agg.Count

		switch agg.Status {
		case models.ContributionPaid:
			s.PaidContributions = agg.Count
			s.TotalPaid = agg.Total
		case models.ContributionPending:
			s.PendingContributions = agg.Count
			s.TotalPending = agg.Total
		case models.ContributionOverdue:
			s.OverdueContributions = agg.Count
			s.TotalOverdue = agg.Total
		case models.ContributionCancelled:
			// counted in the total only
		}
	}

	err = db.Table("contributions c").
		Select("c.id AS contribution_id, u.full_name, c.amount, c.status, c.due_date, c.paid_date").
		Joins("JOIN users u ON u.id = c.user_id").
		Where("c.group_id = ?", groupID).
		Order("COALESCE(c.paid_date, c.updated_at) DESC").
		Limit(10).
		Scan(&s.RecentActivity).Error
	if err != nil {
		return nil, err
	}

	return s, nil
}

func get(db *gorm.DB, id uint64) (*models.Contribution, error) {
	var c models.Contribution
	result := db.First(&c, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrContributionNotFound
		}
		return nil, result.Error
	}

	return &c, nil
}

// notPendingError distinguishes a missing contribution from one that already
// left the mutable state.
func notPendingError(db *gorm.DB, id uint64) error {
	if _, err := get(db, id); err != nil {
		return err
	}

	return ErrAlreadyProcessed
}

// activeMemberGroup loads the group while verifying the user's active
// membership in it.
func activeMemberGroup(tx *gorm.DB, groupID uint, userID uint64) (*models.Group, error) {
	var g models.Group
	if err := tx.First(&g, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	var active int64
	err := tx.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.MemberStatusActive).
		Count(&active).Error
	if err != nil {
		return nil, err
	}

	if active == 0 {
		return nil, ErrNotActiveMember
	}

	return &g, nil
}
