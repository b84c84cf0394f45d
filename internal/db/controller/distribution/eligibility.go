package distribution

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/clock"
	"github.com/ajo-platform/ajo-admin/internal/config"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
)

// Eligibility is the result of a recipient eligibility check. Only a missing
// active membership makes Eligible false; the recency and contribution-rate
// checks produce warnings for the admin to weigh, never hard blocks.
type Eligibility struct {
	Eligible            bool
	Reason              string
	Role                models.MemberRole
	PaymentPosition     *int
	RecentDistributions int64
	ContributionRate    float64
	TotalContributions  int64
	PaidContributions   int64
	Warnings            []string
}

// ValidateEligibility checks whether a member should receive the next payout.
// The lockout and rate thresholds come from the rotation policy config.
func ValidateEligibility(db *gorm.DB, clk clock.Clock, policy config.Rotation, groupID uint, recipientID uint64) (*Eligibility, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var m models.Membership
	result := db.Where("group_id = ? AND user_id = ?", groupID, recipientID).
		Order("created_at DESC").
		Limit(1).
		Find(&m)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return &Eligibility{
			Eligible: false,
			Reason:   "user is not a member of this group",
		}, nil
	}

	if m.Status != models.MemberStatusActive {
		return &Eligibility{
			Eligible: false,
			Reason:   fmt.Sprintf("user membership status is %s, not active", m.Status),
		}, nil
	}

	e := &Eligibility{
		Eligible:        true,
		Role:            m.Role,
		PaymentPosition: m.PaymentPosition,
		Warnings:        []string{},
	}

	now := clk.Now()
	lockoutStart := now.AddDate(0, 0, -policy.RecentPayoutLockoutDays)

	err := db.Model(&models.Distribution{}).
		Where("group_id = ? AND recipient_id = ? AND status = ? AND distribution_date >= ?",
			groupID, recipientID, models.DistributionCompleted, lockoutStart).
		Count(&e.RecentDistributions).Error
	if err != nil {
		return nil, err
	}

	if e.RecentDistributions > 0 {
		e.Warnings = append(e.Warnings, "member received a completed distribution recently")
	}

	rateWindowStart := now.AddDate(0, 0, -policy.ContributionRateWindowDays)

	type contribAgg struct {
		Total int64
		Paid  int64
	}

	var agg contribAgg
	err = db.Model(&models.Contribution{}).
		Select("COUNT(*) AS total, COUNT(CASE WHEN status = ? THEN 1 END) AS paid", models.ContributionPaid).
		Where("group_id = ? AND user_id = ? AND due_date >= ?", groupID, recipientID, rateWindowStart).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	e.TotalContributions = agg.Total
	e.PaidContributions = agg.Paid

	if agg.Total > 0 {
		e.ContributionRate = float64(agg.Paid) / float64(agg.Total) * 100
	}

	if agg.Total > 0 && e.ContributionRate < policy.MinContributionRate {
		e.Warnings = append(e.Warnings, "low contribution rate")
	}

	return e, nil
}
