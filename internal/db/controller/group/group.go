// Package group provides CRUD operations for Ajo groups.
package group

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/db/models"
)

const invitationCodeLength = 8

const invitationCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Params holds the caller-supplied settings for a new group.
type Params struct {
	Name               string
	Description        string
	ContributionAmount float64
	Frequency          models.GroupFrequency
	StartDate          *time.Time
	DurationMonths     int
	MaxMembers         int
	CreatedBy          uint64
}

// Create creates a new group after checking the settings bounds.
func Create(db *gorm.DB, p Params) (*models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := checkSettings(p.ContributionAmount, p.Frequency, p.MaxMembers); err != nil {
		return nil, err
	}

	code, err := generateInvitationCode()
	if err != nil {
		return nil, err
	}

	g := &models.Group{
		Name:               p.Name,
		Description:        p.Description,
		ContributionAmount: p.ContributionAmount,
		Frequency:          p.Frequency,
		StartDate:          p.StartDate,
		DurationMonths:     p.DurationMonths,
		MaxMembers:         p.MaxMembers,
		Status:             models.GroupStatusActive,
		InvitationCode:     code,
		CreatedBy:          p.CreatedBy,
	}

	result := db.Create(g)
	if result.Error != nil {
		return nil, result.Error
	}

	return g, nil
}

// Get retrieves a group by its ID.
func Get(db *gorm.DB, id uint) (*models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var g models.Group
	result := db.First(&g, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, result.Error
	}

	return &g, nil
}

// GetByInvitationCode retrieves a group by its invitation code.
func GetByInvitationCode(db *gorm.DB, code string) (*models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var g models.Group
	result := db.Where("invitation_code = ?", code).First(&g)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, result.Error
	}

	return &g, nil
}

// UpdateSettings changes the contribution amount and member cap of a group.
// The settings are locked as soon as any active member holds a payment
// position: changing the stake mid-rotation would break the amount and
// pool-ceiling invariants of existing contributions and distributions.
func UpdateSettings(db *gorm.DB, id uint, contributionAmount float64, maxMembers int) (*models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var g models.Group

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&g, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		if err := checkSettings(contributionAmount, g.Frequency, maxMembers); err != nil {
			return err
		}

		var allocated int64
		if err := tx.Model(&models.Membership{}).
			Where("group_id = ? AND status = ? AND payment_position IS NOT NULL", id, models.MemberStatusActive).
			Count(&allocated).Error; err != nil {
			return err
		}

		if allocated > 0 {
			return ErrSettingsLocked
		}

		g.ContributionAmount = contributionAmount
		g.MaxMembers = maxMembers

		return tx.Save(&g).Error
	})
	if err != nil {
		return nil, err
	}

	return &g, nil
}

// JoinCheck is the result of a join precheck. SpotsAvailable is only set when
// the user can join.
type JoinCheck struct {
	CanJoin        bool
	Reason         string
	SpotsAvailable int
}

// CanUserJoin checks whether a user may join a group before any invitation
// code is redeemed. Every blocker is reported as a reason rather than an
// error; only a missing group is an error.
func CanUserJoin(db *gorm.DB, groupID uint, userID uint64) (*JoinCheck, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var g models.Group
	if err := db.First(&g, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	if g.Status != models.GroupStatusActive {
		return &JoinCheck{Reason: "group is " + string(g.Status)}, nil
	}

	var member int64
	err := db.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.MemberStatusActive).
		Count(&member).Error
	if err != nil {
		return nil, err
	}

	if member > 0 {
		return &JoinCheck{Reason: "already a member of this group"}, nil
	}

	var active int64
	err = db.Model(&models.Membership{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
		Count(&active).Error
	if err != nil {
		return nil, err
	}

	if active >= int64(g.MaxMembers) {
		return &JoinCheck{Reason: "group is full"}, nil
	}

	return &JoinCheck{CanJoin: true, SpotsAvailable: g.MaxMembers - int(active)}, nil
}

func checkSettings(amount float64, frequency models.GroupFrequency, maxMembers int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if frequency != models.FrequencyWeekly && frequency != models.FrequencyMonthly {
		return ErrInvalidFrequency
	}

	if maxMembers < models.MinGroupMembers || maxMembers > models.MaxGroupMembers {
		return ErrInvalidMaxMembers
	}

	return nil
}

// generateInvitationCode returns a short shareable join code.
func generateInvitationCode() (string, error) {
	code := make([]byte, invitationCodeLength)

	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(invitationCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = invitationCodeAlphabet[n.Int64()]
	}

	return string(code), nil
}
