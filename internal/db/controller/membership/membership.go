// Package membership provides the membership store for Ajo groups: adding and
// removing members, role changes and member listings. All mutations run inside
// a transaction that locks the group row, so two concurrent adds can never
// compute the same auto-assigned payment position.
package membership

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajo-platform/ajo-admin/internal/clock"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
)

// Member is one row of a member listing, joined with user identity.
type Member struct {
	MembershipID    uint
	UserID          uint64
	FullName        string
	Email           string
	Role            models.MemberRole
	Status          models.MemberStatus
	PaymentPosition *int
	JoinDate        time.Time
}

// Add adds a user to a group. When position is nil the next free position
// (highest assigned + 1) is taken. A supplied position must be positive and
// not collide with another active member's position.
func Add(db *gorm.DB, clk clock.Clock, groupID uint, userID uint64, role models.MemberRole, position *int) (*models.Membership, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, ErrInvalidRole
	}

	if position != nil && *position <= 0 {
		return nil, ErrInvalidPosition
	}

	var m *models.Membership

	err := db.Transaction(func(tx *gorm.DB) error {
		var g models.Group
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.Membership{}).
			Where("group_id = ? AND user_id = ? AND status <> ?", groupID, userID, models.MemberStatusRemoved).
			Count(&existing).Error; err != nil {
			return err
		}

		if existing > 0 {
			return ErrAlreadyMember
		}

		var active int64
		if err := tx.Model(&models.Membership{}).
			Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
			Count(&active).Error; err != nil {
			return err
		}

		if active >= int64(g.MaxMembers) {
			return ErrGroupFull
		}

		pos := position
		if pos == nil {
			next, err := nextFreePosition(tx, groupID)
			if err != nil {
				return err
			}
			pos = &next
		} else {
			var taken int64
			if err := tx.Model(&models.Membership{}).
				Where("group_id = ? AND status = ? AND payment_position = ?", groupID, models.MemberStatusActive, *pos).
				Count(&taken).Error; err != nil {
				return err
			}

			if taken > 0 {
				return ErrPositionTaken
			}
		}

		m = &models.Membership{
			GroupID:         groupID,
			UserID:          userID,
			Role:            role,
			Status:          models.MemberStatusActive,
			PaymentPosition: pos,
			JoinDate:        clk.Now(),
		}

		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Remove soft-removes a member from a group. The row is kept with status
// "removed" so historical distributions stay attributable. Removing the sole
// active admin is rejected.
func Remove(db *gorm.DB, groupID uint, userID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		m, err := lockActiveMembership(tx, groupID, userID)
		if err != nil {
			return err
		}

		if m.Role == models.RoleAdmin {
			if err := ensureNotLastAdmin(tx, groupID); err != nil {
				return err
			}
		}

		return tx.Model(m).Update("status", models.MemberStatusRemoved).Error
	})
}

// UpdateRole changes a member's role. Demoting the sole active admin is rejected.
func UpdateRole(db *gorm.DB, groupID uint, userID uint64, newRole models.MemberRole) error {
	if db == nil {
		return ErrDBNil
	}

	if newRole != models.RoleAdmin && newRole != models.RoleMember {
		return ErrInvalidRole
	}

	return db.Transaction(func(tx *gorm.DB) error {
		m, err := lockActiveMembership(tx, groupID, userID)
		if err != nil {
			return err
		}

		if m.Role == models.RoleAdmin && newRole == models.RoleMember {
			if err := ensureNotLastAdmin(tx, groupID); err != nil {
				return err
			}
		}

		return tx.Model(m).Update("role", newRole).Error
	})
}

// List returns the members of a group ordered by payment position (members
// without a position last, then by join date). Removed and other non-active
// members are only included when includeInactive is set.
func List(db *gorm.DB, groupID uint, includeInactive bool) ([]Member, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Table("group_members gm").
		Select("gm.id AS membership_id, gm.user_id, u.full_name, u.email, gm.role, gm.status, gm.payment_position, gm.join_date").
		Joins("JOIN users u ON u.id = gm.user_id").
		Where("gm.group_id = ?", groupID)

	if !includeInactive {
		q = q.Where("gm.status = ?", models.MemberStatusActive)
	}

	var members []Member
	result := q.Order("gm.payment_position IS NULL").
		Order("gm.payment_position").
		Order("gm.join_date ASC").
		Scan(&members)
	if result.Error != nil {
		return nil, result.Error
	}

	return members, nil
}

// IsActiveMember reports whether the user has an active membership in the group.
func IsActiveMember(db *gorm.DB, groupID uint, userID uint64) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	var count int64
	result := db.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.MemberStatusActive).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// nextFreePosition computes max(assigned active positions)+1 within the
// caller's transaction. The group row lock serializes concurrent callers.
func nextFreePosition(tx *gorm.DB, groupID uint) (int, error) {
	var maxPos *int
	err := tx.Model(&models.Membership{}).
		Select("MAX(payment_position)").
		Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
		Scan(&maxPos).Error
	if err != nil {
		return 0, err
	}

	if maxPos == nil {
		return 1, nil
	}

	return *maxPos + 1, nil
}

func lockActiveMembership(tx *gorm.DB, groupID uint, userID uint64) (*models.Membership, error) {
	var m models.Membership
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.MemberStatusActive).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotActiveMember
		}
		return nil, err
	}

	return &m, nil
}

func ensureNotLastAdmin(tx *gorm.DB, groupID uint) error {
	var admins int64
	err := tx.Model(&models.Membership{}).
		Where("group_id = ? AND role = ? AND status = ?", groupID, models.RoleAdmin, models.MemberStatusActive).
		Count(&admins).Error
	if err != nil {
		return err
	}

	if admins <= 1 {
		return ErrLastAdmin
	}

	return nil
}
