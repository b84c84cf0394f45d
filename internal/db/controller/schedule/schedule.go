// Package schedule provides the read-only rotation schedule projection:
// active members in payout order with the single next recipient flagged.
package schedule

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/db/controller/distribution"
	"github.com/ajo-platform/ajo-admin/internal/db/controller/position"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGroupNotFound is returned when the group does not exist.
	ErrGroupNotFound = errors.New("group not found")
)

// Entry is one member's slot in the payout schedule.
type Entry struct {
	UserID   uint64
	Position *int
	FullName string
	Role     models.MemberRole
	IsNext   bool
}

// Schedule is the ordered payout schedule of a group.
type Schedule struct {
	GroupID            uint
	GroupName          string
	ContributionAmount float64
	Frequency          models.GroupFrequency
	GroupStatus        models.GroupStatus
	Entries            []Entry
	TotalMembers       int
	NextRecipient      *Entry
}

// Get builds the payout schedule for a group. IsNext is true for exactly one
// entry, the member the distribution engine would pay next. No mutation.
func Get(db *gorm.DB, groupID uint) (*Schedule, error) {
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

	members, err := position.Positions(db, groupID)
	if err != nil {
		return nil, err
	}

	s := &Schedule{
		GroupID:            g.ID,
		GroupName:          g.Name,
		ContributionAmount: g.ContributionAmount,
		Frequency:          g.Frequency,
		GroupStatus:        g.Status,
		Entries:            make([]Entry, 0, len(members)),
		TotalMembers:       len(members),
	}

	if len(members) == 0 {
		return s, nil
	}

	next, err := distribution.NextRecipient(db, groupID)
	if err != nil {
		return nil, err
	}

	for _, m := range members {
		entry := Entry{
			UserID:   m.UserID,
			Position: m.PaymentPosition,
			FullName: m.FullName,
			Role:     m.Role,
			IsNext:   m.UserID == next.UserID,
		}

		s.Entries = append(s.Entries, entry)

		if entry.IsNext {
			e := entry
			s.NextRecipient = &e
		}
	}

	return s, nil
}
