// Package position is the payment position allocator. It maintains the
// mapping from active members to their rank in the payout queue and provides
// the algorithms that bring the mapping into a valid rotation order: random
// reset, manual assignment, pairwise swap, auto-fill of missing positions and
// a read-only validation report.
//
// Assignment is deliberately not a side effect of membership churn; admins
// choose when and how to (re)order, and Validate surfaces whatever churn left
// behind.
package position

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajo-platform/ajo-admin/internal/db/models"
)

// Assignment pairs a user with a target payment position.
type Assignment struct {
	UserID   uint64
	Position int
}

// Assigned reports one newly assigned position.
type Assigned struct {
	UserID   uint64
	FullName string
	Position int
}

// MemberPosition is one row of the position listing.
type MemberPosition struct {
	MembershipID    uint
	UserID          uint64
	FullName        string
	Role            models.MemberRole
	PaymentPosition *int
	JoinDate        time.Time
}

// Report is the result of a read-only position validation. Valid is true only
// when every active member holds a position and the assigned positions are
// exactly the set 1..N.
type Report struct {
	Valid                  bool
	TotalMembers           int
	AssignedPositions      int
	MembersWithoutPosition []string
	DuplicatePositions     []int
	MissingPositions       []int
	OutOfRangePositions    []int
	Issues                 []string
}

// SwapResult names the two members whose positions were exchanged.
type SwapResult struct {
	NameA string
	NameB string
}

// Positions lists the active members of a group with their payment positions,
// members without a position last.
func Positions(db *gorm.DB, groupID uint) ([]MemberPosition, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []MemberPosition
	result := db.Table("group_members gm").
		Select("gm.id AS membership_id, gm.user_id, u.full_name, gm.role, gm.payment_position, gm.join_date").
		Joins("JOIN users u ON u.id = gm.user_id").
		Where("gm.group_id = ? AND gm.status = ?", groupID, models.MemberStatusActive).
		Order("gm.payment_position IS NULL").
		Order("gm.payment_position").
		Order("gm.join_date ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// AssignRandom overwrites every active member's position with a uniformly
// random permutation of 1..N. This is a full reset of the rotation order, not
// an incremental fix. The random source is injected so assignment is
// reproducible under a fixed seed.
func AssignRandom(db *gorm.DB, rng *rand.Rand, groupID uint) (int, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	if rng == nil {
		return 0, ErrRandNil
	}

	var assigned int

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockGroup(tx, groupID); err != nil {
			return err
		}

		var memberships []models.Membership
		if err := tx.Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
			Order("id").
			Find(&memberships).Error; err != nil {
			return err
		}

		if len(memberships) == 0 {
			return ErrNoActiveMembers
		}

		perm := rng.Perm(len(memberships))

		for i := range memberships {
			pos := perm[i] + 1
			if err := tx.Model(&memberships[i]).Update("payment_position", pos).Error; err != nil {
				return err
			}
		}

		assigned = len(memberships)

		return nil
	})
	if err != nil {
		return 0, err
	}

	return assigned, nil
}

// AssignManual sets the positions of exactly the listed users. The whole batch
// is validated up front (pairwise distinct positive positions, every user an
// active member) and written all-or-nothing. Unlisted active members keep
// their current position, which may now collide; Validate reports such states
// instead of this call rejecting them.
func AssignManual(db *gorm.DB, groupID uint, assignments []Assignment) (int, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	if len(assignments) == 0 {
		return 0, fmt.Errorf("%w: no assignments given", ErrInvalidAssignment)
	}

	seenPos := make(map[int]struct{}, len(assignments))
	seenUser := make(map[uint64]struct{}, len(assignments))

	for _, a := range assignments {
		if a.Position <= 0 {
			return 0, fmt.Errorf("%w: positions must be positive integers", ErrInvalidAssignment)
		}

		if _, dup := seenPos[a.Position]; dup {
			return 0, fmt.Errorf("%w: positions must be unique", ErrInvalidAssignment)
		}
		seenPos[a.Position] = struct{}{}

		if _, dup := seenUser[a.UserID]; dup {
			return 0, fmt.Errorf("%w: duplicate user in assignment", ErrInvalidAssignment)
		}
		seenUser[a.UserID] = struct{}{}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockGroup(tx, groupID); err != nil {
			return err
		}

		userIDs := make([]uint64, 0, len(assignments))
		for _, a := range assignments {
			userIDs = append(userIDs, a.UserID)
		}

		var activeCount int64
		if err := tx.Model(&models.Membership{}).
			Where("group_id = ? AND user_id IN ? AND status = ?", groupID, userIDs, models.MemberStatusActive).
			Count(&activeCount).Error; err != nil {
			return err
		}

		if activeCount != int64(len(assignments)) {
			return fmt.Errorf("%w: some users are not active members of this group", ErrInvalidAssignment)
		}

		for _, a := range assignments {
			if err := tx.Model(&models.Membership{}).
				Where("group_id = ? AND user_id = ? AND status = ?", groupID, a.UserID, models.MemberStatusActive).
				Update("payment_position", a.Position).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(assignments), nil
}

// Swap exchanges the payment positions of two active members. Both writes run
// in one transaction; there is never an intermediate state where both hold
// the same value.
func Swap(db *gorm.DB, groupID uint, userA, userB uint64) (*SwapResult, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var res SwapResult

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockGroup(tx, groupID); err != nil {
			return err
		}

		a, err := activeMember(tx, groupID, userA)
		if err != nil {
			return err
		}

		b, err := activeMember(tx, groupID, userB)
		if err != nil {
			return err
		}

		if a.PaymentPosition == nil || b.PaymentPosition == nil {
			return ErrNoPosition
		}

		posA, posB := *a.PaymentPosition, *b.PaymentPosition

		if err := tx.Model(&models.Membership{}).
			Where("id = ?", a.MembershipID).
			Update("payment_position", posB).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Membership{}).
			Where("id = ?", b.MembershipID).
			Update("payment_position", posA).Error; err != nil {
			return err
		}

		res = SwapResult{NameA: a.FullName, NameB: b.FullName}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// AutoAssignMissing assigns positions to active members who lack one, in join
// date order (first joined gets the lowest new position), continuing after the
// highest already-assigned position. It is a no-op when every active member
// already has a position.
func AutoAssignMissing(db *gorm.DB, groupID uint) ([]Assigned, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	assigned := []Assigned{}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockGroup(tx, groupID); err != nil {
			return err
		}

		var missing []MemberPosition
		if err := tx.Table("group_members gm").
			Select("gm.id AS membership_id, gm.user_id, u.full_name, gm.role, gm.payment_position, gm.join_date").
			Joins("JOIN users u ON u.id = gm.user_id").
			Where("gm.group_id = ? AND gm.status = ? AND gm.payment_position IS NULL", groupID, models.MemberStatusActive).
			Order("gm.join_date ASC").
			Scan(&missing).Error; err != nil {
			return err
		}

		if len(missing) == 0 {
			return nil
		}

		var maxPos *int
		if err := tx.Model(&models.Membership{}).
			Select("MAX(payment_position)").
			Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
			Scan(&maxPos).Error; err != nil {
			return err
		}

		base := 0
		if maxPos != nil {
			base = *maxPos
		}

		for i, m := range missing {
			pos := base + i + 1
			if err := tx.Model(&models.Membership{}).
				Where("id = ?", m.MembershipID).
				Update("payment_position", pos).Error; err != nil {
				return err
			}

			assigned = append(assigned, Assigned{
				UserID:   m.UserID,
				FullName: m.FullName,
				Position: pos,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return assigned, nil
}

// Validate checks the positions of a group's active members against the ideal
// contiguous 1..N ordering and reports every deviation. It never mutates
// state: callers pick the repair strategy (AutoAssignMissing, AssignRandom or
// a manual fix) themselves.
func Validate(db *gorm.DB, groupID uint) (*Report, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	members, err := Positions(db, groupID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		TotalMembers:           len(members),
		MembersWithoutPosition: []string{},
		DuplicatePositions:     []int{},
		MissingPositions:       []int{},
		OutOfRangePositions:    []int{},
		Issues:                 []string{},
	}

	positionCount := map[int]int{}

	for _, m := range members {
		if m.PaymentPosition == nil {
			report.MembersWithoutPosition = append(report.MembersWithoutPosition, m.FullName)
			continue
		}

		report.AssignedPositions++
		positionCount[*m.PaymentPosition]++
	}

	if len(report.MembersWithoutPosition) > 0 {
		report.Issues = append(report.Issues,
			"Members without positions: "+strings.Join(report.MembersWithoutPosition, ", "))
	}

	for pos, count := range positionCount {
		if count > 1 {
			report.DuplicatePositions = append(report.DuplicatePositions, pos)
		}
	}

	sort.Ints(report.DuplicatePositions)

	if len(report.DuplicatePositions) > 0 {
		report.Issues = append(report.Issues,
			"Duplicate positions found: "+joinInts(report.DuplicatePositions))
	}

	if len(positionCount) > 0 {
		for want := 1; want <= len(members); want++ {
			if positionCount[want] == 0 {
				report.MissingPositions = append(report.MissingPositions, want)
			}
		}

		for pos := range positionCount {
			if pos < 1 || pos > len(members) {
				report.OutOfRangePositions = append(report.OutOfRangePositions, pos)
			}
		}

		sort.Ints(report.OutOfRangePositions)

		if len(report.MissingPositions) > 0 {
			report.Issues = append(report.Issues,
				"Missing positions: "+joinInts(report.MissingPositions))
		}

		if len(report.OutOfRangePositions) > 0 {
			report.Issues = append(report.Issues,
				"Invalid positions: "+joinInts(report.OutOfRangePositions))
		}
	}

	report.Valid = len(report.MembersWithoutPosition) == 0 &&
		len(report.DuplicatePositions) == 0 &&
		len(report.MissingPositions) == 0 &&
		len(report.OutOfRangePositions) == 0

	return report, nil
}

func lockGroup(tx *gorm.DB, groupID uint) error {
	var g models.Group
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrGroupNotFound
	}

	return err
}

func activeMember(tx *gorm.DB, groupID uint, userID uint64) (*MemberPosition, error) {
	var m MemberPosition
	result := tx.Table("group_members gm").
		Select("gm.id AS membership_id, gm.user_id, u.full_name, gm.role, gm.payment_position, gm.join_date").
		Joins("JOIN users u ON u.id = gm.user_id").
		Where("gm.group_id = ? AND gm.user_id = ? AND gm.status = ?", groupID, userID, models.MemberStatusActive).
		Limit(1).
		Scan(&m)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, ErrNotActiveMember
	}

	return &m, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}

	return strings.Join(parts, ", ")
}
