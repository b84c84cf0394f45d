package contribution

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ajo-platform/ajo-admin/internal/clock"
	"github.com/ajo-platform/ajo-admin/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.User{}, &models.Group{}, &models.Membership{}, &models.Contribution{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// seedGroup creates a group with a fixed contribution amount of 1000.
func seedGroup(t *testing.T, db *gorm.DB) *models.Group {
	t.Helper()

	g := &models.Group{
		Name:               "Test Circle",
		ContributionAmount: 1000,
		Frequency:          models.FrequencyMonthly,
		MaxMembers:         10,
		Status:             models.GroupStatusActive,
		InvitationCode:     "TESTCODE",
	}
	require.NoError(t, db.Create(g).Error)

	return g
}

// seedMember creates a user with an active membership.
func seedMember(t *testing.T, db *gorm.DB, groupID uint, name string) *models.Membership {
	t.Helper()

	u := &models.User{Active: true, FullName: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(u).Error)

	m := &models.Membership{
		GroupID:  groupID,
		UserID:   u.ID,
		Role:     models.RoleMember,
		Status:   models.MemberStatusActive,
		JoinDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(m).Error)

	return m
}

var (
	testNow   = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	testClock = clock.Fixed{T: testNow}
	dueDate   = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
)

func TestRecord(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	member := seedMember(t, db, g.ID, "alice")

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		groupID       uint
		userID        uint64
		amount        float64
		expectedError error
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			groupID:       g.ID,
			userID:        member.UserID,
			amount:        1000,
			expectedError: ErrDBNil,
		},
		{
			name:          "not an active member",
			dbParam:       db,
			groupID:       g.ID,
			userID:        999,
			amount:        1000,
			expectedError: ErrNotActiveMember,
		},
		{
			name:          "amount below group amount",
			dbParam:       db,
			groupID:       g.ID,
			userID:        member.UserID,
			amount:        500,
			expectedError: ErrAmountMismatch,
		},
		{
			name:          "amount above group amount",
			dbParam:       db,
			groupID:       g.ID,
			userID:        member.UserID,
			amount:        1500,
			expectedError: ErrAmountMismatch,
		},
		{
			name:    "successful record",
			dbParam: db,
			groupID: g.ID,
			userID:  member.UserID,
			amount:  1000,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Record(tc.dbParam, tc.groupID, tc.userID, tc.amount, dueDate, "bank_transfer")

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, c)
			} else {
				require.NoError(t, err)
				require.NotNil(t, c)
				assert.Equal(t, models.ContributionPending, c.Status)
				assert.Nil(t, c.PaidDate)
			}
		})
	}
}

func TestMarkPaid(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	member := seedMember(t, db, g.ID, "alice")

	c, err := Record(db, g.ID, member.UserID, 1000, dueDate, "")
	require.NoError(t, err)

	paid, err := MarkPaid(db, testClock, c.ID, "TXN-001", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ContributionPaid, paid.Status)
	assert.Equal(t, "TXN-001", paid.TransactionRef)
	require.NotNil(t, paid.PaidDate)
	assert.True(t, paid.PaidDate.Equal(testNow))

	// the transition is terminal
	_, err = MarkPaid(db, testClock, c.ID, "TXN-002", nil)
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = MarkPaid(db, testClock, 999, "TXN-003", nil)
	require.ErrorIs(t, err, ErrContributionNotFound)
}

func TestMarkPaidExplicitDate(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	member := seedMember(t, db, g.ID, "alice")

	c, err := Record(db, g.ID, member.UserID, 1000, dueDate, "")
	require.NoError(t, err)

	backdated := testNow.AddDate(0, 0, -3)

	paid, err := MarkPaid(db, testClock, c.ID, "TXN-001", &backdated)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidDate)
	assert.True(t, paid.PaidDate.Equal(backdated))
}

func TestCancel(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	member := seedMember(t, db, g.ID, "alice")

	pending, err := Record(db, g.ID, member.UserID, 1000, dueDate, "")
	require.NoError(t, err)

	cancelled, err := Cancel(db, pending.ID, "left the group")
	require.NoError(t, err)
	assert.Equal(t, models.ContributionCancelled, cancelled.Status)

	// cancelled rows are immutable
	_, err = Cancel(db, pending.ID, "again")
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	// paid rows are immutable
	paid, err := Record(db, g.ID, member.UserID, 1000, dueDate, "")
	require.NoError(t, err)
	_, err = MarkPaid(db, testClock, paid.ID, "TXN-001", nil)
	require.NoError(t, err)
	_, err = Cancel(db, paid.ID, "too late")
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	// overdue rows can still be cancelled
	overdue, err := Record(db, g.ID, member.UserID, 1000, testNow.AddDate(0, 0, -10), "")
	require.NoError(t, err)
	_, err = SweepOverdue(db, testClock)
	require.NoError(t, err)
	cancelled, err = Cancel(db, overdue.ID, "waived")
	require.NoError(t, err)
	assert.Equal(t, models.ContributionCancelled, cancelled.Status)

	_, err = Cancel(db, 999, "missing")
	require.ErrorIs(t, err, ErrContributionNotFound)
}

func TestSweepOverdue(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	member := seedMember(t, db, g.ID, "alice")

	past, err := Record(db, g.ID, member.UserID, 1000, testNow.AddDate(0, 0, -5), "")
	require.NoError(t, err)

	future, err := Record(db, g.ID, member.UserID, 1000, testNow.AddDate(0, 0, 5), "")
	require.NoError(t, err)

	paid, err := Record(db, g.ID, member.UserID, 1000, testNow.AddDate(0, 0, -5), "")
	require.NoError(t, err)
	_, err = MarkPaid(db, testClock, paid.ID, "TXN-001", nil)
	require.NoError(t, err)

	ids, err := SweepOverdue(db, testClock)
	require.NoError(t, err)
	assert.Equal(t, []uint64{past.ID}, ids)

	var swept models.Contribution
	require.NoError(t, db.First(&swept, past.ID).Error)
	assert.Equal(t, models.ContributionOverdue, swept.Status)

	var untouched models.Contribution
	require.NoError(t, db.First(&untouched, future.ID).Error)
	assert.Equal(t, models.ContributionPending, untouched.Status)

	// sweeping again finds nothing new
	ids, err = SweepOverdue(db, testClock)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBulkCreateForCycle(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	alice := seedMember(t, db, g.ID, "alice")
	bob := seedMember(t, db, g.ID, "bob")
	carol := seedMember(t, db, g.ID, "carol")

	// the cycle's recipient is excluded
	created, err := BulkCreateForCycle(db, g.ID, dueDate, []uint64{bob.UserID})
	require.NoError(t, err)
	require.Len(t, created, 2)

	for _, c := range created {
		assert.Equal(t, g.ContributionAmount, c.Amount)
		assert.Equal(t, models.ContributionPending, c.Status)
		assert.NotEqual(t, bob.UserID, c.UserID)
	}

	// excluding everyone is an error
	_, err = BulkCreateForCycle(db, g.ID, dueDate, []uint64{alice.UserID, bob.UserID, carol.UserID})
	require.ErrorIs(t, err, ErrNoEligibleMembers)

	_, err = BulkCreateForCycle(db, 999, dueDate, nil)
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestForGroupAndForUser(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	alice := seedMember(t, db, g.ID, "alice")
	bob := seedMember(t, db, g.ID, "bob")

	a1, err := Record(db, g.ID, alice.UserID, 1000, dueDate, "")
	require.NoError(t, err)
	_, err = Record(db, g.ID, bob.UserID, 1000, dueDate, "")
	require.NoError(t, err)

	_, err = MarkPaid(db, testClock, a1.ID, "TXN-001", nil)
	require.NoError(t, err)

	rows, err := ForGroup(db, g.ID, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	paidStatus := models.ContributionPaid
	rows, err = ForGroup(db, g.ID, &paidStatus)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, alice.UserID, rows[0].UserID)
	assert.Equal(t, "alice", rows[0].FullName)

	mine, err := ForUser(db, alice.UserID, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	mine, err = ForUser(db, alice.UserID, &g.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	other := uint(999)
	mine, err = ForUser(db, alice.UserID, &other)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestListOverdue(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	member := seedMember(t, db, g.ID, "alice")

	_, err := Record(db, g.ID, member.UserID, 1000, testNow.AddDate(0, 0, -10), "")
	require.NoError(t, err)
	_, err = Record(db, g.ID, member.UserID, 1000, testNow.AddDate(0, 0, -2), "")
	require.NoError(t, err)

	rows, err := ListOverdue(db, testClock, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// oldest first, with the day count filled in
	assert.Equal(t, 10, rows[0].DaysOverdue)
	assert.Equal(t, 2, rows[1].DaysOverdue)
	assert.Equal(t, g.Name, rows[0].GroupName)

	rows, err = ListOverdue(db, testClock, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].DaysOverdue)
}

func TestSummarize(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	alice := seedMember(t, db, g.ID, "alice")
	bob := seedMember(t, db, g.ID, "bob")

	paid, err := Record(db, g.ID, alice.UserID, 1000, dueDate, "")
	require.NoError(t, err)
	_, err = MarkPaid(db, testClock, paid.ID, "TXN-001", nil)
	require.NoError(t, err)

	_, err = Record(db, g.ID, bob.UserID, 1000, dueDate, "")
	require.NoError(t, err)

	_, err = Record(db, g.ID, bob.UserID, 1000, testNow.AddDate(0, 0, -5), "")
	require.NoError(t, err)
	_, err = SweepOverdue(db, testClock)
	require.NoError(t, err)

	s, err := Summarize(db, g.ID)
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, int64(3), s.TotalContributions)
	assert.Equal(t, int64(1), s.PaidContributions)
	assert.Equal(t, int64(1), s.PendingContributions)
	assert.Equal(t, int64(1), s.OverdueContributions)
	assert.Equal(t, float64(1000), s.TotalPaid)
	assert.Equal(t, float64(1000), s.TotalPending)
	assert.Equal(t, float64(1000), s.TotalOverdue)
	assert.NotEmpty(t, s.RecentActivity)
}
