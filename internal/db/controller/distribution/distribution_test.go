package distribution

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

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.Contribution{},
		&models.Distribution{},
	)
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

// seedMember creates a user with an active membership at the given position.
func seedMember(t *testing.T, db *gorm.DB, groupID uint, name string, position int) *models.Membership {
	t.Helper()

	u := &models.User{Active: true, FullName: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(u).Error)

	m := &models.Membership{
		GroupID:         groupID,
		UserID:          u.ID,
		Role:            models.RoleMember,
		Status:          models.MemberStatusActive,
		PaymentPosition: &position,
		JoinDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(m).Error)

	return m
}

var (
	testNow   = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	testClock = clock.Fixed{T: testNow}
)

func TestNextRecipient(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	second := seedMember(t, db, g.ID, "second", 2)
	first := seedMember(t, db, g.ID, "first", 1)
	third := seedMember(t, db, g.ID, "third", 3)

	// lowest position with no completed distribution
	r, err := NextRecipient(db, g.ID)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, r.UserID)
	assert.Equal(t, "first", r.FullName)
	assert.False(t, r.NewCycle)

	payOut := func(userID uint64) {
		d, err := Create(db, testClock, g.ID, userID, 3000, nil, "")
		require.NoError(t, err)
		_, err = Complete(db, d.ID, "TXN")
		require.NoError(t, err)
	}

	payOut(first.UserID)

	r, err = NextRecipient(db, g.ID)
	require.NoError(t, err)
	assert.Equal(t, second.UserID, r.UserID)
	assert.False(t, r.NewCycle)

	// a pending distribution does not count as received
	_, err = Create(db, testClock, g.ID, second.UserID, 3000, nil, "")
	require.NoError(t, err)

	r, err = NextRecipient(db, g.ID)
	require.NoError(t, err)
	assert.Equal(t, second.UserID, r.UserID)

	payOut(second.UserID)
	payOut(third.UserID)

	// everyone has received: the rotation wraps to position one
	r, err = NextRecipient(db, g.ID)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, r.UserID)
	assert.True(t, r.NewCycle)
}

func TestNextRecipientNoMembers(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	_, err := NextRecipient(db, g.ID)
	require.ErrorIs(t, err, ErrNoActiveMembers)
}

func TestCalculateAmount(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	alice := seedMember(t, db, g.ID, "alice", 1)
	bob := seedMember(t, db, g.ID, "bob", 2)

	mkContribution := func(userID uint64, due time.Time, status models.ContributionStatus) {
		c := models.Contribution{
			GroupID: g.ID,
			UserID:  userID,
			Amount:  1000,
			DueDate: due,
			Status:  status,
		}
		require.NoError(t, db.Create(&c).Error)
	}

	inPeriod := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	mkContribution(alice.UserID, inPeriod, models.ContributionPaid)
	mkContribution(bob.UserID, inPeriod, models.ContributionPending)
	mkContribution(alice.UserID, lastMonth, models.ContributionPaid)

	// default period: current month through today
	report, err := CalculateAmount(db, testClock, g.ID, nil, nil)
	require.NoError(t, err)

	assert.True(t, report.PeriodStart.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(2), report.TotalContributions)
	assert.Equal(t, int64(1), report.PaidContributions)
	assert.Equal(t, float64(1000), report.AvailableForDistribution)
	assert.Equal(t, float64(2000), report.ExpectedTotal)
	assert.Equal(t, int64(2), report.ActiveMembers)
	assert.Equal(t, float64(50), report.ContributionRate)

	// explicit period picks up the february payment
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	report, err = CalculateAmount(db, testClock, g.ID, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.TotalContributions)
	assert.Equal(t, float64(1000), report.AvailableForDistribution)

	_, err = CalculateAmount(db, testClock, 999, nil, nil)
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestCalculateAmountDefaultPeriodBoundary(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	alice := seedMember(t, db, g.ID, "alice", 1)
	bob := seedMember(t, db, g.ID, "bob", 2)

	mkPaid := func(userID uint64, due time.Time) {
		c := models.Contribution{
			GroupID: g.ID,
			UserID:  userID,
			Amount:  1000,
			DueDate: due,
			Status:  models.ContributionPaid,
		}
		require.NoError(t, db.Create(&c).Error)
	}

	// one payment due today, one due tomorrow
	mkPaid(alice.UserID, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	mkPaid(bob.UserID, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))

	// the default period runs through today only
	report, err := CalculateAmount(db, testClock, g.ID, nil, nil)
	require.NoError(t, err)

	assert.True(t, report.PeriodEnd.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1), report.TotalContributions)
	assert.Equal(t, float64(1000), report.AvailableForDistribution)
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	alice := seedMember(t, db, g.ID, "alice", 1)
	seedMember(t, db, g.ID, "bob", 2)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		groupID       uint
		recipientID   uint64
		amount        float64
		expectedError error
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			groupID:       g.ID,
			recipientID:   alice.UserID,
			amount:        2000,
			expectedError: ErrDBNil,
		},
		{
			name:          "group not found",
			dbParam:       db,
			groupID:       999,
			recipientID:   alice.UserID,
			amount:        2000,
			expectedError: ErrGroupNotFound,
		},
		{
			name:          "recipient not an active member",
			dbParam:       db,
			groupID:       g.ID,
			recipientID:   999,
			amount:        2000,
			expectedError: ErrNotActiveMember,
		},
		{
			name:          "amount above one-cycle pool",
			dbParam:       db,
			groupID:       g.ID,
			recipientID:   alice.UserID,
			amount:        2001,
			expectedError: ErrExceedsMaximum,
		},
		{
			name:        "amount at the pool ceiling",
			dbParam:     db,
			groupID:     g.ID,
			recipientID: alice.UserID,
			amount:      2000,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Create(tc.dbParam, testClock, tc.groupID, tc.recipientID, tc.amount, nil, "first cycle")

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, d)
			} else {
				require.NoError(t, err)
				require.NotNil(t, d)
				assert.Equal(t, models.DistributionPending, d.Status)
				assert.Equal(t, "first cycle", d.Notes)
				assert.True(t, d.DistributionDate.Equal(clock.StartOfDay(testNow)))
			}
		})
	}
}

func TestComplete(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	alice := seedMember(t, db, g.ID, "alice", 1)

	d, err := Create(db, testClock, g.ID, alice.UserID, 1000, nil, "")
	require.NoError(t, err)

	done, err := Complete(db, d.ID, "TXN-100")
	require.NoError(t, err)
	assert.Equal(t, models.DistributionCompleted, done.Status)
	assert.Equal(t, "TXN-100", done.TransactionRef)

	// of two terminal transitions exactly one wins
	_, err = Complete(db, d.ID, "TXN-101")
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = Fail(db, d.ID, "late attempt")
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = Complete(db, 999, "TXN-102")
	require.ErrorIs(t, err, ErrDistributionNotFound)
}

func TestFail(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	alice := seedMember(t, db, g.ID, "alice", 1)

	d, err := Create(db, testClock, g.ID, alice.UserID, 1000, nil, "cycle one")
	require.NoError(t, err)

	failed, err := Fail(db, d.ID, "bank rejected the transfer")
	require.NoError(t, err)
	assert.Equal(t, models.DistributionFailed, failed.Status)

	// the reason is appended, not overwritten
	assert.Equal(t, "cycle one | FAILURE: bank rejected the transfer", failed.Notes)

	_, err = Fail(db, d.ID, "again")
	require.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestFailEmptyNotes(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)
	alice := seedMember(t, db, g.ID, "alice", 1)

	d, err := Create(db, testClock, g.ID, alice.UserID, 1000, nil, "")
	require.NoError(t, err)

	failed, err := Fail(db, d.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "FAILURE: Unspecified", failed.Notes)
}

func TestForGroupAndHistory(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	alice := seedMember(t, db, g.ID, "alice", 1)
	bob := seedMember(t, db, g.ID, "bob", 2)

	d1, err := Create(db, testClock, g.ID, alice.UserID, 1000, nil, "")
	require.NoError(t, err)
	_, err = Complete(db, d1.ID, "TXN-1")
	require.NoError(t, err)

	later := testNow.AddDate(0, 1, 0)
	_, err = Create(db, testClock, g.ID, bob.UserID, 1000, &later, "")
	require.NoError(t, err)

	rows, err := ForGroup(db, g.ID, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// most recent first, joined with recipient identity and position
	assert.Equal(t, bob.UserID, rows[0].RecipientID)
	assert.Equal(t, "bob", rows[0].FullName)
	require.NotNil(t, rows[0].PaymentPosition)
	assert.Equal(t, 2, *rows[0].PaymentPosition)

	completed := models.DistributionCompleted
	rows, err = ForGroup(db, g.ID, &completed)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, alice.UserID, rows[0].RecipientID)

	rows, err = History(db, g.ID, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, bob.UserID, rows[0].RecipientID)

	mine, err := ForUser(db, alice.UserID, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestSummarize(t *testing.T) {
	db := setupTestDB(t)
	g := seedGroup(t, db)

	alice := seedMember(t, db, g.ID, "alice", 1)
	bob := seedMember(t, db, g.ID, "bob", 2)
	carol := seedMember(t, db, g.ID, "carol", 3)

	d1, err := Create(db, testClock, g.ID, alice.UserID, 3000, nil, "")
	require.NoError(t, err)
	_, err = Complete(db, d1.ID, "TXN-1")
	require.NoError(t, err)

	_, err = Create(db, testClock, g.ID, bob.UserID, 2000, nil, "")
	require.NoError(t, err)

	d3, err := Create(db, testClock, g.ID, carol.UserID, 1000, nil, "")
	require.NoError(t, err)
	_, err = Fail(db, d3.ID, "no funds")
	require.NoError(t, err)

	s, err := Summarize(db, g.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), s.TotalDistributions)
	assert.Equal(t, int64(1), s.CompletedDistributions)
	assert.Equal(t, int64(1), s.PendingDistributions)
	assert.Equal(t, int64(1), s.FailedDistributions)
	assert.Equal(t, float64(3000), s.TotalDistributed)
	assert.Equal(t, float64(2000), s.TotalPending)
}
