package booking

import (
	"context"
	"testing"
	"time"

	"github.com/parkwise/parkwise/internal/apiserver/database"
	"github.com/parkwise/parkwise/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) database.Database {
	t.Helper()
	cfg := &config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"}
	db, err := database.NewSQLite(cfg)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestManager(t *testing.T, db database.Database) *Manager {
	t.Helper()
	return NewManager(db, zap.NewNop(), 2.00, nil)
}

// seedLot creates a lot with the given number of spots and returns it with
// its spots in spot-number order.
func seedLot(t *testing.T, db database.Database, rate float64, spots int) (*database.ParkingLot, []*database.ParkingSpot) {
	t.Helper()
	ctx := context.Background()
	lot := &database.ParkingLot{
		Name:           "Central",
		Address:        "1 Main St",
		PinCode:        "560001",
		HourlyRate:     rate,
		TotalSpots:     spots,
		AvailableSpots: spots,
	}
	require.NoError(t, db.CreateLot(ctx, lot))
	rows := make([]*database.ParkingSpot, 0, spots)
	for i := 1; i <= spots; i++ {
		rows = append(rows, &database.ParkingSpot{
			LotID:       lot.ID,
			SpotNumber:  i,
			SpotType:    database.SpotStandard,
			IsAvailable: true,
		})
	}
	require.NoError(t, db.CreateSpots(ctx, rows))
	return lot, rows
}

func seedUser(t *testing.T, db database.Database, username string) *database.User {
	t.Helper()
	u := &database.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		IsActive: true,
	}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func TestReserveHappyPath(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	lot, spots := seedLot(t, db, 2.50, 10)
	u := seedUser(t, db, "alice")

	b, err := m.Reserve(ctx, u.ID, spots[2].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, database.BookingActive, b.Status)
	assert.Nil(t, b.LeavingTimestamp)
	assert.Nil(t, b.TotalCost)
	assert.NotEmpty(t, b.Reference)

	spot, err := db.GetSpot(ctx, spots[2].ID)
	require.NoError(t, err)
	assert.False(t, spot.IsAvailable)

	got, err := db.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.AvailableSpots)
}

func TestReserveConflictOnSameSpot(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	_, spots := seedLot(t, db, 2.50, 3)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	_, err := m.Reserve(ctx, alice.ID, spots[0].ID, nil)
	require.NoError(t, err)

	_, err = m.Reserve(ctx, bob.ID, spots[0].ID, nil)
	assert.ErrorIs(t, err, ErrSpotUnavailable)
	assert.True(t, IsConflict(err))
}

func TestReserveConflictOnSecondActiveBooking(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	_, spots := seedLot(t, db, 2.50, 3)
	alice := seedUser(t, db, "alice")

	_, err := m.Reserve(ctx, alice.ID, spots[0].ID, nil)
	require.NoError(t, err)

	_, err = m.Reserve(ctx, alice.ID, spots[1].ID, nil)
	assert.ErrorIs(t, err, ErrActiveBookingExists)
}

func TestReserveUnknownSpot(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)

	alice := seedUser(t, db, "alice")
	_, err := m.Reserve(context.Background(), alice.ID, 9999, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveWithVehicle(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	_, spots := seedLot(t, db, 2.50, 3)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	v := &database.Vehicle{UserID: alice.ID, LicensePlate: "KA01AB1234", Model: "Civic"}
	require.NoError(t, db.CreateVehicle(ctx, v))

	b, err := m.Reserve(ctx, alice.ID, spots[0].ID, &v.ID)
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", b.VehicleReg)
	require.NotNil(t, b.VehicleID)
	assert.Equal(t, v.ID, *b.VehicleID)

	// A vehicle that belongs to someone else is treated as missing.
	_, err = m.Reserve(ctx, bob.ID, spots[1].ID, &v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveInLotPicksLowestNumberedSpot(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	lot, spots := seedLot(t, db, 2.50, 3)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	b1, err := m.ReserveInLot(ctx, alice.ID, lot.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, spots[0].ID, b1.SpotID)

	b2, err := m.ReserveInLot(ctx, bob.ID, lot.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, spots[1].ID, b2.SpotID)
}

func TestReserveInLotFullLot(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	lot, _ := seedLot(t, db, 2.50, 1)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	_, err := m.ReserveInLot(ctx, alice.ID, lot.ID, nil)
	require.NoError(t, err)

	_, err = m.ReserveInLot(ctx, bob.ID, lot.ID, nil)
	assert.ErrorIs(t, err, ErrNoSpotsAvailable)
	assert.True(t, IsConflict(err))
}

func TestReleaseBillsElapsedHours(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	lot, spots := seedLot(t, db, 2.50, 10)
	alice := seedUser(t, db, "alice")

	parkedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return parkedAt }
	b, err := m.Reserve(ctx, alice.ID, spots[0].ID, nil)
	require.NoError(t, err)

	// 2h30m at 2.50/hr comes to 6.25.
	m.now = func() time.Time { return parkedAt.Add(2*time.Hour + 30*time.Minute) }
	released, err := m.Release(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, database.BookingCompleted, released.Status)
	require.NotNil(t, released.TotalCost)
	assert.InDelta(t, 6.25, *released.TotalCost, 1e-9)
	require.NotNil(t, released.LeavingTimestamp)
	assert.Equal(t, parkedAt.Add(2*time.Hour+30*time.Minute), released.LeavingTimestamp.UTC())

	spot, err := db.GetSpot(ctx, spots[0].ID)
	require.NoError(t, err)
	assert.True(t, spot.IsAvailable)

	got, err := db.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.AvailableSpots)
}

func TestReleaseZeroDurationCostsNothing(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	_, spots := seedLot(t, db, 2.50, 2)
	alice := seedUser(t, db, "alice")

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }
	b, err := m.Reserve(ctx, alice.ID, spots[0].ID, nil)
	require.NoError(t, err)

	released, err := m.Release(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, released.TotalCost)
	assert.Equal(t, 0.0, *released.TotalCost)
}

func TestReleaseFallsBackToDefaultRate(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	// Rate of zero is unusable; the configured default of 2.00 applies.
	_, spots := seedLot(t, db, 0, 2)
	alice := seedUser(t, db, "alice")

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }
	b, err := m.Reserve(ctx, alice.ID, spots[0].ID, nil)
	require.NoError(t, err)

	m.now = func() time.Time { return at.Add(time.Hour) }
	released, err := m.Release(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, released.TotalCost)
	assert.InDelta(t, 2.00, *released.TotalCost, 1e-9)
}

func TestReleaseTwiceFailsWithoutStateChange(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	lot, spots := seedLot(t, db, 2.50, 2)
	alice := seedUser(t, db, "alice")

	b, err := m.Reserve(ctx, alice.ID, spots[0].ID, nil)
	require.NoError(t, err)
	first, err := m.Release(ctx, b.ID)
	require.NoError(t, err)

	_, err = m.Release(ctx, b.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Nothing moved on the failed second release.
	again, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, again.Status)
	assert.Equal(t, *first.TotalCost, *again.TotalCost)
	got, err := db.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSpots)
}

func TestCancelRestoresAvailabilityWithoutBilling(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	lot, spots := seedLot(t, db, 2.50, 5)
	alice := seedUser(t, db, "alice")

	b, err := m.Reserve(ctx, alice.ID, spots[1].ID, nil)
	require.NoError(t, err)

	cancelled, err := m.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, database.BookingCancelled, cancelled.Status)
	assert.Nil(t, cancelled.TotalCost)
	assert.Nil(t, cancelled.LeavingTimestamp)

	spot, err := db.GetSpot(ctx, spots[1].ID)
	require.NoError(t, err)
	assert.True(t, spot.IsAvailable)
	got, err := db.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.AvailableSpots)

	_, err = m.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSpotAvailabilityMatchesActiveBookings(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	lot, spots := seedLot(t, db, 2.50, 4)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	ba, err := m.Reserve(ctx, alice.ID, spots[0].ID, nil)
	require.NoError(t, err)
	_, err = m.Reserve(ctx, bob.ID, spots[2].ID, nil)
	require.NoError(t, err)

	for _, s := range spots {
		spot, err := db.GetSpot(ctx, s.ID)
		require.NoError(t, err)
		_, err = db.GetActiveBookingBySpot(ctx, s.ID)
		hasActive := err == nil
		assert.Equal(t, !spot.IsAvailable, hasActive, "spot %d", s.SpotNumber)
	}

	_, err = m.Release(ctx, ba.ID)
	require.NoError(t, err)
	got, err := db.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableSpots)
}

func TestAdminOverrideOccupyAndRelease(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	lot, spots := seedLot(t, db, 3.00, 2)
	seedUser(t, db, SystemUsername)
	alice := seedUser(t, db, "alice")

	// Alice already parks elsewhere; the override is not bound by the
	// one-active-booking rule because it books as the system user.
	_, err := m.Reserve(ctx, alice.ID, spots[1].ID, nil)
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }
	b, err := m.AdminOverrideOccupy(ctx, spots[0].ID, "MH12XY9999")
	require.NoError(t, err)
	assert.Equal(t, "MH12XY9999", b.VehicleReg)
	assert.Nil(t, b.VehicleID)

	got, err := db.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSpots)

	m.now = func() time.Time { return at.Add(time.Hour) }
	released, err := m.AdminOverrideRelease(ctx, spots[0].ID)
	require.NoError(t, err)
	require.NotNil(t, released)
	require.NotNil(t, released.TotalCost)
	assert.InDelta(t, 3.00, *released.TotalCost, 1e-9)

	got, err = db.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableSpots)
}

func TestAdminOverrideReleaseWithoutBooking(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	_, spots := seedLot(t, db, 3.00, 1)

	// Releasing an already-free spot is a state violation.
	_, err := m.AdminOverrideRelease(ctx, spots[0].ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// A spot flagged occupied with no booking on record is freed silently.
	rows, err := db.SetSpotAvailability(ctx, spots[0].ID, true, false)
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)

	released, err := m.AdminOverrideRelease(ctx, spots[0].ID)
	require.NoError(t, err)
	assert.Nil(t, released)
	spot, err := db.GetSpot(ctx, spots[0].ID)
	require.NoError(t, err)
	assert.True(t, spot.IsAvailable)
}

func TestQuoteDoesNotMutate(t *testing.T) {
	db := newTestDB(t)
	m := newTestManager(t, db)
	ctx := context.Background()

	_, spots := seedLot(t, db, 2.50, 1)
	alice := seedUser(t, db, "alice")

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }
	b, err := m.Reserve(ctx, alice.ID, spots[0].ID, nil)
	require.NoError(t, err)

	hours, cost, err := m.Quote(ctx, b, at.Add(90*time.Minute))
	require.NoError(t, err)
	assert.InDelta(t, 1.5, hours, 1e-9)
	assert.InDelta(t, 3.75, cost, 1e-9)

	again, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, database.BookingActive, again.Status)
	assert.Nil(t, again.TotalCost)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 6.25, round2(2.5*2.50))
	assert.Equal(t, 0.0, round2(0))
	assert.Equal(t, 1.67, round2(1.6666666))
}
