package booking

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/parkwise/parkwise/internal/apiserver/database"
	"github.com/parkwise/parkwise/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SystemUsername is the reserved user identity that carries bookings created
// by administrative overrides.
const SystemUsername = "system"

// Manager owns the state transitions of parking spots coupled to the
// lifecycle of booking records. Every operation runs its reads and writes
// inside one database transaction; the spot occupy step is a conditional
// update so that two concurrent reservations of the same spot cannot both
// commit.
type Manager struct {
	db          database.Database
	logger      *zap.Logger
	metrics     *metrics.Metrics
	defaultRate float64

	now func() time.Time
}

// NewManager creates a booking lifecycle manager. defaultRate is billed when
// a lot's configured hourly rate is unusable. metrics may be nil.
func NewManager(db database.Database, logger *zap.Logger, defaultRate float64, m *metrics.Metrics) *Manager {
	return &Manager{
		db:          db,
		logger:      logger.Named("booking"),
		metrics:     m,
		defaultRate: defaultRate,
		now:         time.Now,
	}
}

// Reserve creates an active booking for the given user on the given spot.
// vehicleID may be nil; when set, the vehicle must belong to the user and
// its plate is recorded on the booking.
func (m *Manager) Reserve(ctx context.Context, userID, spotID uint, vehicleID *uint) (*database.Booking, error) {
	start := m.now()
	var booked *database.Booking
	err := m.db.Transaction(ctx, func(ctx context.Context) error {
		vehicleReg, err := m.resolveVehicle(ctx, userID, vehicleID)
		if err != nil {
			return err
		}
		if err := m.checkNoActiveBooking(ctx, userID); err != nil {
			return err
		}
		spot, err := m.db.GetSpot(ctx, spotID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		booked, err = m.occupy(ctx, userID, spot, vehicleID, vehicleReg)
		return err
	})
	m.observe("reserve", start, err)
	if err != nil {
		return nil, err
	}
	m.logger.Info("spot reserved",
		zap.Uint("user_id", userID),
		zap.Uint("spot_id", spotID),
		zap.String("reference", booked.Reference))
	return booked, nil
}

// ReserveInLot reserves the lowest-numbered available spot in the lot.
func (m *Manager) ReserveInLot(ctx context.Context, userID, lotID uint, vehicleID *uint) (*database.Booking, error) {
	start := m.now()
	var booked *database.Booking
	err := m.db.Transaction(ctx, func(ctx context.Context) error {
		vehicleReg, err := m.resolveVehicle(ctx, userID, vehicleID)
		if err != nil {
			return err
		}
		if err := m.checkNoActiveBooking(ctx, userID); err != nil {
			return err
		}
		if _, err := m.db.GetLot(ctx, lotID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		spot, err := m.db.FirstAvailableSpot(ctx, lotID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrNoSpotsAvailable
			}
			return err
		}
		booked, err = m.occupy(ctx, userID, spot, vehicleID, vehicleReg)
		return err
	})
	m.observe("reserve", start, err)
	if err != nil {
		return nil, err
	}
	m.logger.Info("spot reserved in lot",
		zap.Uint("user_id", userID),
		zap.Uint("lot_id", lotID),
		zap.Uint("spot_id", booked.SpotID),
		zap.String("reference", booked.Reference))
	return booked, nil
}

// Release ends an active booking: it stamps the leaving time, bills the
// elapsed fractional hours at the lot's rate and frees the spot. Releasing
// a non-active booking fails with ErrInvalidState and changes nothing.
func (m *Manager) Release(ctx context.Context, bookingID uint) (*database.Booking, error) {
	start := m.now()
	var released *database.Booking
	err := m.db.Transaction(ctx, func(ctx context.Context) error {
		b, err := m.db.GetBooking(ctx, bookingID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		released, err = m.release(ctx, b)
		return err
	})
	m.observe("release", start, err)
	if err != nil {
		return nil, err
	}
	m.logger.Info("booking released",
		zap.Uint("booking_id", released.ID),
		zap.Float64("total_cost", *released.TotalCost))
	return released, nil
}

// Cancel voids an active booking without billing: status becomes cancelled,
// the leaving timestamp and cost stay unset, the spot is freed.
func (m *Manager) Cancel(ctx context.Context, bookingID uint) (*database.Booking, error) {
	start := m.now()
	var cancelled *database.Booking
	err := m.db.Transaction(ctx, func(ctx context.Context) error {
		b, err := m.db.GetBooking(ctx, bookingID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if b.Status != database.BookingActive {
			return ErrInvalidState
		}
		b.Status = database.BookingCancelled
		if err := m.db.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if err := m.freeSpot(ctx, b.SpotID); err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	m.observe("cancel", start, err)
	if err != nil {
		return nil, err
	}
	m.logger.Info("booking cancelled", zap.Uint("booking_id", cancelled.ID))
	return cancelled, nil
}

// AdminOverrideOccupy marks a spot occupied outside the normal user flow.
// The booking is carried by the reserved system user with a free-text
// vehicle registration; the one-active-booking rule does not apply.
func (m *Manager) AdminOverrideOccupy(ctx context.Context, spotID uint, vehicleReg string) (*database.Booking, error) {
	start := m.now()
	var booked *database.Booking
	err := m.db.Transaction(ctx, func(ctx context.Context) error {
		sys, err := m.db.GetUserByUsername(ctx, SystemUsername)
		if err != nil {
			return err
		}
		spot, err := m.db.GetSpot(ctx, spotID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		booked, err = m.occupy(ctx, sys.ID, spot, nil, vehicleReg)
		return err
	})
	m.observe("admin_occupy", start, err)
	if err != nil {
		return nil, err
	}
	m.logger.Info("spot occupied by override",
		zap.Uint("spot_id", spotID),
		zap.String("vehicle_reg", vehicleReg))
	return booked, nil
}

// AdminOverrideRelease frees a spot outside the normal user flow. When an
// active booking occupies the spot it is released and billed as usual;
// a spot occupied without a booking is simply made available again.
func (m *Manager) AdminOverrideRelease(ctx context.Context, spotID uint) (*database.Booking, error) {
	start := m.now()
	var released *database.Booking
	err := m.db.Transaction(ctx, func(ctx context.Context) error {
		if _, err := m.db.GetSpot(ctx, spotID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		b, err := m.db.GetActiveBookingBySpot(ctx, spotID)
		if err == nil {
			released, err = m.release(ctx, b)
			return err
		}
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}
		// No booking on record; the spot itself must still be occupied.
		rows, err := m.db.SetSpotAvailability(ctx, spotID, false, true)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInvalidState
		}
		spot, err := m.db.GetSpot(ctx, spotID)
		if err != nil {
			return err
		}
		return m.db.RecalculateLotAvailability(ctx, spot.LotID)
	})
	m.observe("admin_release", start, err)
	if err != nil {
		return nil, err
	}
	m.logger.Info("spot released by override", zap.Uint("spot_id", spotID))
	return released, nil
}

// Quote returns the elapsed hours and the cost an active booking would be
// billed if it were released at the given instant. Nothing is mutated.
func (m *Manager) Quote(ctx context.Context, b *database.Booking, at time.Time) (hours, cost float64, err error) {
	if b.Status != database.BookingActive {
		return 0, 0, ErrInvalidState
	}
	spot, err := m.db.GetSpot(ctx, b.SpotID)
	if err != nil {
		return 0, 0, err
	}
	hours = elapsedHours(b.ParkingTimestamp, at)
	cost = round2(hours * m.hourlyRate(ctx, spot.LotID))
	return hours, cost, nil
}

// resolveVehicle validates ownership of the referenced vehicle and returns
// its plate as the booking's registration text. A nil reference is the
// legacy free-text path and yields an empty registration.
func (m *Manager) resolveVehicle(ctx context.Context, userID uint, vehicleID *uint) (string, error) {
	if vehicleID == nil {
		return "", nil
	}
	v, err := m.db.GetVehicleByID(ctx, *vehicleID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if v.UserID != userID {
		return "", ErrNotFound
	}
	return v.LicensePlate, nil
}

func (m *Manager) checkNoActiveBooking(ctx context.Context, userID uint) error {
	_, err := m.db.GetActiveBookingByUser(ctx, userID)
	if err == nil {
		return ErrActiveBookingExists
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	return err
}

// occupy performs the guarded check-then-set on the spot and writes the
// booking row. Zero rows affected means the spot was taken concurrently.
func (m *Manager) occupy(ctx context.Context, userID uint, spot *database.ParkingSpot, vehicleID *uint, vehicleReg string) (*database.Booking, error) {
	rows, err := m.db.SetSpotAvailability(ctx, spot.ID, true, false)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrSpotUnavailable
	}
	b := &database.Booking{
		Reference:        uuid.NewString(),
		UserID:           userID,
		SpotID:           spot.ID,
		VehicleID:        vehicleID,
		VehicleReg:       vehicleReg,
		ParkingTimestamp: m.now().UTC(),
		Status:           database.BookingActive,
	}
	if err := m.db.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	if err := m.db.RecalculateLotAvailability(ctx, spot.LotID); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *Manager) release(ctx context.Context, b *database.Booking) (*database.Booking, error) {
	if b.Status != database.BookingActive {
		return nil, ErrInvalidState
	}
	spot, err := m.db.GetSpot(ctx, b.SpotID)
	if err != nil {
		return nil, err
	}
	leaving := m.now().UTC()
	cost := round2(elapsedHours(b.ParkingTimestamp, leaving) * m.hourlyRate(ctx, spot.LotID))

	b.LeavingTimestamp = &leaving
	b.TotalCost = &cost
	b.Status = database.BookingCompleted
	if err := m.db.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}
	if err := m.freeSpot(ctx, b.SpotID); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *Manager) freeSpot(ctx context.Context, spotID uint) error {
	if _, err := m.db.SetSpotAvailability(ctx, spotID, false, true); err != nil {
		return err
	}
	spot, err := m.db.GetSpot(ctx, spotID)
	if err != nil {
		return err
	}
	return m.db.RecalculateLotAvailability(ctx, spot.LotID)
}

// hourlyRate reads the lot's configured rate, falling back to the default
// when the lot row is unreadable or its rate is not usable.
func (m *Manager) hourlyRate(ctx context.Context, lotID uint) float64 {
	lot, err := m.db.GetLot(ctx, lotID)
	if err != nil || lot.HourlyRate <= 0 {
		m.logger.Warn("falling back to default hourly rate",
			zap.Uint("lot_id", lotID),
			zap.Error(err))
		return m.defaultRate
	}
	return lot.HourlyRate
}

func (m *Manager) observe(op string, start time.Time, err error) {
	if m.metrics == nil {
		return
	}
	status := "success"
	switch {
	case IsConflict(err):
		status = "conflict"
	case IsInvalidState(err):
		status = "invalid_state"
	case IsNotFound(err):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	m.metrics.ObserveBooking(op, status, m.now().Sub(start))
}

// elapsedHours returns the fractional hours between two instants, never
// negative.
func elapsedHours(from, to time.Time) float64 {
	h := to.Sub(from).Hours()
	if h < 0 {
		return 0
	}
	return h
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
