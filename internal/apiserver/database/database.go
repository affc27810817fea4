package database

import (
	"context"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// Database defines the methods for database operations.
type Database interface {
	// Close closes the database connection.
	Close() error

	// Transaction runs fn inside a single database transaction. The
	// context passed to fn carries the transaction; every Database method
	// called with it joins the same transaction.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// CreateUser creates a new user.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID gets a user by ID.
	GetUserByID(ctx context.Context, id uint) (*User, error)

	// GetUserByUsername gets a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByEmail gets a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsers lists all users.
	ListUsers(ctx context.Context) ([]*User, error)

	// UpdateUser updates an existing user.
	UpdateUser(ctx context.Context, user *User) error

	// CountUsers counts all users.
	CountUsers(ctx context.Context) (int64, error)

	// CreateAdmin creates a new administrator.
	CreateAdmin(ctx context.Context, admin *Admin) error

	// GetAdminByUsername gets an administrator by username.
	GetAdminByUsername(ctx context.Context, username string) (*Admin, error)

	// UpdateAdmin updates an existing administrator.
	UpdateAdmin(ctx context.Context, admin *Admin) error

	// CreateVehicle creates a new vehicle.
	CreateVehicle(ctx context.Context, vehicle *Vehicle) error

	// GetVehicleByID gets a vehicle by ID.
	GetVehicleByID(ctx context.Context, id uint) (*Vehicle, error)

	// GetVehicleByPlate gets a vehicle by license plate.
	GetVehicleByPlate(ctx context.Context, plate string) (*Vehicle, error)

	// ListVehiclesByUser lists the vehicles owned by a user.
	ListVehiclesByUser(ctx context.Context, userID uint) ([]*Vehicle, error)

	// DeleteVehicle deletes a vehicle.
	DeleteVehicle(ctx context.Context, id uint) error

	// CreateLot creates a new parking lot.
	CreateLot(ctx context.Context, lot *ParkingLot) error

	// GetLot gets a parking lot by ID.
	GetLot(ctx context.Context, id uint) (*ParkingLot, error)

	// ListLots lists all parking lots.
	ListLots(ctx context.Context) ([]*ParkingLot, error)

	// UpdateLot updates an existing parking lot.
	UpdateLot(ctx context.Context, lot *ParkingLot) error

	// DeleteLot deletes a parking lot and its spots.
	DeleteLot(ctx context.Context, id uint) error

	// CountLots counts all parking lots.
	CountLots(ctx context.Context) (int64, error)

	// RecalculateLotAvailability settles a lot's available-spot counter
	// against the spot table.
	RecalculateLotAvailability(ctx context.Context, lotID uint) error

	// CreateSpots creates parking spots in bulk.
	CreateSpots(ctx context.Context, spots []*ParkingSpot) error

	// GetSpot gets a parking spot by ID.
	GetSpot(ctx context.Context, id uint) (*ParkingSpot, error)

	// ListSpotsByLot lists a lot's spots ordered by spot number.
	ListSpotsByLot(ctx context.Context, lotID uint) ([]*ParkingSpot, error)

	// FirstAvailableSpot returns the lowest-numbered available spot in a lot.
	FirstAvailableSpot(ctx context.Context, lotID uint) (*ParkingSpot, error)

	// SetSpotAvailability flips a spot's availability flag with a guard on
	// its expected prior state. Returns the number of rows affected; zero
	// means the spot was not in the expected state.
	SetSpotAvailability(ctx context.Context, spotID uint, from, to bool) (int64, error)

	// DeleteSpot deletes a parking spot.
	DeleteSpot(ctx context.Context, id uint) error

	// CountSpots counts all parking spots.
	CountSpots(ctx context.Context) (int64, error)

	// CountAvailableSpots counts all available parking spots.
	CountAvailableSpots(ctx context.Context) (int64, error)

	// CountOccupiedSpotsByLot counts a lot's occupied spots.
	CountOccupiedSpotsByLot(ctx context.Context, lotID uint) (int64, error)

	// CreateBooking creates a new booking.
	CreateBooking(ctx context.Context, booking *Booking) error

	// GetBooking gets a booking by ID.
	GetBooking(ctx context.Context, id uint) (*Booking, error)

	// GetActiveBookingByUser gets a user's active booking, if any.
	GetActiveBookingByUser(ctx context.Context, userID uint) (*Booking, error)

	// GetActiveBookingBySpot gets the active booking occupying a spot, if any.
	GetActiveBookingBySpot(ctx context.Context, spotID uint) (*Booking, error)

	// ListBookingsByUser lists a user's bookings, newest first.
	ListBookingsByUser(ctx context.Context, userID uint) ([]*Booking, error)

	// ListCompletedBookingsByUser lists a user's completed bookings ordered
	// by parking time.
	ListCompletedBookingsByUser(ctx context.Context, userID uint) ([]*Booking, error)

	// UpdateBooking updates an existing booking.
	UpdateBooking(ctx context.Context, booking *Booking) error

	// CountBookings counts all bookings.
	CountBookings(ctx context.Context) (int64, error)
}
