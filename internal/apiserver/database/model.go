package database

import "time"

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// SpotType represents the category of a parking spot
type SpotType string

const (
	SpotStandard SpotType = "standard"
	SpotDisabled SpotType = "disabled"
	SpotElectric SpotType = "electric"
)

// User represents a registered customer
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"type:varchar(120);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"` // bcrypt hash, never exposed in JSON
	FullName  string    `json:"fullName" gorm:"type:varchar(100)"`
	Address   string    `json:"address" gorm:"type:varchar(200)"`
	PinCode   string    `json:"pinCode" gorm:"type:varchar(10)"`
	Phone     string    `json:"phone" gorm:"type:varchar(20)"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Admin represents an administrator. Admins are a separate principal type
// from users, not a role flag.
type Admin struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Vehicle represents a vehicle owned by a user
type Vehicle struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       uint      `json:"userId" gorm:"index;not null"`
	LicensePlate string    `json:"licensePlate" gorm:"type:varchar(20);uniqueIndex;not null"`
	Model        string    `json:"model" gorm:"type:varchar(100)"`
	VehicleType  string    `json:"vehicleType" gorm:"type:varchar(20);default:'standard'"`
	Color        string    `json:"color" gorm:"type:varchar(20)"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ParkingLot represents a named collection of spots at one location.
// AvailableSpots is derived state, recomputed from the spot table inside
// every mutating transaction.
type ParkingLot struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name           string    `json:"name" gorm:"type:varchar(100);not null"`
	Address        string    `json:"address" gorm:"type:varchar(200);not null"`
	PinCode        string    `json:"pinCode" gorm:"type:varchar(20);not null"`
	HourlyRate     float64   `json:"hourlyRate" gorm:"not null;default:0"`
	TotalSpots     int       `json:"totalSpots" gorm:"not null;default:0"`
	AvailableSpots int       `json:"availableSpots" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ParkingSpot represents a single parking space, unique within its lot
type ParkingSpot struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	LotID       uint      `json:"lotId" gorm:"uniqueIndex:idx_lot_spot;not null"`
	SpotNumber  int       `json:"spotNumber" gorm:"uniqueIndex:idx_lot_spot;not null"`
	SpotType    SpotType  `json:"spotType" gorm:"type:varchar(20);not null;default:'standard'"`
	IsAvailable bool      `json:"isAvailable" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Booking represents the occupation of a spot by a user for a span of time.
// LeavingTimestamp is nil exactly while the booking is active; TotalCost is
// set only when the booking completes. Bookings are never deleted.
type Booking struct {
	ID               uint          `json:"id" gorm:"primaryKey;autoIncrement"`
	Reference        string        `json:"reference" gorm:"type:varchar(36);uniqueIndex"`
	UserID           uint          `json:"userId" gorm:"index;not null"`
	SpotID           uint          `json:"spotId" gorm:"index;not null"`
	VehicleID        *uint         `json:"vehicleId"`
	VehicleReg       string        `json:"vehicleReg" gorm:"type:varchar(20)"`
	ParkingTimestamp time.Time     `json:"parkingTimestamp" gorm:"not null"`
	LeavingTimestamp *time.Time    `json:"leavingTimestamp"`
	TotalCost        *float64      `json:"totalCost"`
	Status           BookingStatus `json:"status" gorm:"type:varchar(20);index;not null;default:'active'"`
	CreatedAt        time.Time     `json:"createdAt"`
}
