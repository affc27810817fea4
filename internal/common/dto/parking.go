package dto

import "time"

// CreateVehicleRequest represents a request to register a vehicle
type CreateVehicleRequest struct {
	LicensePlate string `json:"licensePlate" binding:"required"`
	Model        string `json:"model"`
	VehicleType  string `json:"vehicleType"`
	Color        string `json:"color"`
}

// CreateLotRequest represents a request to create a parking lot with its spots
type CreateLotRequest struct {
	Name       string  `json:"name" binding:"required"`
	Address    string  `json:"address" binding:"required"`
	PinCode    string  `json:"pinCode" binding:"required"`
	HourlyRate float64 `json:"hourlyRate" binding:"min=0"`
	MaxSpots   int     `json:"maxSpots" binding:"required,min=1"`
}

// UpdateLotRequest represents a request to update a parking lot. Changing
// MaxSpots grows or shrinks the lot's spot rows.
type UpdateLotRequest struct {
	Name       string  `json:"name" binding:"required"`
	Address    string  `json:"address" binding:"required"`
	PinCode    string  `json:"pinCode" binding:"required"`
	HourlyRate float64 `json:"hourlyRate" binding:"min=0"`
	MaxSpots   int     `json:"maxSpots" binding:"required,min=1"`
}

// CreateBookingRequest reserves a specific spot or the first free spot of a
// lot; exactly one of SpotID and LotID must be set.
type CreateBookingRequest struct {
	SpotID    uint  `json:"spotId"`
	LotID     uint  `json:"lotId"`
	VehicleID *uint `json:"vehicleId"`
}

// OverrideOccupyRequest marks a spot occupied outside the normal user flow
type OverrideOccupyRequest struct {
	VehicleReg string `json:"vehicleReg" binding:"required"`
}

// BookingDetail wraps a booking with its live quote while active
type BookingDetail struct {
	ID               uint       `json:"id"`
	Reference        string     `json:"reference"`
	UserID           uint       `json:"userId"`
	SpotID           uint       `json:"spotId"`
	VehicleID        *uint      `json:"vehicleId,omitempty"`
	VehicleReg       string     `json:"vehicleReg,omitempty"`
	ParkingTimestamp time.Time  `json:"parkingTimestamp"`
	LeavingTimestamp *time.Time `json:"leavingTimestamp,omitempty"`
	TotalCost        *float64   `json:"totalCost,omitempty"`
	Status           string     `json:"status"`
	CurrentHours     *float64   `json:"currentHours,omitempty"`
	CurrentCost      *float64   `json:"currentCost,omitempty"`
}

// MonthlyStat is one month of a user's completed parking activity
type MonthlyStat struct {
	Month     string  `json:"month"`
	Count     int     `json:"count"`
	TotalCost float64 `json:"totalCost"`
}
