package database

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// gormStore implements Database on top of a gorm connection. The sqlite,
// mysql and postgres types embed it; only connection setup differs per
// driver.
type gormStore struct {
	db *gorm.DB
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Admin{},
		&Vehicle{},
		&ParkingLot{},
		&ParkingSpot{},
		&Booking{},
	)
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *gormStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTransaction(ctx, tx))
	})
}

func (s *gormStore) CreateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, s.db).Create(user).Error
}

func (s *gormStore) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := getDBFromContext(ctx, s.db).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := getDBFromContext(ctx, s.db).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := getDBFromContext(ctx, s.db).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := getDBFromContext(ctx, s.db).
		Order("username asc").
		Find(&users).Error
	return users, err
}

func (s *gormStore) UpdateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, s.db).Save(user).Error
}

func (s *gormStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).Model(&User{}).Count(&count).Error
	return count, err
}

func (s *gormStore) CreateAdmin(ctx context.Context, admin *Admin) error {
	return getDBFromContext(ctx, s.db).Create(admin).Error
}

func (s *gormStore) GetAdminByUsername(ctx context.Context, username string) (*Admin, error) {
	var admin Admin
	err := getDBFromContext(ctx, s.db).
		Where("username = ?", username).
		First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *gormStore) UpdateAdmin(ctx context.Context, admin *Admin) error {
	return getDBFromContext(ctx, s.db).Save(admin).Error
}

func (s *gormStore) CreateVehicle(ctx context.Context, vehicle *Vehicle) error {
	return getDBFromContext(ctx, s.db).Create(vehicle).Error
}

func (s *gormStore) GetVehicleByID(ctx context.Context, id uint) (*Vehicle, error) {
	var vehicle Vehicle
	if err := getDBFromContext(ctx, s.db).First(&vehicle, id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (s *gormStore) GetVehicleByPlate(ctx context.Context, plate string) (*Vehicle, error) {
	var vehicle Vehicle
	err := getDBFromContext(ctx, s.db).
		Where("license_plate = ?", plate).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (s *gormStore) ListVehiclesByUser(ctx context.Context, userID uint) ([]*Vehicle, error) {
	var vehicles []*Vehicle
	err := getDBFromContext(ctx, s.db).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&vehicles).Error
	return vehicles, err
}

func (s *gormStore) DeleteVehicle(ctx context.Context, id uint) error {
	return getDBFromContext(ctx, s.db).Delete(&Vehicle{}, id).Error
}

func (s *gormStore) CreateLot(ctx context.Context, lot *ParkingLot) error {
	return getDBFromContext(ctx, s.db).Create(lot).Error
}

func (s *gormStore) GetLot(ctx context.Context, id uint) (*ParkingLot, error) {
	var lot ParkingLot
	if err := getDBFromContext(ctx, s.db).First(&lot, id).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (s *gormStore) ListLots(ctx context.Context) ([]*ParkingLot, error) {
	var lots []*ParkingLot
	err := getDBFromContext(ctx, s.db).
		Order("name asc").
		Find(&lots).Error
	return lots, err
}

func (s *gormStore) UpdateLot(ctx context.Context, lot *ParkingLot) error {
	return getDBFromContext(ctx, s.db).Save(lot).Error
}

func (s *gormStore) DeleteLot(ctx context.Context, id uint) error {
	db := getDBFromContext(ctx, s.db)
	if err := db.Where("lot_id = ?", id).Delete(&ParkingSpot{}).Error; err != nil {
		return err
	}
	return db.Delete(&ParkingLot{}, id).Error
}

func (s *gormStore) CountLots(ctx context.Context) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).Model(&ParkingLot{}).Count(&count).Error
	return count, err
}

func (s *gormStore) RecalculateLotAvailability(ctx context.Context, lotID uint) error {
	db := getDBFromContext(ctx, s.db)
	var available int64
	err := db.Model(&ParkingSpot{}).
		Where("lot_id = ? AND is_available = ?", lotID, true).
		Count(&available).Error
	if err != nil {
		return err
	}
	return db.Model(&ParkingLot{}).
		Where("id = ?", lotID).
		Updates(map[string]interface{}{
			"available_spots": available,
			"updated_at":      time.Now(),
		}).Error
}

func (s *gormStore) CreateSpots(ctx context.Context, spots []*ParkingSpot) error {
	if len(spots) == 0 {
		return nil
	}
	return getDBFromContext(ctx, s.db).Create(spots).Error
}

func (s *gormStore) GetSpot(ctx context.Context, id uint) (*ParkingSpot, error) {
	var spot ParkingSpot
	if err := getDBFromContext(ctx, s.db).First(&spot, id).Error; err != nil {
		return nil, err
	}
	return &spot, nil
}

func (s *gormStore) ListSpotsByLot(ctx context.Context, lotID uint) ([]*ParkingSpot, error) {
	var spots []*ParkingSpot
	err := getDBFromContext(ctx, s.db).
		Where("lot_id = ?", lotID).
		Order("spot_number asc").
		Find(&spots).Error
	return spots, err
}

func (s *gormStore) FirstAvailableSpot(ctx context.Context, lotID uint) (*ParkingSpot, error) {
	var spot ParkingSpot
	err := getDBFromContext(ctx, s.db).
		Where("lot_id = ? AND is_available = ?", lotID, true).
		Order("spot_number asc").
		First(&spot).Error
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

func (s *gormStore) SetSpotAvailability(ctx context.Context, spotID uint, from, to bool) (int64, error) {
	res := getDBFromContext(ctx, s.db).
		Model(&ParkingSpot{}).
		Where("id = ? AND is_available = ?", spotID, from).
		Update("is_available", to)
	return res.RowsAffected, res.Error
}

func (s *gormStore) DeleteSpot(ctx context.Context, id uint) error {
	return getDBFromContext(ctx, s.db).Delete(&ParkingSpot{}, id).Error
}

func (s *gormStore) CountSpots(ctx context.Context) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).Model(&ParkingSpot{}).Count(&count).Error
	return count, err
}

func (s *gormStore) CountAvailableSpots(ctx context.Context) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).
		Model(&ParkingSpot{}).
		Where("is_available = ?", true).
		Count(&count).Error
	return count, err
}

func (s *gormStore) CountOccupiedSpotsByLot(ctx context.Context, lotID uint) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).
		Model(&ParkingSpot{}).
		Where("lot_id = ? AND is_available = ?", lotID, false).
		Count(&count).Error
	return count, err
}

func (s *gormStore) CreateBooking(ctx context.Context, booking *Booking) error {
	return getDBFromContext(ctx, s.db).Create(booking).Error
}

func (s *gormStore) GetBooking(ctx context.Context, id uint) (*Booking, error) {
	var booking Booking
	if err := getDBFromContext(ctx, s.db).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *gormStore) GetActiveBookingByUser(ctx context.Context, userID uint) (*Booking, error) {
	var booking Booking
	err := getDBFromContext(ctx, s.db).
		Where("user_id = ? AND status = ?", userID, BookingActive).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *gormStore) GetActiveBookingBySpot(ctx context.Context, spotID uint) (*Booking, error) {
	var booking Booking
	err := getDBFromContext(ctx, s.db).
		Where("spot_id = ? AND status = ?", spotID, BookingActive).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *gormStore) ListBookingsByUser(ctx context.Context, userID uint) ([]*Booking, error) {
	var bookings []*Booking
	err := getDBFromContext(ctx, s.db).
		Where("user_id = ?", userID).
		Order("parking_timestamp desc").
		Find(&bookings).Error
	return bookings, err
}

func (s *gormStore) ListCompletedBookingsByUser(ctx context.Context, userID uint) ([]*Booking, error) {
	var bookings []*Booking
	err := getDBFromContext(ctx, s.db).
		Where("user_id = ? AND status = ?", userID, BookingCompleted).
		Order("parking_timestamp asc").
		Find(&bookings).Error
	return bookings, err
}

func (s *gormStore) UpdateBooking(ctx context.Context, booking *Booking) error {
	return getDBFromContext(ctx, s.db).Save(booking).Error
}

func (s *gormStore) CountBookings(ctx context.Context) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).Model(&Booking{}).Count(&count).Error
	return count, err
}
