package cache

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned when the requested entry is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// DashboardStats is the admin dashboard snapshot.
type DashboardStats struct {
	TotalLots      int64 `json:"totalLots"`
	TotalSpots     int64 `json:"totalSpots"`
	AvailableSpots int64 `json:"availableSpots"`
	OccupiedSpots  int64 `json:"occupiedSpots"`
	TotalUsers     int64 `json:"totalUsers"`
	TotalBookings  int64 `json:"totalBookings"`
}

// LotOccupancy is the per-lot occupancy row served by the lot statistics
// endpoint.
type LotOccupancy struct {
	LotID     uint   `json:"lotId"`
	Name      string `json:"name"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
	Occupied  int    `json:"occupied"`
}

// Store caches computed statistics between booking mutations. Entries are
// written with the store's TTL and dropped wholesale on Clear.
type Store interface {
	GetDashboard(ctx context.Context) (*DashboardStats, error)
	SetDashboard(ctx context.Context, stats *DashboardStats) error

	GetLotOccupancy(ctx context.Context) ([]LotOccupancy, error)
	SetLotOccupancy(ctx context.Context, rows []LotOccupancy) error

	// Clear drops all cached statistics.
	Clear(ctx context.Context) error
}
