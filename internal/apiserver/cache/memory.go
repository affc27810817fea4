package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements the Store interface using in-process storage
type MemoryStore struct {
	mu  sync.RWMutex
	ttl time.Duration

	dashboard   *DashboardStats
	dashboardAt time.Time

	occupancy   []LotOccupancy
	occupancyAt time.Time
}

// NewMemoryStore creates a new memory store with the given entry TTL
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MemoryStore{ttl: ttl}
}

func (s *MemoryStore) GetDashboard(ctx context.Context) (*DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dashboard == nil || time.Since(s.dashboardAt) > s.ttl {
		return nil, ErrCacheMiss
	}
	stats := *s.dashboard
	return &stats, nil
}

func (s *MemoryStore) SetDashboard(ctx context.Context, stats *DashboardStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *stats
	s.dashboard = &copied
	s.dashboardAt = time.Now()
	return nil
}

func (s *MemoryStore) GetLotOccupancy(ctx context.Context) ([]LotOccupancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.occupancy == nil || time.Since(s.occupancyAt) > s.ttl {
		return nil, ErrCacheMiss
	}
	rows := make([]LotOccupancy, len(s.occupancy))
	copy(rows, s.occupancy)
	return rows, nil
}

func (s *MemoryStore) SetLotOccupancy(ctx context.Context, rows []LotOccupancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]LotOccupancy, len(rows))
	copy(copied, rows)
	s.occupancy = copied
	s.occupancyAt = time.Now()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dashboard = nil
	s.occupancy = nil
	return nil
}
