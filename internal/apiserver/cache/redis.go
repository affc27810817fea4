package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dashboardKey = "stats:dashboard"
	occupancyKey = "stats:occupancy"
)

// RedisStore implements the Store interface using Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a new Redis store instance
func NewRedisStore(addr, password string, db int, prefix string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if prefix == "" {
		prefix = "parkwise:"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) GetDashboard(ctx context.Context) (*DashboardStats, error) {
	data, err := s.client.Get(ctx, s.prefix+dashboardKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var stats DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *RedisStore) SetDashboard(ctx context.Context, stats *DashboardStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+dashboardKey, data, s.ttl).Err()
}

func (s *RedisStore) GetLotOccupancy(ctx context.Context) ([]LotOccupancy, error) {
	data, err := s.client.Get(ctx, s.prefix+occupancyKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var rows []LotOccupancy
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RedisStore) SetLotOccupancy(ctx context.Context, rows []LotOccupancy) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+occupancyKey, data, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.prefix+dashboardKey, s.prefix+occupancyKey).Err()
}
