package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/parkwise/parkwise/internal/common/config"
)

// NewStore creates a new statistics cache based on configuration
func NewStore(logger *zap.Logger, cfg *config.CacheConfig) (Store, error) {
	logger.Info("Initializing statistics cache", zap.String("type", cfg.Type))
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(cfg.TTL), nil
	case "redis":
		return NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix, cfg.TTL)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
