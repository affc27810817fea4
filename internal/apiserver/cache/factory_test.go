package cache

import (
	"testing"
	"time"

	"github.com/parkwise/parkwise/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStoreMemory(t *testing.T) {
	s, err := NewStore(zap.NewNop(), &config.CacheConfig{Type: "memory", TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	// Empty type defaults to memory.
	s, err = NewStore(zap.NewNop(), &config.CacheConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}

func TestNewStoreRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := NewStore(zap.NewNop(), &config.CacheConfig{
		Type: "redis",
		TTL:  time.Minute,
		Redis: config.CacheRedisConfig{
			Addr: mr.Addr(),
		},
	})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore(zap.NewNop(), &config.CacheConfig{Type: "memcached"})
	assert.Error(t, err)
}
