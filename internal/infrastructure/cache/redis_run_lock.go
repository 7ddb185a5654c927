package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/pim/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// RedisRunLock implements RunLock using Redis
// This is suitable for distributed deployments where multiple instances
// must agree on a single active run
type RedisRunLock struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRunLock creates a new Redis-based run lock
func NewRedisRunLock(cfg RedisConfig) (*RedisRunLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRunLock{
		client:    client,
		keyPrefix: "import:lock:",
	}, nil
}

// NewRedisRunLockWithClient creates a lock with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisRunLockWithClient(client *redis.Client, keyPrefix string) *RedisRunLock {
	if keyPrefix == "" {
		keyPrefix = "import:lock:"
	}
	return &RedisRunLock{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire attempts to take the lock with a TTL
// Returns true if the lock was taken, false if another holder has it
// Uses SETNX (SET if Not eXists) for atomic operation
func (l *RedisRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullKey := l.keyPrefix + key

	// SETNX with TTL in a single atomic operation
	result, err := l.client.SetNX(ctx, fullKey, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}

	return result, nil
}

// Release frees the lock. Deleting a key that does not exist is not an error.
func (l *RedisRunLock) Release(ctx context.Context, key string) error {
	fullKey := l.keyPrefix + key

	if err := l.client.Del(ctx, fullKey).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}

	return nil
}

// Close closes the Redis client
func (l *RedisRunLock) Close() error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (l *RedisRunLock) GetClient() *redis.Client {
	return l.client
}

// Ensure RedisRunLock implements RunLock
var _ shared.RunLock = (*RedisRunLock)(nil)
