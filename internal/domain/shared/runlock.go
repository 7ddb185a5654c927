package shared

import (
	"context"
	"time"
)

// RunLock serializes background runs across process instances. A holder that
// crashes is covered by the TTL; the lock expires on its own.
type RunLock interface {
	// Acquire attempts to take the lock for key with the given TTL.
	// Returns true if the lock was taken, false if another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lock for key. Releasing a lock that is not held
	// is not an error.
	Release(ctx context.Context, key string) error

	// Close releases resources held by the lock backend
	Close() error
}
